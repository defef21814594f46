package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"rideledger/internal/domain"
)

// On-chain ride account layout (Anchor): 8-byte account discriminator,
// 32-byte rider pubkey, 32-byte driver pubkey, u64 little-endian fare,
// 1-byte status.
const rideAccountLen = 8 + 32 + 32 + 8 + 1

// RideAccount is the deserialized on-chain state of one ride.
type RideAccount struct {
	Rider  string // hex-encoded pubkey
	Driver string // hex-encoded pubkey, zero account until accepted
	Fare   uint64
	Status domain.RideStatus
}

// rideDiscriminator returns the Anchor discriminator for the Ride account:
// the first 8 bytes of sha256("account:Ride").
func rideDiscriminator() []byte {
	sum := sha256.Sum256([]byte("account:Ride"))
	return sum[:8]
}

// DecodeRideAccount deserializes a ride account's raw bytes.
func DecodeRideAccount(data []byte) (*RideAccount, error) {
	if len(data) < rideAccountLen {
		return nil, fmt.Errorf("ride account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], rideDiscriminator()) {
		return nil, fmt.Errorf("not a ride account: discriminator mismatch")
	}

	status, err := statusFromByte(data[80])
	if err != nil {
		return nil, err
	}

	return &RideAccount{
		Rider:  hex.EncodeToString(data[8:40]),
		Driver: hex.EncodeToString(data[40:72]),
		Fare:   binary.LittleEndian.Uint64(data[72:80]),
		Status: status,
	}, nil
}

func statusFromByte(b byte) (domain.RideStatus, error) {
	switch b {
	case 0:
		return domain.RideStatusRequested, nil
	case 1:
		return domain.RideStatusAccepted, nil
	case 2:
		return domain.RideStatusCompleted, nil
	case 3:
		return domain.RideStatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown ride status byte %d", b)
	}
}

// EventKindForStatus maps a decoded account status to the domain event kind.
// A REQUESTED account change is the echo of ride creation, which the command
// path already recorded, so it normalizes to Unknown and folds as a no-op.
func EventKindForStatus(status domain.RideStatus) domain.EventKind {
	switch status {
	case domain.RideStatusAccepted:
		return domain.EventAcceptedOnChain
	case domain.RideStatusCompleted:
		return domain.EventCompletedOnChain
	case domain.RideStatusCancelled:
		return domain.EventCancelledOnChain
	default:
		return domain.EventUnknown
	}
}

// Program log markers written by the ride program's instructions.
var instructionMarkers = []struct {
	marker      string
	instruction string
}{
	{"New ride created", "create_ride"},
	{"Ride accepted by driver", "accept_ride"},
	{"Ride completed successfully", "complete_ride"},
	{"Ride cancelled", "cancel_ride"},
}

// ParseInstruction scans transaction logs for the ride program's log markers
// and returns the instruction name, or "" when none matched. Used for
// observability only: logs do not identify the ride account, so they never
// drive a projection mutation.
func ParseInstruction(logs []string) string {
	for _, line := range logs {
		msg, ok := strings.CutPrefix(line, "Program log: ")
		if !ok {
			continue
		}
		for _, m := range instructionMarkers {
			if strings.Contains(msg, m.marker) {
				return m.instruction
			}
		}
	}
	return ""
}
