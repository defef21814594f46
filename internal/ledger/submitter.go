package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"rideledger/internal/service"
)

// HTTPSubmitter mirrors cancel commands onto the ledger through the RPC
// bridge, which constructs and signs the actual cancel_ride transaction.
// Any transport or bridge failure is returned to the caller; the engine
// treats it as retryable and leaves the projection untouched.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSubmitter creates a submitter for the given bridge endpoint.
func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSubmitter{endpoint: endpoint, client: client}
}

type cancelRequest struct {
	RideID  string `json:"ride_id"`
	ByRider bool   `json:"by_rider"`
}

// SubmitCancel submits the cancel_ride instruction for the given ride.
func (s *HTTPSubmitter) SubmitCancel(ctx context.Context, rideID string, byRider bool) error {
	body, err := json.Marshal(cancelRequest{RideID: rideID, ByRider: byRider})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cancel submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cancel submission rejected: status %d", resp.StatusCode)
	}
	return nil
}

// LogSubmitter acknowledges every cancel without touching the chain. Used
// when no bridge endpoint is configured, for local and test deployments.
type LogSubmitter struct{}

// SubmitCancel logs the simulated submission and acknowledges it.
func (LogSubmitter) SubmitCancel(ctx context.Context, rideID string, byRider bool) error {
	log.Printf("ride %s: simulating on-chain cancellation (by_rider=%t)", rideID, byRider)
	return nil
}

// Ensure both submitters satisfy the engine's contract.
var (
	_ service.Submitter = (*HTTPSubmitter)(nil)
	_ service.Submitter = LogSubmitter{}
)
