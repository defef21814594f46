package ledger

// Wire payloads relayed by the RPC bridge onto the notification topics.
// The bridge subscribes to the chain websocket (account changes for ride
// accounts, transaction logs for the ride program) and republishes each
// notification verbatim as JSON. Delivery is at-least-once and unordered.

// AccountNotification is emitted on every mutation of a subscribed ride
// account. Data carries the account's serialized bytes, base64-encoded.
type AccountNotification struct {
	Pubkey string `json:"pubkey"`
	Data   string `json:"data"`
	Slot   uint64 `json:"slot"`
}

// LogsNotification is emitted for every transaction touching the ride
// program. Err is set when the transaction failed.
type LogsNotification struct {
	Signature string   `json:"signature"`
	Logs      []string `json:"logs"`
	Err       *string  `json:"err,omitempty"`
	Slot      uint64   `json:"slot"`
}
