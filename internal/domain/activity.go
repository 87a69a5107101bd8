package domain

import "time"

// Activity records one step or terminal outcome of an operation driven
// through this service.
type Activity struct {
	ID            string    `json:"id"`
	ChainID       uint64    `json:"chain_id"`
	Wallet        string    `json:"wallet"`
	Operation     Operation `json:"operation"`
	Step          string    `json:"step"`
	TxHash        string    `json:"tx_hash,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActivityStepFailed marks the terminal failure record of an operation.
const ActivityStepFailed = "FAILED"
