package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ProposalStatus is the presentational state derived from on-chain fields.
type ProposalStatus string

const (
	StatusActive   ProposalStatus = "Active"
	StatusExecuted ProposalStatus = "Executed"
)

// ParseProposalStatus accepts the lower-case query form used by the API and CLI.
func ParseProposalStatus(raw string) (ProposalStatus, bool) {
	switch raw {
	case "active", "Active":
		return StatusActive, true
	case "executed", "Executed":
		return StatusExecuted, true
	default:
		return "", false
	}
}

// Proposal is a transaction together with its derived status.
type Proposal struct {
	Transaction
	Status       ProposalStatus `json:"status"`
	MinApprovals uint64         `json:"min_approvals"`
}

// ProposalSummary describes what a proposal moves, when it moves anything.
type ProposalSummary struct {
	Interface string            `json:"interface,omitempty"`
	Function  string            `json:"function,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Token     common.Address    `json:"token"`
	To        *common.Address   `json:"to,omitempty"`
	Amount    *big.Int          `json:"amount,omitempty"`
}

// ProposalPage is one window of the proposal list, newest first.
type ProposalPage struct {
	Items      []Proposal `json:"items"`
	TotalCount uint64     `json:"total_count"`
}
