package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction is a multisig proposal as stored by the wallet contract.
type Transaction struct {
	ID          *big.Int         `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Creator     common.Address   `json:"creator"`
	CreatedTime *big.Int         `json:"created_time"`
	Destination common.Address   `json:"destination"`
	Value       *big.Int         `json:"value"`
	Data        []byte           `json:"data"`
	Executed    bool             `json:"executed"`
	Approval    []common.Address `json:"approval"`
}

// HasApproved reports whether account is in the approval list.
func (t Transaction) HasApproved(account common.Address) bool {
	for _, approver := range t.Approval {
		if approver == account {
			return true
		}
	}
	return false
}

// IsNativeTransfer reports whether the transaction carries no calldata.
func (t Transaction) IsNativeTransfer() bool {
	return len(t.Data) == 0
}

// WalletConfig is the owner set and approval threshold of a wallet.
type WalletConfig struct {
	Members  []common.Address `json:"members"`
	Required uint64           `json:"required"`
}

// IsMember reports whether account is one of the wallet owners.
func (c WalletConfig) IsMember(account common.Address) bool {
	for _, member := range c.Members {
		if member == account {
			return true
		}
	}
	return false
}
