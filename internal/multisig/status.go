package multisig

import (
	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// DeriveStatus reads status from the executed flag only. Approval count
// never makes a proposal terminal.
func DeriveStatus(tx domain.Transaction) domain.ProposalStatus {
	if tx.Executed {
		return domain.StatusExecuted
	}
	return domain.StatusActive
}

// MinimumReached reports whether tx has enough approvals under the
// threshold read at query time.
func MinimumReached(tx domain.Transaction, required uint64) bool {
	return uint64(len(tx.Approval)) >= required
}

// CanExecuteEarly is MinimumReached; this wallet has no voting window.
func CanExecuteEarly(tx domain.Transaction, required uint64) bool {
	return MinimumReached(tx, required)
}

// CanApprove reports whether account may still confirm tx.
func CanApprove(tx domain.Transaction, cfg domain.WalletConfig, account common.Address) bool {
	if tx.Executed || account == (common.Address{}) {
		return false
	}
	return cfg.IsMember(account) && !tx.HasApproved(account)
}

func newProposal(tx domain.Transaction, required uint64) domain.Proposal {
	return domain.Proposal{
		Transaction:  tx,
		Status:       DeriveStatus(tx),
		MinApprovals: required,
	}
}
