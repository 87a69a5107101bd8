package multisig

import (
	"context"
	"math/big"

	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provider is the read side of the wallet contract binding.
type Provider interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Members(ctx context.Context, wallet common.Address) ([]common.Address, error)
	Required(ctx context.Context, wallet common.Address) (uint64, error)
	IsOwner(ctx context.Context, wallet, account common.Address) (bool, error)
	TransactionCount(ctx context.Context, wallet common.Address) (uint64, error)
	Transaction(ctx context.Context, wallet common.Address, id *big.Int) (domain.Transaction, error)
	// TransactionsInRange returns transactions with ids in [from, to).
	TransactionsInRange(ctx context.Context, wallet common.Address, from, to uint64) ([]domain.Transaction, error)
	ConfirmationCount(ctx context.Context, wallet common.Address, id *big.Int) (uint64, error)
	Confirmations(ctx context.Context, wallet common.Address, id *big.Int) ([]common.Address, error)
	TransactionCountInCondition(ctx context.Context, wallet common.Address, from, to uint64, pending, executed bool) (uint64, error)
	TransactionIDsInCondition(ctx context.Context, wallet common.Address, from, to uint64, pending, executed bool) ([]*big.Int, error)

	// Balance is the native balance of account at the latest block.
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	TokenMetadata(ctx context.Context, token common.Address) (domain.TokenMetadata, error)
}

// Signer is the write side of the binding. Every write returns as soon as
// the network accepted the transaction for inclusion.
type Signer interface {
	Address() common.Address
	ChainID(ctx context.Context) (*big.Int, error)
	SubmitTransaction(ctx context.Context, wallet common.Address, title, description string, destination common.Address, value *big.Int, data []byte) (PendingTransaction, error)
	ConfirmTransaction(ctx context.Context, wallet common.Address, id *big.Int) (PendingTransaction, error)
	RevokeConfirmation(ctx context.Context, wallet common.Address, id *big.Int) (PendingTransaction, error)
}

// PendingTransaction is a broadcast transaction awaiting inclusion.
type PendingTransaction interface {
	Hash() common.Hash
	// Wait blocks until the transaction is mined or ctx is done.
	Wait(ctx context.Context) (*types.Receipt, error)
}
