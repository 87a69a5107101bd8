package multisig

import (
	"math/big"
	"testing"

	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tx := domain.Transaction{ID: big.NewInt(1), Approval: []common.Address{alice, bob, carol}}
	require.Equal(t, domain.StatusActive, DeriveStatus(tx))

	tx.Executed = true
	require.Equal(t, domain.StatusExecuted, DeriveStatus(tx))

	tx.Approval = nil
	require.Equal(t, domain.StatusExecuted, DeriveStatus(tx))
}

func TestMinimumReached(t *testing.T) {
	tx := domain.Transaction{Approval: []common.Address{alice}}
	require.False(t, MinimumReached(tx, 2))
	require.False(t, CanExecuteEarly(tx, 2))

	tx.Approval = append(tx.Approval, bob)
	require.True(t, MinimumReached(tx, 2))
	require.True(t, CanExecuteEarly(tx, 2))
	require.True(t, MinimumReached(domain.Transaction{}, 0))
}

func TestCanApprove(t *testing.T) {
	cfg := domain.WalletConfig{Members: []common.Address{alice, bob}, Required: 2}
	tx := domain.Transaction{Approval: []common.Address{alice}}

	require.False(t, CanApprove(tx, cfg, alice), "already approved")
	require.True(t, CanApprove(tx, cfg, bob))
	require.False(t, CanApprove(tx, cfg, carol), "not a member")
	require.False(t, CanApprove(tx, cfg, common.Address{}))

	tx.Executed = true
	require.False(t, CanApprove(tx, cfg, bob))
}
