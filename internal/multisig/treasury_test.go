package multisig

import (
	"context"
	"math/big"
	"testing"

	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestBalances(t *testing.T) {
	unnamed := common.HexToAddress("0x00000000000000000000000000000000000f00d1")
	empty := common.HexToAddress("0x00000000000000000000000000000000000e0e01")

	chain := newMockChain(0, 1)
	chain.native = big.NewInt(7)
	chain.holdings = map[common.Address]*big.Int{
		tokenAddr: big.NewInt(1_000),
		unnamed:   big.NewInt(3),
		empty:     big.NewInt(0),
	}
	chain.metadata = map[common.Address]domain.TokenMetadata{
		tokenAddr: {Name: "Gov", Symbol: "GOV", Decimals: 18, TotalSupply: big.NewInt(1_000_000)},
	}
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	treasury, err := client.Balances(context.Background(),
		[]common.Address{tokenAddr, {}, empty, unnamed, tokenAddr})
	require.NoError(t, err)
	require.Equal(t, walletAddr, treasury.Wallet)
	require.Equal(t, "7", treasury.Native.String())
	require.Len(t, treasury.Tokens, 2)

	require.Equal(t, tokenAddr, treasury.Tokens[0].Token)
	require.Equal(t, "GOV", treasury.Tokens[0].Symbol)
	require.Equal(t, uint8(18), treasury.Tokens[0].Decimals)
	require.Equal(t, "1000", treasury.Tokens[0].Balance.String())

	require.Equal(t, unnamed, treasury.Tokens[1].Token)
	require.Empty(t, treasury.Tokens[1].Symbol)
	require.Equal(t, "3", treasury.Tokens[1].Balance.String())
}

func TestBalancesTokenReadFails(t *testing.T) {
	chain := newMockChain(0, 1)
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	_, err := client.Balances(context.Background(), []common.Address{tokenAddr})
	require.ErrorContains(t, err, tokenAddr.Hex())
}

func TestBalancesPreconditions(t *testing.T) {
	client := newTestClient(t, newMockChain(0, 1), nil)
	_, err := client.Balances(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoWalletAddress)

	chain := newMockChain(0, 1)
	chain.chainID = big.NewInt(999_999)
	client = newTestClient(t, chain, nil).Attach(walletAddr)
	_, err = client.Balances(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnsupportedNetwork)
}
