package multisig

import (
	"math/big"
	"testing"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	client := newTestClient(t, nil, nil)

	native := client.Summarize(domain.Transaction{Destination: bob, Value: big.NewInt(9)})
	require.Equal(t, common.Address{}, native.Token)
	require.Equal(t, bob, *native.To)
	require.Equal(t, int64(9), native.Amount.Int64())
	require.Empty(t, native.Function)

	data, err := client.Codec().Encode(abicodec.TokenInterface, "transfer", carol, big.NewInt(77))
	require.NoError(t, err)
	token := client.Summarize(domain.Transaction{Destination: tokenAddr, Value: new(big.Int), Data: data})
	require.Equal(t, tokenAddr, token.Token)
	require.Equal(t, abicodec.TokenInterface, token.Interface)
	require.Equal(t, "transfer", token.Function)
	require.Equal(t, carol, *token.To)
	require.Equal(t, int64(77), token.Amount.Int64())

	data, err = client.Codec().Encode(abicodec.WalletInterface, "addMember", carol)
	require.NoError(t, err)
	self := client.Summarize(domain.Transaction{Destination: walletAddr, Data: data})
	require.Equal(t, "addMember", self.Function)
	require.Equal(t, carol.Hex(), self.Params["owner"])
	require.Nil(t, self.To)
	require.Nil(t, self.Amount)

	unknown := client.Summarize(domain.Transaction{Destination: tokenAddr, Data: []byte{0xde, 0xad, 0xbe, 0xef}})
	require.Equal(t, tokenAddr, unknown.Token)
	require.Empty(t, unknown.Function)
}
