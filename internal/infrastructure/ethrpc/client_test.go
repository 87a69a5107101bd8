package ethrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"msigwallet/internal/abicodec"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	testWallet = common.HexToAddress("0x000000000000000000000000000000000000beef")
	memberA    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	memberB    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

// fakeNode answers the JSON-RPC methods used by bind and ethclient.
type fakeNode struct {
	mu           sync.Mutex
	chainID      *big.Int
	abi          abi.ABI
	tokenABI     abi.ABI
	balance      *big.Int
	outputs      map[string][]any
	sent         []*types.Transaction
	receiptAfter int
	polls        int
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	result, err := n.handle(req)
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if err != nil {
		resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *fakeNode) handle(req rpcRequest) (any, error) {
	switch req.Method {
	case "eth_chainId":
		return (*hexutil.Big)(n.chainID), nil
	case "eth_blockNumber":
		return hexutil.Uint64(16), nil
	case "eth_call":
		var call struct {
			Input hexutil.Bytes `json:"input"`
			Data  hexutil.Bytes `json:"data"`
		}
		if err := json.Unmarshal(req.Params[0], &call); err != nil {
			return nil, err
		}
		input := call.Input
		if len(input) == 0 {
			input = call.Data
		}
		method, err := n.abi.MethodById(input[:4])
		if err != nil {
			if method, err = n.tokenABI.MethodById(input[:4]); err != nil {
				return nil, err
			}
		}
		outputs, ok := n.outputs[method.Name]
		if !ok {
			return nil, fmt.Errorf("execution reverted: %s", method.Name)
		}
		packed, err := method.Outputs.Pack(outputs...)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(packed), nil
	case "eth_getBalance":
		if n.balance == nil {
			return (*hexutil.Big)(big.NewInt(0)), nil
		}
		return (*hexutil.Big)(n.balance), nil
	case "eth_getCode":
		return hexutil.Bytes{0x60, 0x80}, nil
	case "eth_getTransactionCount":
		return hexutil.Uint64(len(n.sent)), nil
	case "eth_maxPriorityFeePerGas", "eth_gasPrice":
		return (*hexutil.Big)(big.NewInt(1_000_000_000)), nil
	case "eth_getBlockByNumber":
		return &types.Header{
			UncleHash:  types.EmptyUncleHash,
			Difficulty: big.NewInt(0),
			Number:     big.NewInt(16),
			GasLimit:   30_000_000,
			Time:       1_700_000_000,
			BaseFee:    big.NewInt(1_000_000_000),
		}, nil
	case "eth_estimateGas":
		return hexutil.Uint64(120_000), nil
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := json.Unmarshal(req.Params[0], &raw); err != nil {
			return nil, err
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
		n.sent = append(n.sent, tx)
		return tx.Hash(), nil
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := json.Unmarshal(req.Params[0], &hash); err != nil {
			return nil, err
		}
		n.polls++
		if n.polls <= n.receiptAfter {
			return nil, nil
		}
		return &types.Receipt{
			Status:            types.ReceiptStatusSuccessful,
			CumulativeGasUsed: 90_000,
			GasUsed:           90_000,
			TxHash:            hash,
			Logs:              []*types.Log{},
		}, nil
	default:
		return nil, fmt.Errorf("method %s not supported", req.Method)
	}
}

func newTestClient(t *testing.T, node *fakeNode) *Client {
	t.Helper()
	codec, err := abicodec.New()
	require.NoError(t, err)
	walletABI, ok := codec.ABI(abicodec.WalletInterface)
	require.True(t, ok)
	node.abi = walletABI
	node.tokenABI, ok = codec.ABI(abicodec.TokenInterface)
	require.True(t, ok)
	if node.chainID == nil {
		node.chainID = big.NewInt(31337)
	}

	server := httptest.NewServer(node)
	t.Cleanup(server.Close)

	client, err := Dial(context.Background(), Config{URL: server.URL, Codec: codec, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestClientReads(t *testing.T) {
	ctx := context.Background()
	node := &fakeNode{outputs: map[string][]any{
		"getMembers":                     {[]common.Address{memberA, memberB}},
		"getRequired":                    {big.NewInt(2)},
		"isOwner":                        {true},
		"getTransactionCount":            {big.NewInt(3)},
		"getConfirmations":               {[]common.Address{memberA}},
		"getTransactionIdsInCondition":   {[]*big.Int{big.NewInt(0), big.NewInt(2)}},
		"getTransactionCountInCondition": {big.NewInt(2)},
	}}
	client := newTestClient(t, node)

	chainID, err := client.ChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(31337), chainID.Int64())

	block, err := client.LatestBlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(16), block)

	members, err := client.Members(ctx, testWallet)
	require.NoError(t, err)
	require.Equal(t, []common.Address{memberA, memberB}, members)

	required, err := client.Required(ctx, testWallet)
	require.NoError(t, err)
	require.Equal(t, uint64(2), required)

	owner, err := client.IsOwner(ctx, testWallet, memberA)
	require.NoError(t, err)
	require.True(t, owner)

	count, err := client.TransactionCount(ctx, testWallet)
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	confirmations, err := client.Confirmations(ctx, testWallet, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, []common.Address{memberA}, confirmations)

	ids, err := client.TransactionIDsInCondition(ctx, testWallet, 0, 3, true, false)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Equal(t, int64(2), ids[1].Int64())

	pending, err := client.TransactionCountInCondition(ctx, testWallet, 0, 3, true, false)
	require.NoError(t, err)
	require.Equal(t, uint64(2), pending)

	_, err = client.ConfirmationCount(ctx, testWallet, big.NewInt(1))
	require.ErrorContains(t, err, "getConfirmationCount")
}

func TestClientReadsBalances(t *testing.T) {
	ctx := context.Background()
	token := common.HexToAddress("0x0000000000000000000000000000000000070c3e")
	node := &fakeNode{
		balance: big.NewInt(2_500),
		outputs: map[string][]any{
			"balanceOf":   {big.NewInt(42)},
			"decimals":    {uint8(6)},
			"name":        {"Treasury Dollar"},
			"symbol":      {"TDL"},
			"totalSupply": {big.NewInt(1_000_000)},
		},
	}
	client := newTestClient(t, node)

	native, err := client.Balance(ctx, testWallet)
	require.NoError(t, err)
	require.Equal(t, "2500", native.String())

	held, err := client.TokenBalance(ctx, token, testWallet)
	require.NoError(t, err)
	require.Equal(t, "42", held.String())

	metadata, err := client.TokenMetadata(ctx, token)
	require.NoError(t, err)
	require.Equal(t, uint8(6), metadata.Decimals)
	require.Equal(t, "Treasury Dollar", metadata.Name)
	require.Equal(t, "TDL", metadata.Symbol)
	require.Equal(t, "1000000", metadata.TotalSupply.String())

	node.mu.Lock()
	delete(node.outputs, "symbol")
	node.mu.Unlock()
	_, err = client.TokenMetadata(ctx, token)
	require.ErrorContains(t, err, "symbol")
}

func TestClientReadsTransactionTuples(t *testing.T) {
	ctx := context.Background()
	first := walletTransaction{
		Id:          big.NewInt(0),
		Title:       "pay rent",
		Description: "monthly",
		Creator:     memberA,
		CreatedTime: big.NewInt(1_700_000_000),
		Destination: memberB,
		Value:       big.NewInt(5),
		Data:        []byte{},
		Executed:    true,
		Approval:    []common.Address{memberA, memberB},
	}
	second := first
	second.Id = big.NewInt(1)
	second.Executed = false
	second.Data = []byte{0xa9, 0x05, 0x9c, 0xbb}
	second.Approval = []common.Address{memberA}

	node := &fakeNode{outputs: map[string][]any{
		"getTransaction":         {second},
		"getTransactionsInRange": {[]walletTransaction{first, second}},
	}}
	client := newTestClient(t, node)

	tx, err := client.Transaction(ctx, testWallet, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, int64(1), tx.ID.Int64())
	require.Equal(t, "pay rent", tx.Title)
	require.Equal(t, memberB, tx.Destination)
	require.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, tx.Data)
	require.False(t, tx.Executed)

	txs, err := client.TransactionsInRange(ctx, testWallet, 0, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.True(t, txs[0].Executed)
	require.Equal(t, []common.Address{memberA, memberB}, txs[0].Approval)
}

func TestSignerConfirmAndWait(t *testing.T) {
	ctx := context.Background()
	node := &fakeNode{receiptAfter: 2}
	client := newTestClient(t, node)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := client.NewSigner(hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.Address())

	pending, err := signer.ConfirmTransaction(ctx, testWallet, big.NewInt(7))
	require.NoError(t, err)

	require.Len(t, node.sent, 1)
	sent := node.sent[0]
	require.Equal(t, pending.Hash(), sent.Hash())
	require.Equal(t, testWallet, *sent.To())
	from, err := types.Sender(types.LatestSignerForChainID(node.chainID), sent)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), from)

	method, err := node.abi.MethodById(sent.Data()[:4])
	require.NoError(t, err)
	require.Equal(t, "confirmTransaction", method.Name)

	receipt, err := pending.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, sent.Hash(), receipt.TxHash)
	require.Equal(t, 3, node.polls)
}

func TestPendingWaitHonoursContext(t *testing.T) {
	node := &fakeNode{receiptAfter: 1_000}
	client := newTestClient(t, node)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := client.NewSigner(hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)

	pending, err := signer.SubmitTransaction(context.Background(), testWallet, "t", "d", memberB, big.NewInt(1), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pending.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	client := newTestClient(t, &fakeNode{})
	_, err := client.NewSigner("0x1234")
	require.Error(t, err)
}
