package multisig

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	walletAddr = common.HexToAddress("0x000000000000000000000000000000000000beef")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol      = common.HexToAddress("0x00000000000000000000000000000000000ca201")
	tokenAddr  = common.HexToAddress("0x0000000000000000000000000000000000070c3e")
	sentHash   = common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001")
)

type mockChain struct {
	chainID    *big.Int
	chainIDErr error
	members    []common.Address
	required   uint64
	txs        []domain.Transaction
	rangeCalls [][2]uint64
	native     *big.Int
	holdings   map[common.Address]*big.Int
	metadata   map[common.Address]domain.TokenMetadata
}

func newMockChain(total int, required uint64) *mockChain {
	chain := &mockChain{
		chainID:  big.NewInt(31337),
		members:  []common.Address{alice, bob, carol},
		required: required,
	}
	for i := 0; i < total; i++ {
		tx := domain.Transaction{
			ID:          big.NewInt(int64(i)),
			Title:       "proposal",
			Creator:     alice,
			CreatedTime: big.NewInt(1_700_000_000 + int64(i)),
			Destination: bob,
			Value:       big.NewInt(int64(i)),
			Approval:    []common.Address{alice},
		}
		if i%3 == 0 {
			tx.Executed = true
			tx.Approval = []common.Address{alice, bob}
		}
		chain.txs = append(chain.txs, tx)
	}
	return chain
}

func (m *mockChain) ChainID(ctx context.Context) (*big.Int, error) {
	return m.chainID, m.chainIDErr
}

func (m *mockChain) Members(ctx context.Context, wallet common.Address) ([]common.Address, error) {
	return m.members, nil
}

func (m *mockChain) Required(ctx context.Context, wallet common.Address) (uint64, error) {
	return m.required, nil
}

func (m *mockChain) IsOwner(ctx context.Context, wallet, account common.Address) (bool, error) {
	return domain.WalletConfig{Members: m.members}.IsMember(account), nil
}

func (m *mockChain) TransactionCount(ctx context.Context, wallet common.Address) (uint64, error) {
	return uint64(len(m.txs)), nil
}

func (m *mockChain) Transaction(ctx context.Context, wallet common.Address, id *big.Int) (domain.Transaction, error) {
	return m.txs[id.Int64()], nil
}

func (m *mockChain) TransactionsInRange(ctx context.Context, wallet common.Address, from, to uint64) ([]domain.Transaction, error) {
	m.rangeCalls = append(m.rangeCalls, [2]uint64{from, to})
	if to > uint64(len(m.txs)) {
		to = uint64(len(m.txs))
	}
	out := make([]domain.Transaction, 0, to-from)
	out = append(out, m.txs[from:to]...)
	return out, nil
}

func (m *mockChain) ConfirmationCount(ctx context.Context, wallet common.Address, id *big.Int) (uint64, error) {
	return uint64(len(m.txs[id.Int64()].Approval)), nil
}

func (m *mockChain) Confirmations(ctx context.Context, wallet common.Address, id *big.Int) ([]common.Address, error) {
	return m.txs[id.Int64()].Approval, nil
}

func (m *mockChain) TransactionCountInCondition(ctx context.Context, wallet common.Address, from, to uint64, pending, executed bool) (uint64, error) {
	ids, _ := m.TransactionIDsInCondition(ctx, wallet, from, to, pending, executed)
	return uint64(len(ids)), nil
}

func (m *mockChain) TransactionIDsInCondition(ctx context.Context, wallet common.Address, from, to uint64, pending, executed bool) ([]*big.Int, error) {
	var ids []*big.Int
	for _, tx := range m.txs[from:to] {
		if (pending && !tx.Executed) || (executed && tx.Executed) {
			ids = append(ids, tx.ID)
		}
	}
	return ids, nil
}

func (m *mockChain) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	if m.native == nil {
		return new(big.Int), nil
	}
	return m.native, nil
}

func (m *mockChain) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	balance, ok := m.holdings[token]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return balance, nil
}

func (m *mockChain) TokenMetadata(ctx context.Context, token common.Address) (domain.TokenMetadata, error) {
	metadata, ok := m.metadata[token]
	if !ok {
		return domain.TokenMetadata{}, errors.New("execution reverted")
	}
	return metadata, nil
}

type submitCall struct {
	wallet      common.Address
	title       string
	description string
	destination common.Address
	value       *big.Int
	data        []byte
}

type mockSigner struct {
	chainID      *big.Int
	broadcastErr error
	receipt      *types.Receipt
	waitErr      error
	submitted    []submitCall
	confirmed    []*big.Int
	revoked      []*big.Int
	waits        int
}

func (s *mockSigner) Address() common.Address { return alice }

func (s *mockSigner) ChainID(ctx context.Context) (*big.Int, error) {
	return s.chainID, nil
}

func (s *mockSigner) SubmitTransaction(ctx context.Context, wallet common.Address, title, description string, destination common.Address, value *big.Int, data []byte) (PendingTransaction, error) {
	if s.broadcastErr != nil {
		return nil, s.broadcastErr
	}
	s.submitted = append(s.submitted, submitCall{wallet, title, description, destination, value, data})
	return &mockPending{signer: s}, nil
}

func (s *mockSigner) ConfirmTransaction(ctx context.Context, wallet common.Address, id *big.Int) (PendingTransaction, error) {
	if s.broadcastErr != nil {
		return nil, s.broadcastErr
	}
	s.confirmed = append(s.confirmed, id)
	return &mockPending{signer: s}, nil
}

func (s *mockSigner) RevokeConfirmation(ctx context.Context, wallet common.Address, id *big.Int) (PendingTransaction, error) {
	if s.broadcastErr != nil {
		return nil, s.broadcastErr
	}
	s.revoked = append(s.revoked, id)
	return &mockPending{signer: s}, nil
}

type mockPending struct {
	signer *mockSigner
}

func (p *mockPending) Hash() common.Hash { return sentHash }

func (p *mockPending) Wait(ctx context.Context) (*types.Receipt, error) {
	p.signer.waits++
	return p.signer.receipt, p.signer.waitErr
}

func testCodec(t *testing.T) *abicodec.Codec {
	t.Helper()
	codec, err := abicodec.New()
	require.NoError(t, err)
	return codec
}

func newTestClient(t *testing.T, provider Provider, signer Signer) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Provider: provider,
		Signer:   signer,
		Codec:    testCodec(t),
	})
	require.NoError(t, err)
	return client
}

// walletLog builds a log emitted by the wallet; topics after the event id
// are given as hashes.
func walletLog(t *testing.T, emitter common.Address, event string, topics ...common.Hash) *types.Log {
	t.Helper()
	definition, ok := testCodec(t).Event(abicodec.WalletInterface, event)
	require.True(t, ok, event)
	return &types.Log{
		Address: emitter,
		Topics:  append([]common.Hash{definition.ID}, topics...),
	}
}

func idTopic(id int64) common.Hash {
	return common.BigToHash(big.NewInt(id))
}

func addressTopic(address common.Address) common.Hash {
	return common.BytesToHash(address.Bytes())
}

func receiptWith(logs ...*types.Log) *types.Receipt {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: sentHash, Logs: logs}
}
