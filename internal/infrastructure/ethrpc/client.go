package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Backend is the node API the gateway needs; *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Config struct {
	URL          string
	Codec        *abicodec.Codec
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Client reads the wallet contract over JSON-RPC. It implements the
// provider side of the multisig gateway for any wallet address.
type Client struct {
	backend      Backend
	closer       func()
	walletABI    abi.ABI
	tokenABI     abi.ABI
	pollInterval time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Dial connects to cfg.URL. http, https, ws and ipc endpoints are accepted.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rpc url is required")
	}
	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	eth := ethclient.NewClient(rpcClient)
	client, err := NewClient(eth, cfg)
	if err != nil {
		eth.Close()
		return nil, err
	}
	client.closer = eth.Close
	return client, nil
}

func NewClient(backend Backend, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if cfg.Codec == nil {
		return nil, errors.New("codec is required")
	}
	walletABI, ok := cfg.Codec.ABI(abicodec.WalletInterface)
	if !ok {
		return nil, errors.New("wallet abi is not registered")
	}
	tokenABI, ok := cfg.Codec.ABI(abicodec.TokenInterface)
	if !ok {
		return nil, errors.New("token abi is not registered")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		backend:      backend,
		walletABI:    walletABI,
		tokenABI:     tokenABI,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		tracer:       otel.Tracer("msigwallet/ethrpc"),
	}, nil
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.backend.ChainID(ctx)
}

func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}

func (c *Client) contract(wallet common.Address) *bind.BoundContract {
	return bind.NewBoundContract(wallet, c.walletABI, c.backend, c.backend, c.backend)
}

func (c *Client) call(ctx context.Context, wallet common.Address, method string, args ...any) ([]any, error) {
	return c.invoke(ctx, c.contract(wallet), wallet, method, args...)
}

func (c *Client) tokenCall(ctx context.Context, token common.Address, method string, args ...any) ([]any, error) {
	contract := bind.NewBoundContract(token, c.tokenABI, c.backend, c.backend, c.backend)
	return c.invoke(ctx, contract, token, method, args...)
}

func (c *Client) invoke(ctx context.Context, contract *bind.BoundContract, address common.Address, method string, args ...any) ([]any, error) {
	ctx, span := c.tracer.Start(ctx, "ethrpc.call", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("contract", address.Hex()),
		attribute.String("method", method),
	)

	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}
	return out, nil
}

func (c *Client) Members(ctx context.Context, wallet common.Address) ([]common.Address, error) {
	out, err := c.call(ctx, wallet, "getMembers")
	if err != nil {
		return nil, err
	}
	return convert[[]common.Address](out[0])
}

func (c *Client) Required(ctx context.Context, wallet common.Address) (uint64, error) {
	return c.callUint64(ctx, wallet, "getRequired")
}

func (c *Client) IsOwner(ctx context.Context, wallet, account common.Address) (bool, error) {
	out, err := c.call(ctx, wallet, "isOwner", account)
	if err != nil {
		return false, err
	}
	return convert[bool](out[0])
}

func (c *Client) TransactionCount(ctx context.Context, wallet common.Address) (uint64, error) {
	return c.callUint64(ctx, wallet, "getTransactionCount")
}

func (c *Client) Transaction(ctx context.Context, wallet common.Address, id *big.Int) (domain.Transaction, error) {
	out, err := c.call(ctx, wallet, "getTransaction", id)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx, err := convert[walletTransaction](out[0])
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx.toDomain(), nil
}

func (c *Client) TransactionsInRange(ctx context.Context, wallet common.Address, from, to uint64) ([]domain.Transaction, error) {
	out, err := c.call(ctx, wallet, "getTransactionsInRange", new(big.Int).SetUint64(from), new(big.Int).SetUint64(to))
	if err != nil {
		return nil, err
	}
	raw, err := convert[[]walletTransaction](out[0])
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(raw))
	for _, tx := range raw {
		txs = append(txs, tx.toDomain())
	}
	return txs, nil
}

func (c *Client) ConfirmationCount(ctx context.Context, wallet common.Address, id *big.Int) (uint64, error) {
	return c.callUint64(ctx, wallet, "getConfirmationCount", id)
}

func (c *Client) Confirmations(ctx context.Context, wallet common.Address, id *big.Int) ([]common.Address, error) {
	out, err := c.call(ctx, wallet, "getConfirmations", id)
	if err != nil {
		return nil, err
	}
	return convert[[]common.Address](out[0])
}

func (c *Client) TransactionCountInCondition(ctx context.Context, wallet common.Address, from, to uint64, pending, executed bool) (uint64, error) {
	return c.callUint64(ctx, wallet, "getTransactionCountInCondition",
		new(big.Int).SetUint64(from), new(big.Int).SetUint64(to), pending, executed)
}

func (c *Client) TransactionIDsInCondition(ctx context.Context, wallet common.Address, from, to uint64, pending, executed bool) ([]*big.Int, error) {
	out, err := c.call(ctx, wallet, "getTransactionIdsInCondition",
		new(big.Int).SetUint64(from), new(big.Int).SetUint64(to), pending, executed)
	if err != nil {
		return nil, err
	}
	return convert[[]*big.Int](out[0])
}

// Balance reads the native balance at the latest block.
func (c *Client) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}

func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	out, err := c.tokenCall(ctx, token, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return convert[*big.Int](out[0])
}

// TokenMetadata reads decimals, name, symbol and total supply. The first
// failing call aborts the read.
func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (domain.TokenMetadata, error) {
	var metadata domain.TokenMetadata
	out, err := c.tokenCall(ctx, token, "decimals")
	if err != nil {
		return metadata, err
	}
	if metadata.Decimals, err = convert[uint8](out[0]); err != nil {
		return metadata, err
	}
	if out, err = c.tokenCall(ctx, token, "name"); err != nil {
		return metadata, err
	}
	if metadata.Name, err = convert[string](out[0]); err != nil {
		return metadata, err
	}
	if out, err = c.tokenCall(ctx, token, "symbol"); err != nil {
		return metadata, err
	}
	if metadata.Symbol, err = convert[string](out[0]); err != nil {
		return metadata, err
	}
	if out, err = c.tokenCall(ctx, token, "totalSupply"); err != nil {
		return metadata, err
	}
	if metadata.TotalSupply, err = convert[*big.Int](out[0]); err != nil {
		return metadata, err
	}
	return metadata, nil
}

func (c *Client) callUint64(ctx context.Context, wallet common.Address, method string, args ...any) (uint64, error) {
	out, err := c.call(ctx, wallet, method, args...)
	if err != nil {
		return 0, err
	}
	value, err := convert[*big.Int](out[0])
	if err != nil {
		return 0, err
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("%s: value %s overflows uint64", method, value)
	}
	return value.Uint64(), nil
}

// convert copies an unpacked ABI value into T. Tuple values arrive as
// anonymous structs and are matched to T by field name.
func convert[T any](value any) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected abi value %T: %v", value, r)
		}
	}()
	converted, ok := abi.ConvertType(value, new(T)).(*T)
	if !ok {
		return result, fmt.Errorf("unexpected abi value %T", value)
	}
	return *converted, nil
}

// walletTransaction mirrors the contract's transaction tuple; field names
// follow the ABI component names.
type walletTransaction struct {
	Id          *big.Int
	Title       string
	Description string
	Creator     common.Address
	CreatedTime *big.Int
	Destination common.Address
	Value       *big.Int
	Data        []byte
	Executed    bool
	Approval    []common.Address
}

func (t walletTransaction) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Creator:     t.Creator,
		CreatedTime: t.CreatedTime,
		Destination: t.Destination,
		Value:       t.Value,
		Data:        t.Data,
		Executed:    t.Executed,
		Approval:    t.Approval,
	}
}
