package multisig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Provider Provider
	Signer   Signer
	Codec    *abicodec.Codec
	Networks Networks
	Wallet   common.Address
	Logger   *slog.Logger
}

// Client drives one multisig wallet. A Client is immutable once built;
// Attach returns a new Client bound to another wallet, so a value can be
// shared between goroutines.
type Client struct {
	provider Provider
	signer   Signer
	codec    *abicodec.Codec
	networks Networks
	wallet   common.Address
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Codec == nil {
		return nil, errors.New("codec is required")
	}
	if len(cfg.Networks) == 0 {
		cfg.Networks = DefaultNetworks()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		provider: cfg.Provider,
		signer:   cfg.Signer,
		codec:    cfg.Codec,
		networks: cfg.Networks,
		wallet:   cfg.Wallet,
		logger:   cfg.Logger,
		tracer:   otel.Tracer("msigwallet/multisig"),
	}, nil
}

// Attach returns a copy of c bound to wallet.
func (c *Client) Attach(wallet common.Address) *Client {
	clone := *c
	clone.wallet = wallet
	return &clone
}

// Wallet returns the attached wallet address.
func (c *Client) Wallet() (common.Address, bool) {
	return c.wallet, c.wallet != (common.Address{})
}

func (c *Client) Codec() *abicodec.Codec {
	return c.codec
}

// HasSigner reports whether write operations can be attempted at all.
func (c *Client) HasSigner() bool {
	return c.signer != nil
}

func (c *Client) reader(ctx context.Context) (Provider, error) {
	if c.provider == nil {
		return nil, ErrNoProvider
	}
	if err := c.checkNetwork(c.provider.ChainID(ctx)); err != nil {
		return nil, err
	}
	if c.wallet == (common.Address{}) {
		return nil, ErrNoWalletAddress
	}
	return c.provider, nil
}

func (c *Client) writer(ctx context.Context) (Signer, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	if c.provider == nil {
		return nil, ErrNoProvider
	}
	if err := c.checkNetwork(c.signer.ChainID(ctx)); err != nil {
		return nil, err
	}
	if c.wallet == (common.Address{}) {
		return nil, ErrNoWalletAddress
	}
	return c.signer, nil
}

func (c *Client) checkNetwork(chainID *big.Int, err error) error {
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	if _, ok := c.networks.Lookup(chainID); !ok {
		return fmt.Errorf("%w: chain id %s", ErrUnsupportedNetwork, chainID)
	}
	return nil
}

// ChainID returns the chain id of the connected provider after checking it
// is supported.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	if c.provider == nil {
		return 0, ErrNoProvider
	}
	chainID, err := c.provider.ChainID(ctx)
	if err := c.checkNetwork(chainID, err); err != nil {
		return 0, err
	}
	return chainID.Uint64(), nil
}

func (c *Client) Members(ctx context.Context) ([]common.Address, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Members(ctx, c.wallet)
}

func (c *Client) Required(ctx context.Context) (uint64, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return 0, err
	}
	return provider.Required(ctx, c.wallet)
}

// WalletConfig reads the owner set and threshold.
func (c *Client) WalletConfig(ctx context.Context) (domain.WalletConfig, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return domain.WalletConfig{}, err
	}
	members, err := provider.Members(ctx, c.wallet)
	if err != nil {
		return domain.WalletConfig{}, err
	}
	required, err := provider.Required(ctx, c.wallet)
	if err != nil {
		return domain.WalletConfig{}, err
	}
	return domain.WalletConfig{Members: members, Required: required}, nil
}

func (c *Client) IsOwner(ctx context.Context, account common.Address) (bool, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return false, err
	}
	return provider.IsOwner(ctx, c.wallet, account)
}

func (c *Client) TransactionCount(ctx context.Context) (uint64, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return 0, err
	}
	return provider.TransactionCount(ctx, c.wallet)
}

func (c *Client) Transaction(ctx context.Context, id *big.Int) (domain.Transaction, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	return provider.Transaction(ctx, c.wallet, id)
}

func (c *Client) TransactionsInRange(ctx context.Context, from, to uint64) ([]domain.Transaction, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return nil, err
	}
	return provider.TransactionsInRange(ctx, c.wallet, from, to)
}

func (c *Client) ConfirmationCount(ctx context.Context, id *big.Int) (uint64, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return 0, err
	}
	return provider.ConfirmationCount(ctx, c.wallet, id)
}

func (c *Client) Confirmations(ctx context.Context, id *big.Int) ([]common.Address, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Confirmations(ctx, c.wallet, id)
}

func (c *Client) TransactionCountInCondition(ctx context.Context, from, to uint64, pending, executed bool) (uint64, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return 0, err
	}
	return provider.TransactionCountInCondition(ctx, c.wallet, from, to, pending, executed)
}

func (c *Client) TransactionIDsInCondition(ctx context.Context, from, to uint64, pending, executed bool) ([]*big.Int, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return nil, err
	}
	return provider.TransactionIDsInCondition(ctx, c.wallet, from, to, pending, executed)
}

// Proposal reads one transaction and derives its status against the
// current threshold.
func (c *Client) Proposal(ctx context.Context, id *big.Int) (domain.Proposal, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return domain.Proposal{}, err
	}
	tx, err := provider.Transaction(ctx, c.wallet, id)
	if err != nil {
		return domain.Proposal{}, err
	}
	required, err := provider.Required(ctx, c.wallet)
	if err != nil {
		return domain.Proposal{}, err
	}
	return newProposal(tx, required), nil
}
