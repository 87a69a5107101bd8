package ethrpc

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Signer sends wallet transactions from a local private key.
type Signer struct {
	client  *Client
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex encoded secp256k1 key, with or without 0x.
func (c *Client) NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	return &Signer{client: c, key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) ChainID(ctx context.Context) (*big.Int, error) {
	return s.client.ChainID(ctx)
}

func (s *Signer) SubmitTransaction(ctx context.Context, wallet common.Address, title, description string, destination common.Address, value *big.Int, data []byte) (multisig.PendingTransaction, error) {
	if data == nil {
		data = []byte{}
	}
	return s.transact(ctx, wallet, "submitTransaction", title, description, destination, value, data)
}

func (s *Signer) ConfirmTransaction(ctx context.Context, wallet common.Address, id *big.Int) (multisig.PendingTransaction, error) {
	return s.transact(ctx, wallet, "confirmTransaction", id)
}

func (s *Signer) RevokeConfirmation(ctx context.Context, wallet common.Address, id *big.Int) (multisig.PendingTransaction, error) {
	return s.transact(ctx, wallet, "revokeConfirmation", id)
}

func (s *Signer) transact(ctx context.Context, wallet common.Address, method string, args ...any) (multisig.PendingTransaction, error) {
	ctx, span := s.client.tracer.Start(ctx, "ethrpc.transact", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("contract", wallet.Hex()),
		attribute.String("method", method),
		attribute.String("from", s.address.Hex()),
	)

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("chain id: %w", err))
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	opts.Context = ctx

	tx, err := s.client.contract(wallet).Transact(opts, method, args...)
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.String("tx.hash", tx.Hash().Hex()))
	s.client.logger.Debug("wallet transaction sent", "method", method, "wallet", wallet.Hex(), "tx_hash", tx.Hash().Hex())
	return &pendingTransaction{client: s.client, tx: tx}, nil
}

func (s *Signer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type pendingTransaction struct {
	client *Client
	tx     *types.Transaction
}

func (p *pendingTransaction) Hash() common.Hash {
	return p.tx.Hash()
}

// Wait polls for the receipt every RECEIPT_POLL_INTERVAL. Lookup errors
// other than "not found" are logged and retried until ctx ends, and the last
// one is joined to the context error.
func (p *pendingTransaction) Wait(ctx context.Context) (*types.Receipt, error) {
	ticker := time.NewTicker(p.client.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := p.client.backend.TransactionReceipt(ctx, p.tx.Hash())
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
		default:
			lastErr = err
			p.client.logger.Warn("receipt lookup error", "tx_hash", p.tx.Hash().Hex(), "err", err)
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, errors.Join(ctx.Err(), lastErr)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
