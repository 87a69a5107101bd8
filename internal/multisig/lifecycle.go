package multisig

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/big"

	"msigwallet/internal/abicodec"
	"msigwallet/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Steps is the progress of one write operation. It yields a SENT step, then
// either a SUCCESS step or a terminal error. Broadcast errors are yielded
// unchanged before any step. Stopping the iteration early abandons the wait
// for the receipt; it does not retract a broadcast transaction.
type Steps = iter.Seq2[domain.Step, error]

// SubmitRequest describes a new multisig transaction.
type SubmitRequest struct {
	Title       string
	Description string
	Destination common.Address
	Value       *big.Int
	Data        []byte
}

type operation struct {
	kind  domain.Operation
	event string
	// failed is returned once the sequence ends without a SUCCESS step.
	failed error
	// executionFailure rejects receipts carrying an ExecutionFailure log.
	executionFailure bool
}

var (
	submitOperation = operation{
		kind:   domain.OperationSubmit,
		event:  "Submission",
		failed: ErrFailedSubmitTransaction,
	}
	confirmOperation = operation{
		kind:             domain.OperationConfirm,
		event:            "Confirmation",
		failed:           ErrFailedConfirmTransaction,
		executionFailure: true,
	}
	revokeOperation = operation{
		kind:   domain.OperationRevoke,
		event:  "Revocation",
		failed: ErrFailedRevokeTransaction,
	}
)

var errExecutionFailure = errors.New("wallet reported ExecutionFailure")

type sendFunc func(ctx context.Context, signer Signer) (PendingTransaction, error)

// SubmitTransaction proposes a new transaction. Each call broadcasts a new
// chain transaction; callers must not resend after a SENT step without
// checking whether the first one landed.
func (c *Client) SubmitTransaction(ctx context.Context, req SubmitRequest) (Steps, error) {
	signer, err := c.writer(ctx)
	if err != nil {
		return nil, err
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	return c.run(ctx, signer, submitOperation, func(ctx context.Context, signer Signer) (PendingTransaction, error) {
		return signer.SubmitTransaction(ctx, c.wallet, req.Title, req.Description, req.Destination, value, req.Data)
	}), nil
}

// ConfirmTransaction approves transaction id. The wallet may try to execute
// it in the same transaction; a reverted execution fails the confirmation
// even though the approval itself was recorded.
func (c *Client) ConfirmTransaction(ctx context.Context, id *big.Int) (Steps, error) {
	signer, err := c.writer(ctx)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, signer, confirmOperation, func(ctx context.Context, signer Signer) (PendingTransaction, error) {
		return signer.ConfirmTransaction(ctx, c.wallet, id)
	}), nil
}

// RevokeConfirmation withdraws the signer's approval of transaction id.
func (c *Client) RevokeConfirmation(ctx context.Context, id *big.Int) (Steps, error) {
	signer, err := c.writer(ctx)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, signer, revokeOperation, func(ctx context.Context, signer Signer) (PendingTransaction, error) {
		return signer.RevokeConfirmation(ctx, c.wallet, id)
	}), nil
}

func (c *Client) run(ctx context.Context, signer Signer, op operation, send sendFunc) Steps {
	logger := c.logger.With("op", op.kind, "wallet", c.wallet.Hex())
	return func(yield func(domain.Step, error) bool) {
		ctx, span := c.tracer.Start(ctx, "multisig."+string(op.kind), trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		span.SetAttributes(attribute.String("wallet", c.wallet.Hex()))

		pending, err := send(ctx, signer)
		if err != nil {
			logger.Warn("broadcast rejected", "err", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(domain.Step{}, err)
			return
		}
		hash := pending.Hash()
		span.SetAttributes(attribute.String("tx.hash", hash.Hex()))
		logger.Info("transaction broadcast", "tx_hash", hash.Hex())
		if !yield(domain.Step{Kind: domain.StepSent, TxHash: hash}, nil) {
			return
		}

		id, err := c.await(ctx, op, pending)
		if err != nil {
			err = fmt.Errorf("%w: %w", op.failed, err)
			logger.Warn("transaction failed", "tx_hash", hash.Hex(), "err", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(domain.Step{}, err)
			return
		}
		logger.Info("transaction confirmed", "tx_hash", hash.Hex(), "transaction_id", id.String())
		yield(domain.Step{Kind: domain.StepSuccess, TransactionID: id}, nil)
	}
}

func (c *Client) await(ctx context.Context, op operation, pending PendingTransaction) (*big.Int, error) {
	receipt, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, errors.New("empty receipt")
	}
	id, ok := c.codec.EventBigInt(abicodec.WalletInterface, op.event, "transactionId", c.wallet, receipt.Logs)
	if !ok {
		return nil, fmt.Errorf("no %s event in receipt (status %d)", op.event, receipt.Status)
	}
	if op.executionFailure {
		if _, failed := c.codec.FindLog(abicodec.WalletInterface, "ExecutionFailure", c.wallet, receipt.Logs); failed {
			return nil, errExecutionFailure
		}
	}
	return id, nil
}

// Drain runs steps to completion and returns every step seen together with
// the terminal error, if any.
func Drain(steps Steps) ([]domain.Step, error) {
	var seen []domain.Step
	for step, err := range steps {
		if err != nil {
			return seen, err
		}
		seen = append(seen, step)
	}
	return seen, nil
}
