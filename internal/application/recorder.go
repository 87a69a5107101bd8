package application

import (
	"context"
	"log/slog"
	"time"

	"msigwallet/internal/domain"
	"msigwallet/internal/multisig"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// ActivityMeta identifies the operation a step sequence belongs to.
type ActivityMeta struct {
	ChainID   uint64
	Wallet    common.Address
	Operation domain.Operation
}

// Recorder copies every step of an operation into the configured sinks.
// Sink failures are logged and never reach the caller of the operation.
type Recorder struct {
	sinks  []ActivitySink
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewRecorder(logger *slog.Logger, sinks ...ActivitySink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	filtered := make([]ActivitySink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return &Recorder{
		sinks:  filtered,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Track returns steps unchanged while recording one activity per step and
// one for a terminal error. A failure after SENT carries the sent hash.
func (r *Recorder) Track(ctx context.Context, meta ActivityMeta, steps multisig.Steps) multisig.Steps {
	return func(yield func(domain.Step, error) bool) {
		var sent common.Hash
		for step, err := range steps {
			if step.TxHash != (common.Hash{}) {
				sent = step.TxHash
			}
			activity := r.activity(meta, step, err)
			if err != nil && activity.TxHash == "" && sent != (common.Hash{}) {
				activity.TxHash = sent.Hex()
			}
			r.record(ctx, activity)
			if !yield(step, err) {
				return
			}
		}
	}
}

func (r *Recorder) activity(meta ActivityMeta, step domain.Step, err error) domain.Activity {
	activity := domain.Activity{
		ID:        r.newID(),
		ChainID:   meta.ChainID,
		Wallet:    meta.Wallet.Hex(),
		Operation: meta.Operation,
		Step:      string(step.Kind),
		CreatedAt: r.now().UTC(),
	}
	if err != nil {
		activity.Step = domain.ActivityStepFailed
		activity.Error = err.Error()
	}
	if step.TxHash != (common.Hash{}) {
		activity.TxHash = step.TxHash.Hex()
	}
	if step.TransactionID != nil {
		activity.TransactionID = step.TransactionID.String()
	}
	return activity
}

func (r *Recorder) record(ctx context.Context, activity domain.Activity) {
	r.logger.Info("wallet activity",
		"op", activity.Operation,
		"wallet", activity.Wallet,
		"step", activity.Step,
		"tx_hash", activity.TxHash,
		"transaction_id", activity.TransactionID,
	)
	if len(r.sinks) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, sink := range r.sinks {
		if err := sink.RecordActivity(ctx, activity); err != nil {
			r.logger.Warn("activity sink error", "id", activity.ID, "err", err)
		}
	}
}
