package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"msigwallet/internal/infrastructure/telemetry"
	"msigwallet/internal/streaming"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConsumerMetrics is the subset of service metrics the consumer reports.
type ConsumerMetrics interface {
	IncKafkaFetchErr()
	IncKafkaDecodeErr()
	AddActivitiesStored(n int)
}

type ConsumerConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// Consumer moves activity messages from the topic into the journal. Offsets
// are committed only after the batch holding them has been stored.
type Consumer struct {
	source  MessageSource
	store   ActivityStore
	metrics ConsumerMetrics
	cfg     ConsumerConfig
	batch   *Batch
}

func NewConsumer(source MessageSource, store ActivityStore, metrics ConsumerMetrics, cfg ConsumerConfig) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	return &Consumer{
		source:  source,
		store:   store,
		metrics: metrics,
		cfg:     cfg,
		batch:   NewBatch(),
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	tracer := otel.Tracer("msigwallet/activity")
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FlushInterval)
		message, err := c.source.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				c.flush(context.WithoutCancel(ctx))
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				c.flush(ctx)
				continue
			}
			if c.metrics != nil {
				c.metrics.IncKafkaFetchErr()
			}
			slog.Error("kafka fetch error", "err", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		decoded, err := streaming.Decode(message.Value)
		if err != nil {
			slog.Warn("message decode error", "err", err, "offset", message.Offset)
			if c.metrics != nil {
				c.metrics.IncKafkaDecodeErr()
			}
			c.batch.Skip(message)
			continue
		}

		messageCtx := telemetry.ExtractKafkaHeaders(ctx, message)
		_, span := tracer.Start(messageCtx, "activity.consume", trace.WithSpanKind(trace.SpanKindConsumer))
		span.SetAttributes(
			attribute.String("message.type", string(decoded.Type)),
			attribute.Int64("chain.id", int64(decoded.ChainID)),
		)
		if decoded.Activity != nil {
			span.SetAttributes(attribute.String("activity.id", decoded.Activity.ID))
			c.batch.Add(*decoded.Activity, message)
		} else {
			c.batch.Skip(message)
		}
		span.End()

		if c.batch.Len() >= c.cfg.BatchSize {
			c.flush(ctx)
		}
	}
}

func (c *Consumer) flush(ctx context.Context) {
	if c.batch.Len() == 0 {
		return
	}
	stored := len(c.batch.activities)
	if err := c.batch.Flush(ctx, c.store, c.source); err != nil {
		slog.Error("batch flush error", "err", err)
		return
	}
	if c.metrics != nil {
		c.metrics.AddActivitiesStored(stored)
	}
}
