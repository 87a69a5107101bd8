package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"msigwallet/internal/domain"

	"github.com/segmentio/kafka-go"
)

// Batch collects consumed activities until they are written to the journal
// and their offsets committed together.
type Batch struct {
	activities []domain.Activity
	messages   []kafka.Message
	minOffset  map[int]int64
	maxOffset  map[int]int64
}

func NewBatch() *Batch {
	return &Batch{
		minOffset: make(map[int]int64),
		maxOffset: make(map[int]int64),
	}
}

func (b *Batch) Add(activity domain.Activity, msg kafka.Message) {
	b.activities = append(b.activities, activity)
	b.Skip(msg)
}

// Skip tracks msg for commit without storing anything for it.
func (b *Batch) Skip(msg kafka.Message) {
	b.messages = append(b.messages, msg)

	partition := msg.Partition
	if low, ok := b.minOffset[partition]; !ok || msg.Offset < low {
		b.minOffset[partition] = msg.Offset
	}
	if high, ok := b.maxOffset[partition]; !ok || msg.Offset > high {
		b.maxOffset[partition] = msg.Offset
	}
}

func (b *Batch) Len() int {
	return len(b.messages)
}

func (b *Batch) Flush(ctx context.Context, store ActivityStore, committer Committer) error {
	if b.Len() == 0 {
		return nil
	}
	start := time.Now()

	if len(b.activities) > 0 {
		if err := store.StoreActivities(ctx, b.activities); err != nil {
			return fmt.Errorf("failed to store activities: %w", err)
		}
	}
	if err := committer.CommitMessages(ctx, b.messages...); err != nil {
		return fmt.Errorf("failed to commit kafka messages: %w", err)
	}

	slog.Info("flushed batch",
		"count", b.Len(),
		"activities", len(b.activities),
		"partitions", len(b.maxOffset),
		"duration", time.Since(start),
	)
	b.Reset()
	return nil
}

func (b *Batch) Reset() {
	b.activities = b.activities[:0]
	b.messages = b.messages[:0]
	clear(b.minOffset)
	clear(b.maxOffset)
}
