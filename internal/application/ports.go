package application

import (
	"context"

	"msigwallet/internal/domain"

	"github.com/segmentio/kafka-go"
)

// ActivitySink receives activity records as operations progress.
type ActivitySink interface {
	RecordActivity(ctx context.Context, activity domain.Activity) error
}

type ActivityStore interface {
	StoreActivities(ctx context.Context, activities []domain.Activity) error
}

type ActivityReader interface {
	QueryActivities(ctx context.Context, filter ActivityFilter) ([]domain.Activity, error)
}

type Committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageSource is the consumer side of the activity topic.
type MessageSource interface {
	Committer
	FetchMessage(ctx context.Context) (kafka.Message, error)
}
