package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"msigwallet/internal/domain"
	"msigwallet/internal/infrastructure/telemetry"
	"msigwallet/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes activity records to a single topic keyed by wallet, so
// the records of one wallet stay ordered within a partition.
type Producer struct {
	writer messageWriter
	topic  string
}

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = "msigwallet-activity"
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, topic: cfg.Topic}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) RecordActivity(ctx context.Context, activity domain.Activity) error {
	return p.PublishActivities(ctx, []domain.Activity{activity})
}

func (p *Producer) PublishActivities(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	tracer := otel.Tracer("msigwallet/kafka")
	messages := make([]kafka.Message, 0, len(activities))
	spans := make([]trace.Span, 0, len(activities))
	endAll := func(err error) {
		for _, span := range spans {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}
	}

	for i := range activities {
		activity := activities[i]
		spanCtx, span := tracer.Start(ctx, "activity.publish", trace.WithSpanKind(trace.SpanKindProducer))
		span.SetAttributes(
			attribute.Int64("chain.id", int64(activity.ChainID)),
			attribute.String("wallet", activity.Wallet),
			attribute.String("activity.step", activity.Step),
		)
		spans = append(spans, span)

		payload, err := streaming.Encode(streaming.Message{
			Type:     streaming.MessageTypeActivity,
			ChainID:  activity.ChainID,
			TraceID:  telemetry.TraceID(spanCtx),
			Activity: &activity,
		})
		if err != nil {
			endAll(err)
			return err
		}
		msg := kafka.Message{
			Key:   []byte(strings.ToLower(activity.Wallet)),
			Value: payload,
		}
		telemetry.InjectKafkaHeaders(spanCtx, &msg)
		messages = append(messages, msg)
	}

	err := p.writer.WriteMessages(ctx, messages...)
	endAll(err)
	return err
}

// NewReader opens a consumer-group reader on the activity topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
