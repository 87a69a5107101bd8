package telemetry

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// KafkaHeaders adapts kafka message headers to a propagation carrier. Keys
// compare case-insensitively.
type KafkaHeaders struct {
	Headers []kafka.Header
}

func (c *KafkaHeaders) Get(key string) string {
	for _, header := range c.Headers {
		if strings.EqualFold(header.Key, key) {
			return string(header.Value)
		}
	}
	return ""
}

func (c *KafkaHeaders) Set(key, value string) {
	for i := range c.Headers {
		if strings.EqualFold(c.Headers[i].Key, key) {
			c.Headers[i].Value = []byte(value)
			return
		}
	}
	c.Headers = append(c.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *KafkaHeaders) Keys() []string {
	keys := make([]string, 0, len(c.Headers))
	for _, header := range c.Headers {
		keys = append(keys, header.Key)
	}
	return keys
}

// InjectKafkaHeaders writes the trace context of ctx into msg's headers.
func InjectKafkaHeaders(ctx context.Context, msg *kafka.Message) {
	carrier := &KafkaHeaders{Headers: msg.Headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	msg.Headers = carrier.Headers
}

// ExtractKafkaHeaders returns ctx joined to the trace carried by msg.
func ExtractKafkaHeaders(ctx context.Context, msg kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &KafkaHeaders{Headers: msg.Headers})
}
