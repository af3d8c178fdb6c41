package tracing

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceparentHeader is the Kafka header key carrying W3C trace context.
// Outbox rows that captured a traceparent at write time set it directly;
// everything else goes through InjectKafkaHeaders.
const TraceparentHeader = "traceparent"

// InjectKafkaHeaders appends the active span context to headers so
// consumers can continue the trace across the broker.
func InjectKafkaHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
