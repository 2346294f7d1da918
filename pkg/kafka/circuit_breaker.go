package kafka

import (
	"context"
	"time"

	"github.com/wms-platform/export-service/pkg/cloudevents"
	"github.com/wms-platform/export-service/pkg/logging"
	"github.com/wms-platform/export-service/pkg/metrics"
	"github.com/wms-platform/export-service/pkg/resilience"
)

// CircuitBreakerProducer wraps a Producer with circuit breaker protection so
// a broker outage degrades into fast failures instead of piling up blocked
// publishes. The outbox retries anything that fails here.
type CircuitBreakerProducer struct {
	producer       *Producer
	circuitBreaker *resilience.CircuitBreaker
	metrics        *metrics.Metrics
}

// NewCircuitBreakerProducer creates a circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer *Producer, logger *logging.Logger, m *metrics.Metrics) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	cb := resilience.NewCircuitBreaker(config, logger)

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: cb,
		metrics:        m,
	}
}

// PublishEvent publishes a CloudEvent through the circuit breaker
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	start := time.Now()
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, time.Since(start))
		p.metrics.SetCircuitBreakerState(p.circuitBreaker.Name(), int(p.circuitBreaker.State()))
	}
	return err
}

// PublishBatch publishes multiple events through the circuit breaker
func (p *CircuitBreakerProducer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.WMSCloudEvent) error {
	start := time.Now()
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishBatch(ctx, topic, events)
	})
	if p.metrics != nil {
		duration := time.Since(start)
		for _, event := range events {
			p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, duration)
		}
		p.metrics.SetCircuitBreakerState(p.circuitBreaker.Name(), int(p.circuitBreaker.State()))
	}
	return err
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}
