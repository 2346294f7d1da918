package kafka

import (
	"strings"
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "export-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1, // All replicas
	}
}

// Topics contains export service Kafka topic names
var Topics = struct {
	AllocationEvents  string
	ReservationEvents string
	OutboundEvents    string
	LotEvents         string
}{
	AllocationEvents:  "wms.export.allocation.events",
	ReservationEvents: "wms.export.reservation.events",
	OutboundEvents:    "wms.export.outbound.events",
	LotEvents:         "wms.export.lot.events",
}

// TopicForEventType maps a CloudEvent type to its destination topic
func TopicForEventType(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "wms.export.allocation."):
		return Topics.AllocationEvents
	case strings.HasPrefix(eventType, "wms.export.reservation."):
		return Topics.ReservationEvents
	case strings.HasPrefix(eventType, "wms.export.outbound."):
		return Topics.OutboundEvents
	default:
		return Topics.LotEvents
	}
}
