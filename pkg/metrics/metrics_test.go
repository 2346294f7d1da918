package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordKafkaPublish(t *testing.T) {
	m := New(DefaultConfig("test"))

	m.RecordKafkaPublish("wms.export.allocation", "wms.export.allocation.shortage", true, 5*time.Millisecond)
	m.RecordKafkaPublish("wms.export.allocation", "wms.export.allocation.shortage", false, 5*time.Millisecond)

	success := m.KafkaEventsPublished.WithLabelValues("test", "wms.export.allocation", "wms.export.allocation.shortage", "success")
	failure := m.KafkaEventsPublished.WithLabelValues("test", "wms.export.allocation", "wms.export.allocation.shortage", "error")
	assert.Equal(t, float64(1), testutil.ToFloat64(success))
	assert.Equal(t, float64(1), testutil.ToFloat64(failure))
}

func TestRecordMongoDBOperation(t *testing.T) {
	m := New(DefaultConfig("test"))

	m.RecordMongoDBOperation("lots", "decrementOnHand", true, time.Millisecond)
	m.RecordMongoDBOperation("lots", "decrementOnHand", true, time.Millisecond)

	counter := m.MongoDBOperations.WithLabelValues("test", "lots", "decrementOnHand", "success")
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
}
