package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.turnsTotal)
	assert.NotNil(t, collector.turnDuration)
	assert.NotNil(t, collector.stageDuration)
	assert.NotNil(t, collector.llmRequestsTotal)
}

func TestCollector_RecordTurn(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTurn("complete", 120*time.Millisecond)
	collector.RecordTurn("complete", 80*time.Millisecond)
	collector.RecordTurn("error", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("error")))
}

func TestCollector_RecordTurnError(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTurnError("SYSTEM_ERROR")
	collector.RecordTurnError("SYSTEM_ERROR")
	collector.RecordTurnError("TIMEOUT")

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.turnErrors.WithLabelValues("SYSTEM_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.turnErrors.WithLabelValues("TIMEOUT")))
}

func TestCollector_RecordRouteAndWorkflow(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRoute("job_search", "job_discovery")
	collector.RecordWorkflowTask("completed")
	collector.RecordWorkflowTask("failed")
	collector.RecordCheckpointWrite("ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.routedIntents.WithLabelValues("job_search", "job_discovery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.workflowTasksTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.workflowTasksTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.checkpointWrites.WithLabelValues("ok")))
}
