package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snapshot-keeper/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRunCountsByResult(t *testing.T) {
	m := NewPipelineMetrics()
	finished := time.Unix(1_700_000_000, 0)

	m.ObserveRun(domain.Outcome{Success: true, FilteredSize: 17, FinishedAt: finished})
	m.ObserveRun(domain.Outcome{Success: false})
	m.ObserveRun(domain.Outcome{Success: true, Skipped: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.derivedEntries))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess))
}

func TestObserveStageAndHandler(t *testing.T) {
	m := NewPipelineMetrics()
	m.ObserveStage(domain.StageFetchRaw, 20*time.Millisecond, nil)
	m.ObserveStage(domain.StagePersistRaw, time.Millisecond, errors.New("conflict"))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `snapshot_pipeline_stage_duration_seconds_count{result="success",stage="fetch_raw"} 1`), body)
	assert.True(t, strings.Contains(body, `snapshot_pipeline_stage_duration_seconds_count{result="failed",stage="persist_raw"} 1`), body)
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveStage(domain.StageFilter, time.Second, nil)
	m.ObserveRun(domain.Outcome{Success: true})
}
