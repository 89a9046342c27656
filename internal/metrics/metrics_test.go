package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDocument(t *testing.T) {
	m := New()
	m.ObserveDocument("chunk", "by_pages", nil)
	m.ObserveDocument("chunk", "by_pages", nil)
	m.ObserveDocument("parse", "full_parse", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("chunk", "by_pages", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("parse", "full_parse", "error")))
}

func TestHandlerExposesInstruments(t *testing.T) {
	m := New()
	m.ObserveFallback("text_and_tables")
	m.ObserveStage("load", 20*time.Millisecond)
	m.SetQueueDepth(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, `docseg_parse_fallbacks_total{method="text_and_tables"} 1`)
	assert.Contains(t, out, `docseg_stage_duration_seconds_count{stage="load"} 1`)
	assert.Contains(t, out, "docseg_job_queue_depth 3")
}
