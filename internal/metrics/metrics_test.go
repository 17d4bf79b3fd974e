package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-goals-backend/internal/logging"
)

func TestObserveOp(t *testing.T) {
	m := New()

	m.ObserveOp("toggle", nil)
	m.ObserveOp("toggle", nil)
	m.ObserveOp("toggle", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GoalOps.WithLabelValues("toggle", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GoalOps.WithLabelValues("toggle", "error")))
}

func TestObserveOp_NilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveOp("add", nil) })
}

func TestInstrument(t *testing.T) {
	m := New()

	h := m.Instrument("GET /goals", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no goal", http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/goals", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET /goals", "GET", "404")))
}

func TestInstrument_ImplicitOKAndNesting(t *testing.T) {
	m := New()

	inner := m.Instrument("GET /health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	h := logging.Middleware(zerolog.Nop(), inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET /health", "GET", "200")))
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.ObserveOp("add", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `goals_service_operations_total{op="add",result="ok"} 1`)
}
