package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func scrape(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:54321"
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func requestCount(t *testing.T, reg *Registry, path, status string) float64 {
	t.Helper()
	mf := family(t, reg, "http_requests_total")
	if mf == nil {
		return 0
	}
	for _, m := range mf.GetMetric() {
		if labelValue(m, "path") == path && labelValue(m, "status") == status {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestHandler_ServesScrape(t *testing.T) {
	reg := NewRegistry()
	reg.RecordCycle(1.5, 1700000000)
	h := newHandler(reg, "/metrics", zap.NewNop())

	w := scrape(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "coinalert_cycles_total 1")

	// the scrape is counted once it completes
	assert.Equal(t, 1.0, requestCount(t, reg, "/metrics", "2xx"))

	scrape(t, h, "/metrics", nil)
	assert.Equal(t, 2.0, requestCount(t, reg, "/metrics", "2xx"))
}

func TestHandler_UnknownPathIsCounted404(t *testing.T) {
	reg := NewRegistry()
	h := newHandler(reg, "/metrics", zap.NewNop())

	w := scrape(t, h, "/debug", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, requestCount(t, reg, "/debug", "4xx"))
}

func TestHandler_InFlightReturnsToZero(t *testing.T) {
	reg := NewRegistry()
	h := newHandler(reg, "/metrics", zap.NewNop())

	scrape(t, h, "/metrics", nil)

	mf := family(t, reg, "http_requests_in_flight")
	require.NotNil(t, mf)
	assert.Equal(t, 0.0, mf.GetMetric()[0].GetGauge().GetValue())
}

func TestHandler_LogsScrape(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := newHandler(NewRegistry(), "/metrics", zap.New(core))

	w := scrape(t, h, "/metrics", nil)

	requestID := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, requestID, fields["request_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/metrics", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	assert.Contains(t, fields, "duration_ms")
	assert.Equal(t, "10.0.0.1:54321", fields["client_ip"])
}

func TestHandler_LogsForwardedClientAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := newHandler(NewRegistry(), "/metrics", zap.New(core))

	w := scrape(t, h, "/metrics", http.Header{
		"X-Forwarded-For": {"203.0.113.50, 10.0.0.2"},
		"X-Request-Id":    {"scraper-42"},
	})

	assert.Equal(t, "scraper-42", w.Header().Get("X-Request-ID"))
	fields := logs.FilterMessage("http request").All()[0].ContextMap()
	assert.Equal(t, "scraper-42", fields["request_id"])
	assert.Equal(t, "203.0.113.50", fields["client_ip"])
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, NewRegistry(), "127.0.0.1:0", "/metrics", nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_BadAddress(t *testing.T) {
	err := Serve(context.Background(), NewRegistry(), "127.0.0.1:-1", "/metrics", nil)
	assert.Error(t, err)
}
