package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, reg *Registry, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs, "go runtime metrics are always present")
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("GET", "/metrics", tt.status, 0.01)

			mf := family(t, reg, "http_requests_total")
			require.NotNil(t, mf)
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, tt.expected, labelValue(mf.GetMetric()[0], "status"))
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	mf := family(t, reg, "http_requests_in_flight")
	require.NotNil(t, mf)
	assert.Equal(t, float64(1), mf.GetMetric()[0].GetGauge().GetValue())
}

func TestRegistry_RecordCycle(t *testing.T) {
	reg := NewRegistry()

	reg.RecordCycle(1.5, 1700000000)

	cycles := family(t, reg, "coinalert_cycles_total")
	require.NotNil(t, cycles)
	assert.Equal(t, float64(1), cycles.GetMetric()[0].GetCounter().GetValue())

	dur := family(t, reg, "coinalert_cycle_duration_seconds")
	require.NotNil(t, dur)
	assert.Equal(t, uint64(1), dur.GetMetric()[0].GetHistogram().GetSampleCount())

	last := family(t, reg, "coinalert_last_cycle_timestamp_seconds")
	require.NotNil(t, last)
	assert.Equal(t, float64(1700000000), last.GetMetric()[0].GetGauge().GetValue())
}

func TestRegistry_RecordEvaluation(t *testing.T) {
	reg := NewRegistry()

	reg.RecordEvaluation("BTC", "BUY", []string{"bullish crossover", "breakout"})
	reg.RecordEvaluation("ETH", "BUY", []string{"breakout"})

	evals := family(t, reg, "coinalert_evaluations_total")
	require.NotNil(t, evals)
	assert.Len(t, evals.GetMetric(), 2)

	reasons := family(t, reg, "coinalert_reasons_total")
	require.NotNil(t, reasons)
	counts := map[string]float64{}
	for _, m := range reasons.GetMetric() {
		counts[labelValue(m, "reason")] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"bullish crossover": 1, "breakout": 2}, counts)
}

func TestRegistry_SkipsDeliveriesFetches(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSkip("no_data")
	reg.RecordSkip("no_data")
	reg.RecordDelivery("telegram", "success")
	reg.RecordFetch("coingecko", "error")
	reg.RecordFallback()
	reg.SetWatchlistSize(3)

	skips := family(t, reg, "coinalert_skips_total")
	require.NotNil(t, skips)
	assert.Equal(t, "no_data", labelValue(skips.GetMetric()[0], "cause"))
	assert.Equal(t, float64(2), skips.GetMetric()[0].GetCounter().GetValue())

	assert.NotNil(t, family(t, reg, "coinalert_deliveries_total"))
	assert.NotNil(t, family(t, reg, "coinalert_fetches_total"))
	assert.NotNil(t, family(t, reg, "coinalert_fallbacks_total"))

	size := family(t, reg, "coinalert_watchlist_symbols")
	require.NotNil(t, size)
	assert.Equal(t, float64(3), size.GetMetric()[0].GetGauge().GetValue())
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.RecordSkip("invalid_price")

	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, string(body), `coinalert_skips_total{cause="invalid_price"} 1`)
}

func TestRegistry_ImplementsGatherer(t *testing.T) {
	var _ prometheus.Gatherer = NewRegistry()
}
