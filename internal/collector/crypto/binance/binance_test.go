package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinance_Name(t *testing.T) {
	assert.Equal(t, "binance", New().Name())
}

func TestBinance_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"15m", "15m"},
		{"4h", "4h"},
		{"1d", "1d"},
		{"1w", "1w"},
		{"unknown", "1d"},
		{"", "1d"},
	}

	b := New()
	for _, tc := range tests {
		assert.Equal(t, tc.expected, b.toInterval(tc.input), tc.input)
	}
}

func TestBinance_FetchHistory(t *testing.T) {
	var gotSymbol, gotInterval string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		gotSymbol = r.URL.Query().Get("symbol")
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(`[
			[1704067200000, "42000.1", "42500.0", "41800.0", "42300.5", "1234.5", 1704153599999],
			[1704153600000, "42300.5", "43000.0", "42100.0", "42900.0", "987.0", 1704239999999],
			[1704240000000, "1", "1", "1", null, "1", 0],
			[1704326400000, "1"]
		]`))
	}))
	defer server.Close()

	b := NewWithBaseURL(server.URL)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	data, err := b.FetchHistory(context.Background(), "BTCUSDT", end.AddDate(0, 0, -2), end, "1d")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", gotSymbol)
	assert.Equal(t, "1d", gotInterval)

	require.Len(t, data, 2)
	assert.Equal(t, 42300.5, data[0].Close)
	assert.Equal(t, 42000.1, data[0].Open)
	assert.Equal(t, int64(1234), data[0].Volume)
	assert.Equal(t, 42900.0, data[1].Close)
	assert.Equal(t, time.UnixMilli(1704153600000), data[1].Time)
}

func TestBinance_FetchHistory_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	b := NewWithBaseURL(server.URL)
	_, err := b.FetchHistory(context.Background(), "NOPEUSDT", time.Now().AddDate(0, 0, -1), time.Now(), "1d")
	assert.ErrorContains(t, err, "400")
}

func TestBinance_FetchHistory_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWithBaseURL(server.URL).FetchHistory(ctx, "BTCUSDT", time.Now(), time.Now(), "1d")
	assert.ErrorIs(t, err, context.Canceled)
}
