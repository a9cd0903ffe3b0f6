package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newthinker/coinalert/internal/core"
)

const (
	baseURL = "https://api.binance.com"
	// klines returns at most this many bars per request
	maxLimit = 1000
)

// Binance implements the crypto Provider interface for Binance spot klines
type Binance struct {
	client  *http.Client
	baseURL string
}

// New creates a new Binance provider
func New() *Binance {
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates a Binance provider with custom base URL (for testing)
func NewWithBaseURL(url string) *Binance {
	b := New()
	b.baseURL = url
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

// SetTimeout sets the HTTP client timeout.
func (b *Binance) SetTimeout(d time.Duration) {
	if d > 0 {
		b.client.Timeout = d
	}
}

// FetchHistory fetches klines for a normalized pair such as BTCUSDT
func (b *Binance) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", b.toInterval(interval))
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(maxLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/v3/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// [[openTime, "open", "high", "low", "close", "volume", closeTime, ...], ...]
	var klines [][]any
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	data := make([]core.OHLCV, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}

		openTime, _ := k[0].(float64)
		close, err := parseField(k[4])
		if err != nil {
			// a bar without a close is useless to the indicators
			continue
		}
		open, _ := parseField(k[1])
		high, _ := parseField(k[2])
		low, _ := parseField(k[3])
		volume, _ := parseField(k[5])

		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    close,
			Volume:   int64(volume),
			Time:     time.UnixMilli(int64(openTime)),
		})
	}

	return data, nil
}

func parseField(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected kline field %T", v)
	}
	return strconv.ParseFloat(s, 64)
}

func (b *Binance) toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m", "1h", "2h", "4h", "1d", "1w":
		return interval
	default:
		return "1d"
	}
}
