package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/coinalert/internal/collector/crypto/pair"
	"github.com/newthinker/coinalert/internal/core"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"
	maxDays = 365
)

// Symbol to CoinGecko ID mapping
var symbolToIDMap = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"XLM":   "stellar",
	"NEAR":  "near",
	"AAVE":  "aave",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"PEPE":  "pepe",
	"SHIB":  "shiba-inu",
	"FET":   "fetch-ai",
	"RNDR":  "render-token",
	"SUI":   "sui",
	"TON":   "the-open-network",
	"TRX":   "tron",
	"MATIC": "matic-network",
}

// CoinGecko implements the crypto Provider interface over market_chart.
type CoinGecko struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	vsCurrency string
	ids        map[string]string
}

// New creates a new CoinGecko provider
func New(apiKey string) *CoinGecko {
	return &CoinGecko{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		ids:     map[string]string{},
	}
}

// NewWithBaseURL creates a CoinGecko provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *CoinGecko {
	c := New(apiKey)
	c.baseURL = url
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

// SetIDs overrides the coin id for base symbols, e.g. {"PEPE": "pepe"}.
func (c *CoinGecko) SetIDs(ids map[string]string) {
	for sym, id := range ids {
		if id != "" {
			c.ids[strings.ToUpper(sym)] = id
		}
	}
}

// SetVsCurrency forces the quote currency instead of deriving it from the pair.
func (c *CoinGecko) SetVsCurrency(vs string) {
	c.vsCurrency = strings.ToLower(vs)
}

// SetTimeout sets the HTTP client timeout.
func (c *CoinGecko) SetTimeout(d time.Duration) {
	if d > 0 {
		c.client.Timeout = d
	}
}

// symbolToID converts trading pair to CoinGecko coin ID
func (c *CoinGecko) symbolToID(symbol string) string {
	base, _ := pair.Parse(symbol)
	if id, ok := c.ids[base]; ok {
		return id
	}
	if id, ok := symbolToIDMap[base]; ok {
		return id
	}
	return strings.ToLower(base)
}

// symbolToVsCurrency extracts the quote currency for CoinGecko API
func (c *CoinGecko) symbolToVsCurrency(symbol string) string {
	if c.vsCurrency != "" {
		return c.vsCurrency
	}
	_, quote := pair.Parse(symbol)
	switch quote {
	case "BTC":
		return "btc"
	case "ETH":
		return "eth"
	default:
		return "usd"
	}
}

type marketChart struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// FetchHistory fetches the price points between start and end. CoinGecko
// picks the granularity from the day count, so interval is only recorded.
func (c *CoinGecko) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	coinID := c.symbolToID(symbol)
	vsCurrency := c.symbolToVsCurrency(symbol)

	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	days = min(max(days, 1), maxDays)

	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("days", strconv.Itoa(days))
	if interval == "1d" {
		q.Set("interval", "daily")
	}
	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(coinID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var chart marketChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	volumes := make(map[int64]float64, len(chart.TotalVolumes))
	for _, v := range chart.TotalVolumes {
		if len(v) >= 2 {
			volumes[int64(v[0])] = v[1]
		}
	}

	data := make([]core.OHLCV, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 {
			continue
		}
		ts := int64(p[0])
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     p[1],
			High:     p[1],
			Low:      p[1],
			Close:    p[1],
			Volume:   int64(volumes[ts]),
			Time:     time.UnixMilli(ts),
		})
	}

	return data, nil
}
