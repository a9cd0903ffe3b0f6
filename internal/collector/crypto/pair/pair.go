// Package pair normalises crypto trading pair symbols.
package pair

import (
	"fmt"
	"regexp"
	"strings"
)

// Quote currencies in detection order. Stablecoins first so "BTCUSDT" is
// never read as "BTCUSD" + "T".
var quoteCurrencies = []string{"USDT", "BUSD", "USDC", "BTC", "ETH", "BNB"}

var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

var separators = strings.NewReplacer("-", "", "/", "", "_", "")

// Normalize converts "BTC", "btc-usdt", "BTC/USDT" or "btcusdt" to "BTCUSDT".
// A bare base gets defaultQuote appended.
func Normalize(input, defaultQuote string) string {
	if input == "" {
		return ""
	}
	s := separators.Replace(strings.ToUpper(input))

	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return s
		}
	}
	return s + strings.ToUpper(defaultQuote)
}

// Parse splits a normalized pair: "BTCUSDT" -> ("BTC", "USDT").
func Parse(symbol string) (base, quote string) {
	s := strings.ToUpper(symbol)

	for _, q := range quoteCurrencies {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	return s, ""
}

// Display renders "BTCUSDT" as "BTC/USDT".
func Display(symbol string) string {
	base, quote := Parse(symbol)
	if quote == "" {
		return base
	}
	return base + "/" + quote
}

// Validate rejects empty, oversized and non-alphanumeric symbols before they
// reach a provider URL.
func Validate(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 30 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(separators.Replace(symbol)) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}
