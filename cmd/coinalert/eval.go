package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/newthinker/coinalert/internal/alert"
	"github.com/newthinker/coinalert/internal/app"
	"github.com/newthinker/coinalert/internal/config"
	"github.com/newthinker/coinalert/internal/core"
	"github.com/spf13/cobra"
)

var (
	evalSymbol string
	evalPrices string
	evalFile   string
	evalEntry  float64
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a price series offline and print the alert",
	Long: `eval runs the indicators and rules on prices given on the command line
or in a file (oldest first, separated by commas, spaces or newlines) and
prints the message that would be sent. Nothing is fetched or notified.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalSymbol, "symbol", "", "symbol shown in the message (required)")
	evalCmd.Flags().StringVar(&evalPrices, "prices", "", "comma separated closing prices, oldest first")
	evalCmd.Flags().StringVar(&evalFile, "file", "", "file with closing prices, oldest first")
	evalCmd.Flags().Float64Var(&evalEntry, "entry", 0, "entry price for the sell and stop loss bands")

	evalCmd.MarkFlagRequired("symbol")
	evalCmd.MarkFlagsMutuallyExclusive("prices", "file")
	evalCmd.MarkFlagsOneRequired("prices", "file")

	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg := config.Defaults()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	raw := evalPrices
	if evalFile != "" {
		data, err := os.ReadFile(evalFile)
		if err != nil {
			return fmt.Errorf("reading prices: %w", err)
		}
		raw = string(data)
	}
	prices, err := parsePrices(raw)
	if err != nil {
		return err
	}

	var entry *float64
	if cmd.Flags().Changed("entry") {
		entry = &evalEntry
	}

	out, err := app.Analyze(strings.ToUpper(evalSymbol), core.NewPriceSeries(prices), entry,
		cfg.Indicators, alert.NewEvaluator(cfg.Thresholds))
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", evalSymbol, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	return nil
}

// parsePrices splits on commas and whitespace.
func parsePrices(raw string) ([]float64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	prices := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("price %d (%q): %w", i+1, f, err)
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices given")
	}
	return prices, nil
}
