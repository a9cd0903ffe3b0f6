package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "coinalert",
	Short: "coinalert - crypto price alerts from RSI, MA and MACD",
	Long: `coinalert watches a list of crypto assets, evaluates RSI, moving average
and MACD signals plus entry-price bands, and pushes one message per asset
to the configured notifiers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
