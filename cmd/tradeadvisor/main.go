// Package main is the entry point for tradeadvisor, a command-line advisor
// that scores held assets for an expected fall and walks the user through
// rebalancing them under a buying power constraint.
package main

import (
	"fmt"
	"os"

	"github.com/aristath/tradeadvisor/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if isSelectionError(err) {
			fmt.Fprintln(os.Stderr, "Invalid asset type selected.")
			os.Exit(2)
		}
		log := logger.New(logger.Config{Level: "info", Pretty: true})
		log.Error().Err(err).Msg("tradeadvisor failed")
		os.Exit(1)
	}
}
