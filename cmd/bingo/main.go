// Command bingo is the CLI entry point for the rule engine: it loads a
// rule set and a batch of facts and runs them through internal/engine,
// following the way cmd/bd/main.go composes its cobra command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	rootCtx    context.Context
	rootCancel context.CancelFunc

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "bingo",
	Short: "bingo - a forward-chaining production rule engine",
	Long:  "bingo compiles rules into a RETE network and runs batches of facts through it.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a bingo config YAML file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if rootCancel != nil {
		rootCancel()
	}
}
