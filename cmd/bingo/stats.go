package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsFactsPath string

var statsCmd = &cobra.Command{
	Use:   "stats <rules-file>",
	Short: "Run a facts batch and print the resulting engine statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := buildEngine(args[0])
		if err != nil {
			return err
		}

		data, err := readFactsInput(statsFactsPath)
		if err != nil {
			return err
		}
		facts, err := loadFacts(data)
		if err != nil {
			return err
		}

		if _, err := eng.ProcessFacts(rootCtx, facts); err != nil {
			return fmt.Errorf("bingo: process facts: %w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(eng.GetStats())
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFactsPath, "facts", "", "path to a JSON facts batch file (default: stdin)")
	rootCmd.AddCommand(statsCmd)
}
