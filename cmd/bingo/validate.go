package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bingo-rules/bingo/internal/engine"
)

var validateGraph bool

var validateCmd = &cobra.Command{
	Use:   "validate <rules-file>",
	Short: "Validate a rule set and optionally print its compiled network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRules(args[0])
		if err != nil {
			return err
		}

		eng := engine.New(0)
		for _, r := range rules {
			if err := eng.AddRule(r); err != nil {
				return fmt.Errorf("bingo: rule %q: %w", r.Name, err)
			}
		}

		if validateGraph {
			fmt.Print(eng.DotGraph())
			return nil
		}

		fmt.Fprintf(os.Stdout, "%d rules compiled OK\n", len(rules))
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateGraph, "graph", false, "print the compiled alpha/beta network as Graphviz dot")
	rootCmd.AddCommand(validateCmd)
}
