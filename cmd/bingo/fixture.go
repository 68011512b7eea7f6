package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/value"
)

var fixtureCount int

// fixtureCmd generates a sample facts batch for exercising a rule set
// without hand-writing one, assigning each generated fact a random
// external id the way a real upstream system would.
var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Generate a sample facts batch with random external ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		facts := make([]fact.Fact, fixtureCount)
		for i := range facts {
			facts[i] = fact.Fact{
				ExternalID: uuid.NewString(),
				Timestamp:  now,
				Fields: map[string]value.Value{
					"index": value.Int(int64(i)),
				},
			}
		}
		return json.NewEncoder(os.Stdout).Encode(facts)
	},
}

func init() {
	fixtureCmd.Flags().IntVar(&fixtureCount, "count", 10, "number of facts to generate")
	rootCmd.AddCommand(fixtureCmd)
}
