package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/fatflowers/billing/pkg/cycle"
)

func cycleCommand() *cobra.Command {
	var (
		period   string
		interval int
	)
	cmd := &cobra.Command{
		Use:   "cycle <start>",
		Short: "Print the billing cycle that starts at <start>",
		Long: "Accepts epoch seconds, epoch milliseconds or the 17 digit ledger form.\n" +
			"Without --period only the normalized start is printed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cycle.Compute(args[0], period, interval)
			if !c.Valid() {
				return errors.New("unparseable start: " + args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "daily, weekly, monthly, quarterly or yearly")
	cmd.Flags().IntVar(&interval, "interval", 1, "number of periods per cycle")
	return cmd
}
