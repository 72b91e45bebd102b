// Command billingctl holds operator tools for the billing service: cycle
// arithmetic, webhook signing and schema migration.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "billingctl",
		Short:        "Operator tools for the billing service",
		SilenceUsage: true,
	}
	root.AddCommand(cycleCommand(), signCommand(), verifyCommand(), migrateCommand())
	return root
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
