// Command transparencectl reads the evidence journal straight from the ledger.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/totegamma/transparence/internal/config"
)

var (
	version = "dev"

	outputFlag  string
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "transparencectl",
		Short:   "Inspect the Transparence evidence journal",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verboseFlag {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log skipped transactions")

	rootCmd.AddCommand(newJournalCmd(config.DefaultLedgerEndpoint, config.DefaultCountriesURL))
	rootCmd.AddCommand(newDecodeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
