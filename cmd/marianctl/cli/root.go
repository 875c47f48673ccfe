package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marianctl",
	Short: "Operate a marian search service",
	Long: `marianctl talks to a running marian instance and its database.

  marianctl status            — print coordinator/pool status
  marianctl refresh            — trigger a manifest sync cycle
  marianctl keys create/revoke/list — manage API keys

Run 'marianctl <command> --help' for details on each command.`,
}

// Execute is the CLI entrypoint.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("url", "u", "http://localhost:8080", "base URL of the marian service")
	rootCmd.PersistentFlags().StringP("config", "c", "configs/development.yaml", "path to config file (used for direct-to-database commands)")
	rootCmd.PersistentFlags().String("api-key", "", "API key for protected endpoints")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(keysCmd)
}
