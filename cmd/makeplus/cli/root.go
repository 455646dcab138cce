package cli

import (
	"github.com/spf13/cobra"
)

// appVersion is set in Execute and reported by the API document and MCP
// server.
var appVersion string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	return newRootCmd(version, commit, date).Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "makeplus",
		Short: "Backend API for the Makeplus website",
		Long: `Makeplus serves the public content of the Makeplus website (statistics,
videos, partners), receives contact form submissions and exposes the
authenticated admin API used by the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./makeplus.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "development mode (debug logging, development environment)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd(opts))
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}
