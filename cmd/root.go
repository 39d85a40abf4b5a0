package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the payments-mcp host server.
var rootCmd = &cobra.Command{
	Use:   "payments-mcp",
	Short: "Hosted MCP server for payments tools with a browser login",
	Long: `payments-mcp serves payment tools over the MCP streamable HTTP
transport. Users opening the server URL in a browser get a login page; after
signing in, MCP clients authenticate either with the browser session
cookie or with the bearer token shown on the success page.`,
	// SilenceUsage prevents cobra from printing usage on errors the
	// application already reports.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main with
// the build-injected version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point for the CLI.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "payments-mcp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
