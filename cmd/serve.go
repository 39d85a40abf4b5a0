package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sara3/payments-mcp/internal/app"
	"github.com/Sara3/payments-mcp/internal/config"
	"github.com/Sara3/payments-mcp/pkg/logging"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath points at an optional YAML config file; environment
// variables override whatever it contains.
var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hosted MCP server with its login surface",
	Long: `Starts the payments-mcp host server.

The server exposes:
  /          login page (also /login)
  /auth/*    credential form submission and the optional OAuth flow
  /success   post-login page with the MCP endpoint URL
  /mcp       the MCP streamable HTTP endpoint (POST/GET/DELETE)

Configuration comes from an optional YAML file (--config) overlaid with
environment variables: PORT, MCP_HOST_PORT, MCP_HOST_HOST, MCP_BASE_PATH,
MCP_SESSION_SECRET, OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET, OAUTH_AUTH_URL,
OAUTH_TOKEN_URL, OAUTH_REDIRECT_URL.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if serveDebug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stdout)

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.NewApplication(cfg).Run(ctx)
}

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
}
