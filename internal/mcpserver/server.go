package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Sara3/payments-mcp/internal/auth"
)

const (
	serverName    = "payments-mcp"
	serverVersion = "1.0.0"
)

// New constructs the MCP server instance bound to one transport session.
// Every session gets its own instance from this factory; the instance
// resolves the caller's identity from the request context the auth gate
// populated.
func New() *server.MCPServer {
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	registerTools(srv)

	return srv
}

// registerTools registers all MCP tools.
func registerTools(srv *server.MCPServer) {
	authStatusTool := mcp.NewTool("get_auth_status",
		mcp.WithDescription("Check whether the current session is authenticated and what auth method is in use"),
	)
	srv.AddTool(authStatusTool, handleAuthStatus)

	paymentContextTool := mcp.NewTool("get_payment_context",
		mcp.WithDescription("Show which credential variant authorizes downstream payment API calls (secrets redacted)"),
	)
	srv.AddTool(paymentContextTool, handlePaymentContext)
}

func handleAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ac, ok := auth.FromContext(ctx)
	if !ok {
		return mcp.NewToolResultText(
			"Not signed in. Open the MCP server URL in a browser and enter your credentials.",
		), nil
	}

	age := time.Since(ac.LoggedAt).Round(time.Second)
	return mcp.NewToolResultText(
		fmt.Sprintf("Signed in via %s. Session age: %s.", ac.Kind, age),
	), nil
}

func handlePaymentContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ac, ok := auth.FromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("not signed in: no payment credentials available"), nil
	}

	summary := map[string]string{
		"variant": string(ac.Kind),
	}
	for name, value := range DownstreamHeaders(ac) {
		summary[name] = redact(value)
	}

	jsonData, err := json.Marshal(summary)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format payment context: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// redact keeps a short prefix of a secret for recognizability and masks
// the rest.
func redact(value string) string {
	const keep = 4
	if len(value) <= keep {
		return "[REDACTED]"
	}
	return value[:keep] + "…[REDACTED]"
}
