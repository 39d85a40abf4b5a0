package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sara3/payments-mcp/internal/auth"
)

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleAuthStatus_Unauthenticated(t *testing.T) {
	result, err := handleAuthStatus(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textContent(t, result), "Not signed in")
}

func TestHandleAuthStatus_Authenticated(t *testing.T) {
	ac := auth.NewCredentialContext("a@b.com", "pw", "", "", "")
	ctx := auth.WithContext(context.Background(), ac)

	result, err := handleAuthStatus(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "Signed in via credential")
}

func TestHandlePaymentContext_Unauthenticated(t *testing.T) {
	result, err := handlePaymentContext(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandlePaymentContext_RedactsSecrets(t *testing.T) {
	ac := auth.NewOAuthContext("at-super-secret-value", "rt")
	ctx := auth.WithContext(context.Background(), ac)

	result, err := handlePaymentContext(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var summary map[string]string
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &summary))
	assert.Equal(t, "oauth", summary["variant"])
	assert.Contains(t, summary["Authorization"], "[REDACTED]")
	assert.NotContains(t, summary["Authorization"], "at-super-secret-value")
}

func TestNewRegistersTools(t *testing.T) {
	srv := New()
	require.NotNil(t, srv)

	// The session-scoped instance must answer tools/list with both tools.
	raw := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	response := srv.HandleMessage(context.Background(), raw)
	require.NotNil(t, response)

	data, err := json.Marshal(response)
	require.NoError(t, err)
	assert.Contains(t, string(data), "get_auth_status")
	assert.Contains(t, string(data), "get_payment_context")
}
