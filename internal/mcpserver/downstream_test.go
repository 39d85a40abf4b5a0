package mcpserver

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sara3/payments-mcp/internal/auth"
)

func TestDownstreamHeaders_EmailPassword(t *testing.T) {
	ac := auth.NewCredentialContext("a@b.com", "pw", "", "", "")
	headers := DownstreamHeaders(ac)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("a@b.com:pw"))
	assert.Equal(t, map[string]string{"Authorization": want}, headers)
}

func TestDownstreamHeaders_APIKeyWinsOverBasic(t *testing.T) {
	ac := auth.NewCredentialContext("a@b.com", "pw", "sk-test", "", "")
	headers := DownstreamHeaders(ac)

	assert.Equal(t, "sk-test", headers["X-Api-Key"])
	assert.NotContains(t, headers, "Authorization")
}

func TestDownstreamHeaders_ClientPair(t *testing.T) {
	ac := auth.NewCredentialContext("", "", "sk-test", "cid", "cs")
	headers := DownstreamHeaders(ac)

	assert.Equal(t, "cid", headers["X-Client-Id"])
	assert.Equal(t, "cs", headers["X-Client-Secret"])
}

func TestDownstreamHeaders_OAuth(t *testing.T) {
	ac := auth.NewOAuthContext("at-123", "rt-456")
	headers := DownstreamHeaders(ac)

	assert.Equal(t, map[string]string{"Authorization": "Bearer at-123"}, headers)
}

func TestDecorateRequest(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v1/payments", nil)
	require.NoError(t, err)

	DecorateRequest(req, auth.NewOAuthContext("at-123", ""))
	assert.Equal(t, "Bearer at-123", req.Header.Get("Authorization"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "[REDACTED]", redact("abcd"))
	assert.Equal(t, "[REDACTED]", redact(""))
	assert.Equal(t, "sk-t…[REDACTED]", redact("sk-test-12345"))
}
