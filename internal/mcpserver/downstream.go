package mcpserver

import (
	"encoding/base64"
	"net/http"

	"github.com/Sara3/payments-mcp/internal/auth"
)

// DownstreamHeaders builds the authorization headers for a downstream
// payment API call from the resolved AuthContext. This is the one place
// that branches on the context variant; both kinds are handled
// exhaustively here and nowhere else.
func DownstreamHeaders(ac auth.AuthContext) map[string]string {
	headers := make(map[string]string)

	switch ac.Kind {
	case auth.KindCredential:
		if ac.APIKey != "" {
			headers["X-Api-Key"] = ac.APIKey
		} else {
			basic := base64.StdEncoding.EncodeToString([]byte(ac.Email + ":" + ac.Password))
			headers["Authorization"] = "Basic " + basic
		}
		if ac.ClientID != "" {
			headers["X-Client-Id"] = ac.ClientID
		}
		if ac.ClientSecret != "" {
			headers["X-Client-Secret"] = ac.ClientSecret
		}

	case auth.KindOAuth:
		headers["Authorization"] = "Bearer " + ac.AccessToken
	}

	return headers
}

// DecorateRequest applies the downstream authorization headers to an
// outbound API request.
func DecorateRequest(req *http.Request, ac auth.AuthContext) {
	for name, value := range DownstreamHeaders(ac) {
		req.Header.Set(name, value)
	}
}
