package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sara3/payments-mcp/internal/router"
)

const (
	initializeBody = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	toolCallBody   = `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_auth_status"}}`
)

// gateFixture wires a Gate in front of a recording handler.
type gateFixture struct {
	gate     *Gate
	tokens   *TokenStore
	sessions *SessionStore

	called  bool
	gotAuth AuthContext
	hadAuth bool
	gotBody string
	handler http.Handler
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	f := &gateFixture{
		tokens:   NewTokenStore(),
		sessions: NewSessionStore(false),
	}
	t.Cleanup(f.tokens.Stop)
	t.Cleanup(f.sessions.Stop)

	f.gate = &Gate{
		Tokens:       f.tokens,
		Sessions:     f.sessions,
		MCPPath:      "/mcp",
		LoginPath:    "/",
		LoginHTML:    "<html>login</html>",
		ExemptMethod: router.ExemptMethod,
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.called = true
		f.gotAuth, f.hadAuth = FromContext(r.Context())
		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			f.gotBody = string(body)
		}
		w.WriteHeader(http.StatusOK)
	})
	f.handler = f.gate.Middleware(next)
	return f
}

func TestGate_ValidBearerAuthorized(t *testing.T) {
	f := newGateFixture(t)

	ac := NewCredentialContext("a@b.com", "x", "", "", "")
	token, err := f.tokens.Issue(ac)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody))
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.called)
	require.True(t, f.hadAuth)
	assert.Equal(t, ac, f.gotAuth)
}

func TestGate_InvalidBearerFallsThrough(t *testing.T) {
	f := newGateFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody))
	r.Header.Set("Authorization", "Bearer bogus")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, f.called)
}

func TestGate_BrowserSessionAuthorized(t *testing.T) {
	f := newGateFixture(t)

	sw := httptest.NewRecorder()
	session := f.sessions.GetOrCreate(sw, httptest.NewRequest(http.MethodGet, "/", nil))
	ac := NewOAuthContext("at", "rt")
	session.SetAuth(ac)

	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody))
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.ID()})
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.hadAuth)
	assert.Equal(t, ac, f.gotAuth)
}

func TestGate_ExemptHandshakeWithoutIdentity(t *testing.T) {
	for _, body := range []string{
		initializeBody,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/list"}`,
	} {
		f := newGateFixture(t)

		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code, "body %s", body)
		require.True(t, f.called, "body %s", body)
		assert.False(t, f.hadAuth, "exempt requests carry no identity")
		// The sniffed body must be restored for the router.
		assert.Equal(t, body, f.gotBody)
	}
}

// oversizedBody builds a syntactically valid request whose size exceeds
// the gate's sniff window.
func oversizedBody(method string) string {
	pad := strings.Repeat("x", maxSniffBytes*2)
	return `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":{"pad":"` + pad + `"}}`
}

func TestGate_OversizedBodyNeverExempt(t *testing.T) {
	f := newGateFixture(t)

	// Even a handshake method is challenged once the body outgrows the
	// sniff window; the gate must not buffer arbitrarily much for an
	// unauthenticated caller.
	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(oversizedBody("initialize")))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, f.called)
}

func TestGate_OversizedBodyReachesRouterIntact(t *testing.T) {
	f := newGateFixture(t)

	ac := NewCredentialContext("a@b.com", "x", "", "", "")
	token, err := f.tokens.Issue(ac)
	require.NoError(t, err)

	body := oversizedBody("tools/call")
	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.called)
	// The sniff window plus the unread remainder splice back together.
	assert.Equal(t, body, f.gotBody)
}

func TestGate_InvocationWithoutIdentityIsChallenged(t *testing.T) {
	f := newGateFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody))
	r.Header.Set("Accept", "application/json")
	r.Host = "mcp.example.com"
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, f.called)

	var body struct {
		Error    string `json:"error"`
		LoginURL string `json:"loginUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body.Error)
	assert.Equal(t, "http://mcp.example.com/", body.LoginURL)
}

func TestGate_BrowserGETRedirects(t *testing.T) {
	f := newGateFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.False(t, f.called)
}

func TestGate_FallbackHTMLChallenge(t *testing.T) {
	f := newGateFixture(t)

	// A form submission to a non-protocol path with no session.
	r := httptest.NewRequest(http.MethodPost, "/other", strings.NewReader("a=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "<html>login</html>", w.Body.String())
}

func TestGate_ExternalHostInLoginURL(t *testing.T) {
	f := newGateFixture(t)
	f.gate.ExternalHost = "public.example.com"

	r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(toolCallBody))
	r.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)

	var body struct {
		LoginURL string `json:"loginUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://public.example.com/", body.LoginURL)
}
