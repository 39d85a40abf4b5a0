package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

// Outcome is the Gate's classification of one inbound request.
type Outcome int

const (
	// OutcomeAuthorized means a valid bearer credential or browser session
	// identified the caller; the AuthContext is attached to the request.
	OutcomeAuthorized Outcome = iota
	// OutcomeExempt means the request may proceed without identity
	// (connectivity-probe protocol methods).
	OutcomeExempt
	// OutcomeChallengeRedirect answers with a 302 to the login page.
	OutcomeChallengeRedirect
	// OutcomeChallengeJSON answers 401 with a machine-readable body
	// containing an absolute login URL.
	OutcomeChallengeJSON
	// OutcomeChallengeHTML answers 401 with the login page markup.
	OutcomeChallengeHTML
)

// Gate classifies every inbound request before it reaches the session
// router: proceed (with or without identity), redirect to the login
// surface, or terminate with a 401. It consults the bearer credential
// store first, then the cookie-backed browser session. No state is mutated
// on the challenge paths.
type Gate struct {
	// Tokens resolves Authorization: Bearer headers.
	Tokens *TokenStore
	// Sessions resolves the browser session cookie.
	Sessions *SessionStore

	// MCPPath is the full protocol endpoint path (base path included).
	MCPPath string
	// LoginPath is the relative redirect target for browser challenges.
	LoginPath string
	// LoginHTML is the login page markup served on HTML challenges.
	LoginHTML string
	// ExternalHost, when set, overrides the request host in the absolute
	// login URL embedded in JSON challenges.
	ExternalHost string

	// ExemptMethod reports whether a decoded protocol request body is on
	// the unauthenticated allow-list. The router owns the protocol payload
	// shape, so the predicate is injected rather than implemented here.
	ExemptMethod func(body []byte) bool
}

// challengeBody is the 401 payload for non-browser clients.
type challengeBody struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	LoginURL string `json:"loginUrl"`
}

const challengeMessage = "Sign in first: open the login URL below and enter your credentials. " +
	"After signing in, paste the bearer token from the success page into your MCP client if it asks for auth."

// maxSniffBytes bounds how much of a protocol body the gate buffers for
// the exempt-method check, so an unauthenticated caller cannot make the
// gate hold an arbitrarily large body in memory. Exempt methods have
// small bodies; a body the window cannot hold is classified as not
// exempt. The full body still reaches the router intact either way.
const maxSniffBytes = 8 << 10

// sniffedBody re-prefixes the buffered sniff window onto the unread
// remainder of the request body.
type sniffedBody struct {
	io.Reader
	io.Closer
}

// Middleware wraps next with the authentication gate. Requests classified
// Authorized carry their AuthContext in the request context; Exempt
// requests proceed without one; every other classification terminates the
// request here.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The exempt check needs the decoded method; buffer a bounded
		// window of the body and splice it back for the router.
		var body []byte
		if r.Method == http.MethodPost && r.URL.Path == g.MCPPath && r.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(r.Body, maxSniffBytes))
			r.Body = sniffedBody{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
		}

		outcome, ac := g.classify(r, body)
		switch outcome {
		case OutcomeAuthorized:
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ac)))

		case OutcomeExempt:
			next.ServeHTTP(w, r)

		case OutcomeChallengeRedirect:
			logging.Debug("Auth", "Redirecting unauthenticated browser request to login")
			http.Redirect(w, r, g.LoginPath, http.StatusFound)

		case OutcomeChallengeJSON:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(challengeBody{
				Error:    "Unauthorized",
				Message:  challengeMessage,
				LoginURL: g.loginURL(r),
			})

		case OutcomeChallengeHTML:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, g.LoginHTML)
		}
	})
}

// classify evaluates the decision ladder in order, first match wins.
func (g *Gate) classify(r *http.Request, body []byte) (Outcome, AuthContext) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		if ac, valid := g.Tokens.Validate(token); valid {
			return OutcomeAuthorized, ac
		}
	}

	if session := g.Sessions.Get(r); session != nil {
		if ac, ok := session.Auth(); ok {
			return OutcomeAuthorized, ac
		}
	}

	if r.Method == http.MethodPost && r.URL.Path == g.MCPPath &&
		g.ExemptMethod != nil && g.ExemptMethod(body) {
		return OutcomeExempt, AuthContext{}
	}

	if r.Method == http.MethodGet && r.URL.Path == g.MCPPath {
		return OutcomeChallengeRedirect, AuthContext{}
	}

	if g.wantsJSON(r) {
		return OutcomeChallengeJSON, AuthContext{}
	}

	return OutcomeChallengeHTML, AuthContext{}
}

// wantsJSON reports whether the caller expects a structured response: it
// targeted the protocol endpoint, or its Accept/Content-Type headers name
// JSON.
func (g *Gate) wantsJSON(r *http.Request) bool {
	if r.URL.Path == g.MCPPath {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// loginURL builds the absolute login URL surfaced in JSON challenges.
func (g *Gate) loginURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	host := g.ExternalHost
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + g.LoginPath
}

// bearerToken extracts a token from an Authorization header. The second
// return is false when the header is absent or not a bearer scheme.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return token, token != ""
}
