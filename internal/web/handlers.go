package web

import (
	"net/http"
	"strings"

	"github.com/Sara3/payments-mcp/internal/auth"
	"github.com/Sara3/payments-mcp/internal/oauth"
	"github.com/Sara3/payments-mcp/pkg/logging"
)

// Handler serves the login surface: the login and success pages, the
// credential form submission, and the delegated OAuth flow.
type Handler struct {
	Sessions *auth.SessionStore
	Tokens   *auth.TokenStore
	OAuth    *oauth.Client
	States   *oauth.StateStore

	// BasePath is the optional path prefix the server is mounted under.
	BasePath string
	// ExternalHost overrides the request host when building the MCP
	// endpoint URL shown on the success page.
	ExternalHost string
}

// Register mounts the browser routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	bp := h.BasePath
	mux.HandleFunc("GET "+bp+"/{$}", h.handleLoginPage)
	mux.HandleFunc("GET "+bp+"/login", h.handleLoginPage)
	mux.HandleFunc("POST "+bp+"/auth/login", h.handleFormLogin)
	mux.HandleFunc("GET "+bp+"/auth/oauth", h.handleOAuthStart)
	mux.HandleFunc("GET "+bp+"/auth/callback", h.handleOAuthCallback)
	mux.HandleFunc("GET "+bp+"/success", h.handleSuccess)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, LoginPage(h.BasePath, ""))
}

// handleFormLogin accepts either an email/username and password pair or an
// API key (with optional client id/secret). The values are never validated
// locally; they are forwarded to the downstream API on tool calls.
func (h *Handler) handleFormLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeHTML(w, http.StatusBadRequest, LoginPage(h.BasePath, "Could not read the submitted form."))
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		email = strings.TrimSpace(r.PostFormValue("username"))
	}
	password := strings.TrimSpace(r.PostFormValue("password"))
	apiKey := strings.TrimSpace(r.PostFormValue("apiKey"))
	clientID := strings.TrimSpace(r.PostFormValue("clientId"))
	clientSecret := strings.TrimSpace(r.PostFormValue("clientSecret"))

	if (email == "" || password == "") && apiKey == "" {
		writeHTML(w, http.StatusBadRequest,
			LoginPage(h.BasePath, "Please enter your email/username and password, or an API key."))
		return
	}

	ac := auth.NewCredentialContext(email, password, apiKey, clientID, clientSecret)
	h.completeLogin(w, r, ac)
}

// handleOAuthStart begins the delegated flow: it records a fresh
// anti-forgery state in the state store, mirrors it into the browser
// session, and redirects to the provider's authorization endpoint.
// Without a configured provider it falls back to the credential form.
func (h *Handler) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if !h.OAuth.Enabled() {
		writeHTML(w, http.StatusOK, LoginPage(h.BasePath, ""))
		return
	}

	state, err := h.States.Generate()
	if err != nil {
		logging.Error("Web", err, "Failed to generate OAuth state")
		writeHTML(w, http.StatusInternalServerError, LoginPage(h.BasePath, "Could not start the sign-in flow. Please try again."))
		return
	}

	session := h.Sessions.GetOrCreate(w, r)
	session.SetOAuthState(state)

	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusFound)
}

// handleOAuthCallback finishes the delegated flow. The returned state must
// exactly match the value stored in the browser session and still be
// pending (unexpired) in the state store; any mismatch or missing value
// aborts with a redirect to the login page and no state is mutated beyond
// clearing the pending value.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = errParam
		}
		logging.Warn("Web", "OAuth provider returned error: %s", errParam)
		writeHTML(w, http.StatusUnauthorized, LoginPage(h.BasePath, "Sign-in failed: "+desc))
		return
	}

	state := query.Get("state")
	code := query.Get("code")

	session := h.Sessions.Get(r)
	var pending string
	if session != nil {
		pending = session.TakeOAuthState()
	}

	if state == "" || pending == "" || state != pending {
		logging.Warn("Web", "OAuth callback with missing or mismatched state")
		http.Redirect(w, r, h.loginPath(), http.StatusFound)
		return
	}
	if !h.States.Validate(state) {
		// The session matched but the state store no longer has the value:
		// it expired, or was already consumed once.
		http.Redirect(w, r, h.loginPath(), http.StatusFound)
		return
	}
	if code == "" {
		http.Redirect(w, r, h.loginPath(), http.StatusFound)
		return
	}

	token, err := h.OAuth.Exchange(r.Context(), code)
	if err != nil {
		writeHTML(w, http.StatusBadGateway, LoginPage(h.BasePath, "Sign-in failed: "+err.Error()))
		return
	}

	ac := auth.NewOAuthContext(token.AccessToken, token.RefreshToken)
	h.completeLogin(w, r, ac)
}

// handleSuccess shows the MCP endpoint URL for an already-authenticated
// browser session; anyone else is sent back to the login page.
func (h *Handler) handleSuccess(w http.ResponseWriter, r *http.Request) {
	session := h.Sessions.Get(r)
	if session == nil {
		http.Redirect(w, r, h.loginPath(), http.StatusFound)
		return
	}
	if _, ok := session.Auth(); !ok {
		http.Redirect(w, r, h.loginPath(), http.StatusFound)
		return
	}

	writeHTML(w, http.StatusOK, SuccessPage(h.mcpURL(r), ""))
}

// completeLogin is shared by both login variants: it populates the browser
// session, issues a bearer credential, and renders the success page with
// the token embedded once.
func (h *Handler) completeLogin(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	session := h.Sessions.GetOrCreate(w, r)
	session.SetAuth(ac)

	token, err := h.Tokens.Issue(ac)
	if err != nil {
		logging.Error("Web", err, "Failed to issue bearer credential")
		writeHTML(w, http.StatusInternalServerError, LoginPage(h.BasePath, "Something went wrong. Please try again."))
		return
	}

	logging.Info("Web", "Login completed (%s variant) for browser session %s", ac.Kind, session.ID())
	writeHTML(w, http.StatusOK, SuccessPage(h.mcpURL(r), token))
}

func (h *Handler) loginPath() string {
	if h.BasePath != "" {
		return h.BasePath + "/"
	}
	return "/"
}

func (h *Handler) mcpURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	host := h.ExternalHost
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + h.BasePath + "/mcp"
}
