package web

import (
	"fmt"
	"html"
	"net/http"
)

// pageStyle is shared by every HTML surface the server renders.
const pageStyle = `
    * { box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
      margin: 0;
      min-height: 100vh;
      display: flex;
      align-items: center;
      justify-content: center;
      background: linear-gradient(145deg, #0f172a 0%, #1e293b 100%);
      color: #e2e8f0;
    }
    .card {
      width: 100%;
      max-width: 420px;
      padding: 2rem;
      background: rgba(30, 41, 59, 0.8);
      border-radius: 12px;
      border: 1px solid rgba(71, 85, 105, 0.5);
      box-shadow: 0 4px 24px rgba(0, 0, 0, 0.3);
    }
    h1 { margin: 0 0 0.5rem; font-size: 1.5rem; font-weight: 600; }
    .subtitle { color: #94a3b8; font-size: 0.875rem; margin-bottom: 1.5rem; }
    label { display: block; font-size: 0.875rem; font-weight: 500; margin-bottom: 0.375rem; color: #cbd5e1; }
    input {
      width: 100%;
      padding: 0.625rem 0.75rem;
      font-size: 1rem;
      border: 1px solid #475569;
      border-radius: 8px;
      background: #0f172a;
      color: #f1f5f9;
      margin-bottom: 1rem;
    }
    button {
      width: 100%;
      padding: 0.75rem 1rem;
      font-size: 1rem;
      font-weight: 500;
      color: #fff;
      background: #2563eb;
      border: none;
      border-radius: 8px;
      cursor: pointer;
    }
    button:hover { background: #1d4ed8; }
    .error { font-size: 0.875rem; color: #f87171; margin-bottom: 1rem; }
    .success { color: #4ade80; font-size: 0.875rem; margin-bottom: 1rem; }
    code {
      display: block;
      padding: 0.75rem;
      background: #0f172a;
      border-radius: 8px;
      font-size: 0.8125rem;
      word-break: break-all;
      margin-top: 0.5rem;
    }
    .hint { font-size: 0.75rem; color: #64748b; margin-top: 1rem; }`

// LoginPage renders the credential form shown when users open the server
// URL in a browser. errorMsg, when non-empty, is shown above the submit
// button; it is escaped here.
func LoginPage(basePath, errorMsg string) string {
	action := basePath + "/auth/login"
	errorBlock := ""
	if errorMsg != "" {
		errorBlock = fmt.Sprintf(`<p class="error">%s</p>`, html.EscapeString(errorMsg))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Payments MCP – Sign in</title>
  <style>%s</style>
</head>
<body>
  <div class="card">
    <h1>Add your information</h1>
    <p class="subtitle">Sign in with your account, or add an API key, to use the Payments MCP server.</p>
    <form method="post" action="%s">
      <label for="email">Email or username</label>
      <input type="text" id="email" name="email" placeholder="you@example.com" autocomplete="username" />
      <label for="password">Password</label>
      <input type="password" id="password" name="password" placeholder="Your password" autocomplete="current-password" />
      <label for="apiKey">API key (instead of email and password)</label>
      <input type="password" id="apiKey" name="apiKey" placeholder="Your API key or token" autocomplete="off" />
      <label for="clientId">Client ID (optional)</label>
      <input type="text" id="clientId" name="clientId" placeholder="Optional client ID" autocomplete="off" />
      <label for="clientSecret">Client secret (optional)</label>
      <input type="password" id="clientSecret" name="clientSecret" placeholder="Optional client secret" autocomplete="off" />
      %s<button type="submit">Continue</button>
    </form>
    <p class="hint">Your information is stored in this browser session only and is used to authorize MCP requests.</p>
  </div>
</body>
</html>`, pageStyle, action, errorBlock)
}

// SuccessPage renders the post-login page. bearerToken is embedded only on
// the first render after a login; subsequent visits to /success pass an
// empty string.
func SuccessPage(mcpURL, bearerToken string) string {
	tokenBlock := ""
	hint := "Use the MCP URL above in your client. Your browser session is used for auth."
	if bearerToken != "" {
		tokenBlock = fmt.Sprintf(`
    <p class="success">Paste this token in your MCP client when it asks for auth (bearer token or API key field):</p>
    <code id="token">%s</code>`, html.EscapeString(bearerToken))
		hint = "Use the MCP URL above in your client. When the client asks for auth, paste the token above."
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Payments MCP – Signed in</title>
  <style>%s</style>
</head>
<body>
  <div class="card">
    <h1>You're signed in</h1>
    <p class="subtitle">Payments MCP is ready to use over streamable HTTP.</p>
    <p class="success">Connect your MCP client to:</p>
    <code>%s</code>%s
    <p class="hint">%s</p>
  </div>
</body>
</html>`, pageStyle, html.EscapeString(mcpURL), tokenBlock, hint)
}

// setSecurityHeaders sets recommended security headers for HTML responses.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
