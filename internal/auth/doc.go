// Package auth implements the session/authentication bridge for the
// hosted payments MCP server: the bearer credential store, the
// cookie-backed browser session store, and the Gate that classifies every
// inbound request as authorized, exempt, or challenged before it reaches
// the session router.
//
// The two stores are the only process-wide mutable state in the auth
// layer. Both are explicitly constructed and passed to the components that
// need them; neither is ambient.
package auth
