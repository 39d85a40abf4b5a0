// Package oauth implements the delegated login flow: anti-forgery state
// generation for the authorization redirect and the single-shot
// authorization-code exchange, built on golang.org/x/oauth2. The pending
// state value itself lives in the browser session; this package only
// produces and consumes it.
package oauth
