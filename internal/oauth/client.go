package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/Sara3/payments-mcp/internal/config"
	"github.com/Sara3/payments-mcp/pkg/logging"
)

// Client drives the delegated login flow against the configured
// third-party authorization server. A zero-configured client (no client
// id) reports Enabled() == false and the login surface falls back to the
// credential form.
type Client struct {
	cfg *oauth2.Config
}

// NewClient builds a Client from the provider configuration.
func NewClient(c config.OAuthConfig) *Client {
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       c.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.AuthURL,
				TokenURL: c.TokenURL,
			},
		},
	}
}

// Enabled reports whether a provider client id is configured.
func (c *Client) Enabled() bool {
	return c.cfg.ClientID != ""
}

// AuthCodeURL returns the provider's authorization endpoint URL carrying
// the given anti-forgery state.
func (c *Client) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens with the provider. The
// exchange is attempted exactly once; failures surface to the caller.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		logging.Error("OAuth", err, "Authorization code exchange failed")
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}
