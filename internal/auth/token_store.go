package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

// CredentialTTL bounds the life of both bearer credentials and the browser
// session cookie. The two must share one constant so a session renewed via
// cookie and one renewed via bearer stay interchangeable for the whole
// credential life.
const CredentialTTL = 7 * 24 * time.Hour

// tokenEntropyBytes is the random length of issued bearer tokens.
const tokenEntropyBytes = 32

// tokenEntry is a stored bearer credential.
type tokenEntry struct {
	auth      AuthContext
	expiresAt time.Time
}

// TokenStore provides thread-safe in-memory storage for bearer
// credentials, mapping opaque tokens to the AuthContext they were issued
// for. Expired entries are evicted lazily on access; a background sweep
// bounds memory under churn from tokens that are never revisited.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry

	ttl             time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewTokenStore creates a new in-memory token store with the standard
// credential TTL. It starts a background goroutine for periodic cleanup of
// expired tokens; callers must call Stop when done.
func NewTokenStore() *TokenStore {
	ts := &TokenStore{
		tokens:          make(map[string]tokenEntry),
		ttl:             CredentialTTL,
		cleanupInterval: time.Hour,
		stopCleanup:     make(chan struct{}),
	}

	go ts.cleanupLoop()

	return ts
}

// Issue generates a new unguessable opaque token, records it against the
// given AuthContext with an absolute expiration, and returns it.
func (ts *TokenStore) Issue(ac AuthContext) (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating bearer token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	ts.mu.Lock()
	ts.tokens[token] = tokenEntry{auth: ac, expiresAt: time.Now().Add(ts.ttl)}
	ts.mu.Unlock()

	logging.Debug("Auth", "Issued bearer credential (expires in %s)", ts.ttl)
	return token, nil
}

// Validate looks up a bearer token. Expired or unknown tokens report
// false; expired entries are deleted on the spot. The expiration check and
// deletion share one critical section.
func (ts *TokenStore) Validate(token string) (AuthContext, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.tokens[token]
	if !ok {
		return AuthContext{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(ts.tokens, token)
		logging.Debug("Auth", "Evicted expired bearer credential")
		return AuthContext{}, false
	}
	return entry.auth, true
}

// Count returns the number of live entries, expired or not.
func (ts *TokenStore) Count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.tokens)
}

// Stop stops the background cleanup goroutine. Safe to call multiple
// times.
func (ts *TokenStore) Stop() {
	ts.stopOnce.Do(func() { close(ts.stopCleanup) })
}

func (ts *TokenStore) cleanupLoop() {
	ticker := time.NewTicker(ts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ts.cleanup()
		case <-ts.stopCleanup:
			return
		}
	}
}

func (ts *TokenStore) cleanup() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	count := 0
	for token, entry := range ts.tokens {
		if now.After(entry.expiresAt) {
			delete(ts.tokens, token)
			count++
		}
	}

	if count > 0 {
		logging.Debug("Auth", "Cleaned up %d expired bearer credentials", count)
	}
}
