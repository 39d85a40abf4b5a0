package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

// stateEntropyBytes is the random length of anti-forgery state values.
const stateEntropyBytes = 32

// StateStore provides thread-safe storage for anti-forgery state values.
// A pending state links a provider callback to the authorization redirect
// that started it and provides CSRF protection. States are single-use and
// short-lived: much shorter than the browser session, since a redirect
// not completed within minutes is abandoned.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]time.Time

	stateExpiry time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewStateStore creates a new state store with default expiration. It
// starts a background goroutine for periodic cleanup of expired states;
// callers must call Stop when done.
func NewStateStore() *StateStore {
	ss := &StateStore{
		states:      make(map[string]time.Time),
		stateExpiry: 10 * time.Minute, // State expires after 10 minutes
		stopCleanup: make(chan struct{}),
	}

	go ss.cleanupLoop()

	return ss
}

// Generate creates a fresh cryptographically random anti-forgery state
// value, records its creation time, and returns it for inclusion in the
// authorization URL.
func (ss *StateStore) Generate() (string, error) {
	nonce := make([]byte, stateEntropyBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(nonce)

	ss.mu.Lock()
	ss.states[state] = time.Now()
	ss.mu.Unlock()

	logging.Debug("OAuth", "Generated anti-forgery state")
	return state, nil
}

// Validate checks a state value returned by a provider callback. Known,
// unexpired states validate exactly once; the entry is deleted either way
// so a state can never be matched twice.
func (ss *StateStore) Validate(state string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	createdAt, ok := ss.states[state]
	if !ok {
		logging.Warn("OAuth", "Unknown anti-forgery state in callback")
		return false
	}

	delete(ss.states, state)

	if time.Since(createdAt) > ss.stateExpiry {
		logging.Warn("OAuth", "Expired anti-forgery state in callback (age %v)", time.Since(createdAt))
		return false
	}
	return true
}

// Count returns the number of pending states.
func (ss *StateStore) Count() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.states)
}

// Stop stops the background cleanup goroutine. Safe to call multiple
// times.
func (ss *StateStore) Stop() {
	ss.stopOnce.Do(func() { close(ss.stopCleanup) })
}

// cleanupLoop periodically removes expired states from the store.
func (ss *StateStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.cleanup()
		case <-ss.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired states from the store.
func (ss *StateStore) cleanup() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	count := 0
	for state, createdAt := range ss.states {
		if time.Since(createdAt) > ss.stateExpiry {
			delete(ss.states, state)
			count++
		}
	}

	if count > 0 {
		logging.Debug("OAuth", "Cleaned up %d expired states", count)
	}
}
