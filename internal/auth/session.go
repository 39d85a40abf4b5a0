package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

// SessionCookieName is the browser session cookie.
const SessionCookieName = "payments-mcp.sid"

// BrowserSession is the server-held state behind one session cookie. It
// holds at most one AuthContext and, while an OAuth handshake is in
// flight, one pending anti-forgery state value.
type BrowserSession struct {
	id        string
	expiresAt time.Time

	mu         sync.Mutex
	auth       *AuthContext
	oauthState string
}

// ID returns the cookie value identifying this session.
func (bs *BrowserSession) ID() string {
	return bs.id
}

// Auth returns the session's AuthContext, if one has been set by a login.
func (bs *BrowserSession) Auth() (AuthContext, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.auth == nil {
		return AuthContext{}, false
	}
	return *bs.auth, true
}

// SetAuth stores the AuthContext produced by a successful login.
func (bs *BrowserSession) SetAuth(ac AuthContext) {
	bs.mu.Lock()
	bs.auth = &ac
	bs.mu.Unlock()
}

// SetOAuthState records the pending anti-forgery value for an in-flight
// OAuth handshake, replacing any previous one.
func (bs *BrowserSession) SetOAuthState(state string) {
	bs.mu.Lock()
	bs.oauthState = state
	bs.mu.Unlock()
}

// TakeOAuthState returns the pending anti-forgery value and clears it, so
// a state can never be matched twice.
func (bs *BrowserSession) TakeOAuthState() string {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	state := bs.oauthState
	bs.oauthState = ""
	return state
}

// SessionStore holds cookie-backed browser sessions in memory. Session ids
// are random UUIDs set in an HttpOnly cookie whose max-age matches
// CredentialTTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*BrowserSession

	secure      bool
	ttl         time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewSessionStore creates a browser session store. secure marks issued
// cookies as Secure, for deployments behind TLS. Callers must call Stop
// when done.
func NewSessionStore(secure bool) *SessionStore {
	ss := &SessionStore{
		sessions:    make(map[string]*BrowserSession),
		secure:      secure,
		ttl:         CredentialTTL,
		stopCleanup: make(chan struct{}),
	}

	go ss.cleanupLoop()

	return ss
}

// Get returns the browser session referenced by the request's cookie, or
// nil when there is no cookie, the session is unknown, or it has expired.
// Expired sessions are evicted on access.
func (ss *SessionStore) Get(r *http.Request) *BrowserSession {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	session, ok := ss.sessions[cookie.Value]
	if !ok {
		return nil
	}
	if time.Now().After(session.expiresAt) {
		delete(ss.sessions, cookie.Value)
		logging.Debug("Auth", "Evicted expired browser session %s", session.id)
		return nil
	}
	return session
}

// GetOrCreate returns the request's browser session, creating one and
// setting the cookie on the response when none exists yet.
func (ss *SessionStore) GetOrCreate(w http.ResponseWriter, r *http.Request) *BrowserSession {
	if session := ss.Get(r); session != nil {
		return session
	}

	session := &BrowserSession{
		id:        uuid.NewString(),
		expiresAt: time.Now().Add(ss.ttl),
	}

	ss.mu.Lock()
	ss.sessions[session.id] = session
	ss.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.id,
		Path:     "/",
		MaxAge:   int(ss.ttl.Seconds()),
		HttpOnly: true,
		Secure:   ss.secure,
		SameSite: http.SameSiteLaxMode,
	})

	logging.Debug("Auth", "Created browser session %s", session.id)
	return session
}

// Count returns the number of stored sessions.
func (ss *SessionStore) Count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// Stop stops the background cleanup goroutine. Safe to call multiple
// times.
func (ss *SessionStore) Stop() {
	ss.stopOnce.Do(func() { close(ss.stopCleanup) })
}

func (ss *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
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

func (ss *SessionStore) cleanup() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now()
	count := 0
	for id, session := range ss.sessions {
		if now.After(session.expiresAt) {
			delete(ss.sessions, id)
			count++
		}
	}

	if count > 0 {
		logging.Debug("Auth", "Cleaned up %d expired browser sessions", count)
	}
}
