package router

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

// notificationBuffer is the capacity of the per-session server-push
// channel. Notifications produced while no GET stream is attached queue
// here; the channel is never closed, only abandoned when the session
// closes.
const notificationBuffer = 64

// transportSession is one live protocol session: an unguessable id, the
// MCP server instance bound to it, and the server-push channel drained by
// the GET stream. It implements mcp-go's server.ClientSession so the bound
// server can route notifications back to it.
type transportSession struct {
	id  string
	srv *server.MCPServer

	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
	onClose   func(id string)
}

func newTransportSession(id string, srv *server.MCPServer, onClose func(id string)) *transportSession {
	return &transportSession{
		id:            id,
		srv:           srv,
		notifications: make(chan mcp.JSONRPCNotification, notificationBuffer),
		done:          make(chan struct{}),
		onClose:       onClose,
	}
}

// SessionID implements server.ClientSession.
func (s *transportSession) SessionID() string {
	return s.id
}

// NotificationChannel implements server.ClientSession.
func (s *transportSession) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return s.notifications
}

// Initialize implements server.ClientSession; the bound server calls it
// when the handshake-initiation request completes.
func (s *transportSession) Initialize() {
	s.initialized.Store(true)
}

// Initialized implements server.ClientSession.
func (s *transportSession) Initialized() bool {
	return s.initialized.Load()
}

// Close transitions the session to Closed: it unregisters from the bound
// server, wakes any attached push stream, and removes the session from the
// router table. Closure is authoritative and idempotent; concurrent
// terminations collapse into one.
func (s *transportSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.srv.UnregisterSession(context.Background(), s.id)
		if s.onClose != nil {
			s.onClose(s.id)
		}
		logging.Debug("Router", "Closed session %s", s.id)
	})
}
