package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

// SessionIDHeader carries the opaque session id on every request after the
// handshake. Ids are generated by the router, never by the client.
const SessionIDHeader = "Mcp-Session-Id"

// ServerFactory constructs the MCP server instance bound to one new
// transport session.
type ServerFactory func() *server.MCPServer

// Router multiplexes many concurrent protocol sessions over a single HTTP
// endpoint. It owns the session table: handshake POSTs create sessions,
// subsequent POSTs are forwarded by id, GET opens the server-push stream,
// DELETE terminates. The table is the single source of truth for whether a
// session id is live.
//
// Authentication happens upstream: the router assumes every request it
// sees was already classified Authorized or Exempt by the auth gate.
type Router struct {
	mu       sync.RWMutex
	sessions map[string]*transportSession

	newServer ServerFactory
}

// New creates a session router whose sessions are served by instances from
// the given factory.
func New(factory ServerFactory) *Router {
	return &Router{
		sessions:  make(map[string]*transportSession),
		newServer: factory,
	}
}

// ServeHTTP dispatches protocol-endpoint requests by method: POST carries
// JSON-RPC messages, GET opens the push stream, DELETE terminates a
// session.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.handlePost(w, r)
	case http.MethodGet:
		rt.handleGet(w, r)
	case http.MethodDelete:
		rt.handleDelete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// SessionCount returns the number of live sessions.
func (rt *Router) SessionCount() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.sessions)
}

// HasSession reports whether the given id is live.
func (rt *Router) HasSession(id string) bool {
	_, ok := rt.get(id)
	return ok
}

// Shutdown closes every live session. Used on server stop.
func (rt *Router) Shutdown() {
	rt.mu.RLock()
	open := make([]*transportSession, 0, len(rt.sessions))
	for _, sess := range rt.sessions {
		open = append(open, sess)
	}
	rt.mu.RUnlock()

	for _, sess := range open {
		sess.Close()
	}
}

func (rt *Router) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, mcp.PARSE_ERROR, "failed to read request body")
		return
	}

	if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" {
		sess, ok := rt.get(sessionID)
		if !ok {
			writeRPCError(w, http.StatusNotFound, mcp.METHOD_NOT_FOUND, "Session not found")
			return
		}
		rt.forward(w, r, sess, body)
		return
	}

	// No session id: only a handshake-initiation body may create a
	// session. Reject before constructing anything.
	if !IsInitializeRequest(body) {
		writeRPCError(w, http.StatusBadRequest, mcp.INVALID_REQUEST,
			fmt.Sprintf("bad request: missing %s or invalid initialize", SessionIDHeader))
		return
	}

	sess := newTransportSession(uuid.NewString(), rt.newServer(), rt.remove)
	if err := sess.srv.RegisterSession(r.Context(), sess); err != nil {
		logging.Error("Router", err, "Failed to register new session")
		writeRPCError(w, http.StatusInternalServerError, mcp.INTERNAL_ERROR, "failed to create session")
		return
	}

	rt.mu.Lock()
	rt.sessions[sess.id] = sess
	rt.mu.Unlock()

	logging.Info("Router", "Created session %s", sess.id)
	w.Header().Set(SessionIDHeader, sess.id)
	rt.forward(w, r, sess, body)
}

// forward hands a message to the session's bound server. The session table
// lock is never held here; a forward may outlive the request only for the
// GET stream, which has its own path.
func (rt *Router) forward(w http.ResponseWriter, r *http.Request, sess *transportSession, body []byte) {
	ctx := sess.srv.WithContext(r.Context(), sess)

	response := sess.srv.HandleMessage(ctx, body)
	if response == nil {
		// Notification: nothing to return.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// The response is already in flight; nothing can be restarted,
		// so log and let the connection close.
		logging.Error("Router", err, "Failed to write response for session %s", sess.id)
	}
}

func (rt *Router) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionIDHeader)
	if sessionID == "" {
		http.Error(w, "invalid or missing session ID", http.StatusBadRequest)
		return
	}
	sess, ok := rt.get(sessionID)
	if !ok {
		http.Error(w, "invalid or missing session ID", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logging.Debug("Router", "Push stream attached for session %s", sessionID)

	for {
		select {
		case <-r.Context().Done():
			// The remote peer disconnected; channel closure is
			// authoritative, tear the session down so the table does not
			// accumulate dead entries.
			sess.Close()
			return
		case <-sess.done:
			return
		case notification := <-sess.notifications:
			data, err := json.Marshal(notification)
			if err != nil {
				logging.Error("Router", err, "Failed to encode notification for session %s", sessionID)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (rt *Router) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionIDHeader)
	if sessionID == "" {
		http.Error(w, "invalid or missing session ID", http.StatusBadRequest)
		return
	}
	sess, ok := rt.get(sessionID)
	if !ok {
		http.Error(w, "invalid or missing session ID", http.StatusBadRequest)
		return
	}

	// The table entry goes away no matter what closing does.
	defer rt.remove(sessionID)

	sess.Close()
	logging.Info("Router", "Terminated session %s", sessionID)
	w.WriteHeader(http.StatusOK)
}

func (rt *Router) get(id string) (*transportSession, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	sess, ok := rt.sessions[id]
	return sess, ok
}

// remove deletes a session id from the table. Removing an id that is
// already gone is a harmless no-op, which makes concurrent terminations
// idempotent.
func (rt *Router) remove(id string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.sessions, id)
}

// rpcErrorBody mirrors the JSON-RPC error object protocol clients parse.
type rpcErrorBody struct {
	JSONRPC string      `json:"jsonrpc"`
	Error   rpcErrorObj `json:"error"`
	ID      interface{} `json:"id"`
}

type rpcErrorObj struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeRPCError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rpcErrorBody{
		JSONRPC: "2.0",
		Error:   rpcErrorObj{Code: code, Message: message},
		ID:      nil,
	})
}
