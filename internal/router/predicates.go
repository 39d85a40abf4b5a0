package router

import "encoding/json"

// Protocol methods allowed through the auth gate without identity. A
// client probing whether the tool is reachable must be able to complete
// the capability handshake before the human operator has logged in; only
// an actual invocation requires identity.
const (
	methodInitialize              = "initialize"
	methodNotificationInitialized = "notifications/initialized"
	methodToolsList               = "tools/list"
)

// rpcEnvelope is the minimal JSON-RPC shape needed to sniff the method of
// an incoming protocol request.
type rpcEnvelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
}

func decodeMethod(body []byte) (string, bool) {
	var env rpcEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", false
	}
	if env.Method == "" {
		return "", false
	}
	return env.Method, true
}

// IsInitializeRequest reports whether the body is a handshake-initiation
// message. Only such a body may create a new session.
func IsInitializeRequest(body []byte) bool {
	method, ok := decodeMethod(body)
	return ok && method == methodInitialize
}

// ExemptMethod reports whether the body's method is on the fixed
// unauthenticated allow-list: handshake initiation, the initialized
// notification, and capability listing. The auth gate consults this
// predicate; the payload shape stays owned by the router.
func ExemptMethod(body []byte) bool {
	method, ok := decodeMethod(body)
	if !ok {
		return false
	}
	switch method {
	case methodInitialize, methodNotificationInitialized, methodToolsList:
		return true
	}
	return false
}
