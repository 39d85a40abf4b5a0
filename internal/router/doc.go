// Package router maintains the mapping from protocol session ids to live
// bidirectional channels, each bound to its own MCP server instance. It
// implements the streamable HTTP surface of the protocol endpoint: POST
// for messages (and session creation on a valid handshake), GET for the
// server-push stream, DELETE for termination.
//
// The router performs no authentication; the gate in internal/auth runs
// first and only Authorized or Exempt requests reach this package. The
// payload-shape predicates the gate needs (ExemptMethod,
// IsInitializeRequest) live here so knowledge of the protocol body stays
// in one place.
package router
