package connection

import "github.com/fxamacker/cbor/v2"

// RPCError is an error returned by the Central backend for a single
// RPC call or pushed inside a subscription notification.
type RPCError struct {
	Code    string `json:"code" cbor:"code"`
	Message string `json:"message,omitempty" cbor:"message,omitempty"`
}

func (r *RPCError) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Code
}

// RPCRequest is a single client-to-server call.
type RPCRequest struct {
	ID     string `json:"id" cbor:"id"`
	Method string `json:"method,omitempty" cbor:"method,omitempty"`
	Params []any  `json:"params,omitempty" cbor:"params,omitempty"`
}

// RPCResponse correlates with an RPCRequest by ID. Frames with an
// empty ID are notifications, not responses.
type RPCResponse[T any] struct {
	ID     string    `json:"id" cbor:"id"`
	Error  *RPCError `json:"error,omitempty" cbor:"error,omitempty"`
	Result *T        `json:"result,omitempty" cbor:"result,omitempty"`
}

// Notification is a server-initiated frame addressed to a live
// subscription, or to the reserved auth-state channel.
type Notification struct {
	SubscriptionID string          `json:"subscription" cbor:"subscription"`
	Error          *RPCError       `json:"error,omitempty" cbor:"error,omitempty"`
	Result         cbor.RawMessage `json:"result,omitempty" cbor:"result,omitempty"`
}

// AuthStateID is the reserved notification channel carrying identity
// state changes. It exists for the lifetime of the connection.
const AuthStateID = "auth_state"

// AuthState is the payload of an auth_state notification. A zero UID
// means signed out.
type AuthState struct {
	UID       string `json:"uid" cbor:"uid"`
	Email     string `json:"email,omitempty" cbor:"email,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty" cbor:"anonymous,omitempty"`
}
