// Package status defines the error taxonomy shared by the SDK.
//
// Sentinel errors cover local, synchronous failures. Error carries a
// categorical kind plus a human-readable message for failures that are
// delivered asynchronously, where the caller maps the kind to a
// user-facing notification.
package status

import "errors"

var (
	// ErrInvalidArgument is the only failure surfaced synchronously by
	// the non-blocking dispatchers: a nil or malformed local input.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrIDInUse       = errors.New("id already in use")
	ErrTimeout       = errors.New("timeout")
	ErrClosed        = errors.New("connection closed")
	ErrNoBaseURL     = errors.New("base url not set")
	ErrNoMarshaler   = errors.New("marshaler is not set")
	ErrNoUnmarshaler = errors.New("unmarshaler is not set")
)

type Kind string

const (
	KindRemoteWrite       Kind = "remote-write-failure"
	KindInvalidCredential Kind = "invalid-credential"
	KindSubscription      Kind = "subscription-failure"
	KindUpstreamService   Kind = "upstream-service-failure"
	KindUnknown           Kind = "unknown"
)

// Error is the descriptor delivered through asynchronous side
// channels: write-error observers, auth callbacks, terminal snapshots.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Wire error codes emitted by the backend.
const (
	CodeInvalidArgument   = "invalid_argument"
	CodeInvalidCredential = "invalid_credential"
	CodeUserNotFound      = "user_not_found"
	CodeWrongPassword     = "wrong_password"
	CodeEmailInUse        = "email_in_use"
	CodeAlreadyExists     = "already_exists"
	CodeNotFound          = "not_found"
	CodePermissionDenied  = "permission_denied"
)

// AuthKind maps an identity-service error code to a Kind. The three
// credential-shaped codes collapse into KindInvalidCredential so the
// portal shows the same "invalid credentials" message for all of them;
// everything else is KindUnknown.
func AuthKind(code string) Kind {
	switch code {
	case CodeInvalidCredential, CodeUserNotFound, CodeWrongPassword:
		return KindInvalidCredential
	default:
		return KindUnknown
	}
}
