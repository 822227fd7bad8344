package central

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/geekforce/central.go/pkg/connection"
	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/status"
)

// Credentials are email/password sign-in inputs.
type Credentials struct {
	Email    string
	Password string
}

// AuthCallback receives the advisory outcome of one auth dispatch:
// nil on success, a descriptor otherwise. It is invoked exactly once
// per call, on the dispatch goroutine. It is advisory only — the
// authoritative "who is signed in" signal is OnStateChange, fed by the
// identity service itself.
type AuthCallback func(*status.Error)

// User is the identity the backend currently attributes to this
// connection.
type User struct {
	UID       string
	Email     string
	Anonymous bool
}

type authResult struct {
	Token string `cbor:"token"`
	UID   string `cbor:"uid"`
}

// Session is the explicit auth context for one connection. It owns
// the current user, the bearer token and the state-change listener
// list; nothing about it is global.
type Session struct {
	conn   connection.Connection
	logger logger.Logger

	mu        sync.RWMutex
	user      *User
	token     string
	listeners map[int]func(*User)
	nextID    int

	done     chan struct{}
	doneOnce sync.Once
}

func newSession(conn connection.Connection, log logger.Logger) *Session {
	s := &Session{
		conn:      conn,
		logger:    log,
		listeners: make(map[int]func(*User)),
		done:      make(chan struct{}),
	}

	ch, err := conn.Notifications(connection.AuthStateID)
	if err != nil {
		// Connection already has an auth listener; refuse silently
		// would hide a programming error, so log loudly.
		log.Error("auth state channel unavailable", "error", err)
		return s
	}
	go s.watch(ch)
	return s
}

// watch converges session state with the identity service's own
// state-change stream, independent of any advisory callbacks.
func (s *Session) watch(ch chan connection.Notification) {
	for {
		select {
		case <-s.done:
			return
		case n := <-ch:
			if n.Error != nil {
				s.logger.Warn("auth state error", "error", n.Error)
				continue
			}

			var state connection.AuthState
			if err := codecUnmarshal(n.Result, &state); err != nil {
				s.logger.Error("error unmarshaling auth state", "error", err)
				continue
			}

			var user *User
			if state.UID != "" {
				user = &User{UID: state.UID, Email: state.Email, Anonymous: state.Anonymous}
			}

			s.mu.Lock()
			s.user = user
			if user == nil {
				// Signed out: the previous bearer token is no longer
				// this session's to present.
				s.token = ""
			}
			listeners := make([]func(*User), 0, len(s.listeners))
			for _, fn := range s.listeners {
				listeners = append(listeners, fn)
			}
			s.mu.Unlock()

			for _, fn := range listeners {
				fn(user)
			}
		}
	}
}

// User returns the current user, or nil when signed out. Decisions
// like "is the user logged in" belong here or in OnStateChange, never
// in the advisory callbacks.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the current bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TokenClaims reads the uid/email claims from the session token. The
// signature is not verified client-side; verification is the
// backend's concern on every call that presents the token.
func (s *Session) TokenClaims() (jwt.MapClaims, error) {
	token := s.Token()
	if token == "" {
		return nil, errors.New("no session token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("error parsing session token: %w", err)
	}
	return claims, nil
}

// OnStateChange registers fn to run on every auth state transition,
// with the new user or nil on sign-out. The returned function removes
// the listener and is idempotent.
func (s *Session) OnStateChange(fn func(*User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SignIn dispatches an email/password sign-in and returns before the
// identity service settles. Empty credentials fail fast.
func (s *Session) SignIn(creds Credentials, cb AuthCallback) error {
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("%w: empty credentials", status.ErrInvalidArgument)
	}
	s.authenticate("signin", map[string]any{"email": creds.Email, "pass": creds.Password}, cb)
	return nil
}

// SignUp dispatches account creation and returns immediately.
func (s *Session) SignUp(creds Credentials, cb AuthCallback) error {
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("%w: empty credentials", status.ErrInvalidArgument)
	}
	s.authenticate("signup", map[string]any{"email": creds.Email, "pass": creds.Password}, cb)
	return nil
}

// SignInAnonymous dispatches an anonymous sign-in and returns
// immediately.
func (s *Session) SignInAnonymous(cb AuthCallback) {
	s.authenticate("signin_anon", nil, cb)
}

func (s *Session) authenticate(method string, vars map[string]any, cb AuthCallback) {
	go func() {
		var res authResult
		var err error
		if vars == nil {
			err = s.conn.Send(context.Background(), &res, method)
		} else {
			err = s.conn.Send(context.Background(), &res, method, vars)
		}

		if err != nil {
			s.logger.Warn("auth dispatch failed", "method", method, "error", err)
			s.invoke(cb, authError(err))
			return
		}

		s.mu.Lock()
		s.token = res.Token
		s.mu.Unlock()

		// The auth_state notification, racing this callback, is what
		// actually flips the session user.
		s.invoke(cb, nil)
	}()
}

// invoke runs the advisory callback exactly once, tolerating both a
// nil callback and a panicking one.
func (s *Session) invoke(cb AuthCallback, err *status.Error) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("auth callback panicked", "panic", r)
		}
	}()
	cb(err)
}

func authError(err error) *status.Error {
	var rpcErr *connection.RPCError
	if errors.As(err, &rpcErr) {
		return &status.Error{Kind: status.AuthKind(rpcErr.Code), Message: rpcErr.Error()}
	}
	return &status.Error{Kind: status.KindUnknown, Message: err.Error()}
}

func (s *Session) close() {
	s.doneOnce.Do(func() { close(s.done) })
	s.conn.RemoveNotifications(connection.AuthStateID)
}
