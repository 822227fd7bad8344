package fakecentral

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/geekforce/central.go/pkg/status"
)

func (cc *clientConn) signIn(req wireRequest) {
	creds, ok := credentials(req)
	if !ok {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidCredential, Message: "malformed credentials"})
		return
	}

	s := cc.server
	s.mu.Lock()
	user, exists := s.users[creds.email]
	s.mu.Unlock()

	if !exists {
		cc.respondError(req.ID, &wireError{Code: status.CodeUserNotFound, Message: "no account for this email"})
		return
	}
	if user.Password != creds.password {
		cc.respondError(req.ID, &wireError{Code: status.CodeWrongPassword, Message: "wrong password"})
		return
	}

	cc.finishAuth(req.ID, user)
}

func (cc *clientConn) signUp(req wireRequest) {
	creds, ok := credentials(req)
	if !ok {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidCredential, Message: "malformed credentials"})
		return
	}

	s := cc.server
	s.mu.Lock()
	if _, exists := s.users[creds.email]; exists {
		s.mu.Unlock()
		cc.respondError(req.ID, &wireError{Code: status.CodeEmailInUse, Message: "account already exists"})
		return
	}
	user := &userRecord{UID: uuid.NewString(), Email: creds.email, Password: creds.password}
	s.users[creds.email] = user
	s.mu.Unlock()

	cc.finishAuth(req.ID, user)
}

func (cc *clientConn) signInAnonymous(req wireRequest) {
	user := &userRecord{UID: uuid.NewString(), Anonymous: true}
	cc.finishAuth(req.ID, user)
}

// finishAuth responds with the minted token, then pushes the global
// auth state change. The response and the push are two separate
// frames on purpose: clients must treat them as independent signals.
func (cc *clientConn) finishAuth(requestID string, user *userRecord) {
	token, err := cc.server.mintToken(user)
	if err != nil {
		cc.respondError(requestID, &wireError{Code: "internal", Message: err.Error()})
		return
	}

	cc.respond(requestID, map[string]any{"token": token, "uid": user.UID})
	cc.notify("auth_state", map[string]any{
		"uid":       user.UID,
		"email":     user.Email,
		"anonymous": user.Anonymous,
	}, nil)
}

func (s *Server) mintToken(user *userRecord) (string, error) {
	now := s.clock()
	claims := jwt.MapClaims{
		"sub":  user.UID,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
		"anon": user.Anonymous,
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenSecret))
}

type wireCredentials struct {
	email    string
	password string
}

func credentials(req wireRequest) (wireCredentials, bool) {
	if len(req.Params) == 0 {
		return wireCredentials{}, false
	}
	vars, ok := req.Params[0].(map[string]any)
	if !ok {
		return wireCredentials{}, false
	}

	email, _ := vars["email"].(string)
	pass, _ := vars["pass"].(string)
	if email == "" || pass == "" {
		return wireCredentials{}, false
	}
	return wireCredentials{email: email, password: pass}, true
}
