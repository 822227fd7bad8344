package central_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/status"
)

type authRecorder struct {
	mu      sync.Mutex
	results []*status.Error
	states  []*central.User
}

func (r *authRecorder) callback(err *status.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, err)
}

func (r *authRecorder) onState(u *central.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, u)
}

func (r *authRecorder) callbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *authRecorder) lastResult() *status.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return nil
	}
	return r.results[len(r.results)-1]
}

func (r *authRecorder) stateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func TestSignInSuccess(t *testing.T) {
	client, server := newTestClient(t)
	uid := server.RegisterUser("penny@geekforce.example", "hunter2")

	session := client.Session()
	rec := &authRecorder{}
	remove := session.OnStateChange(rec.onState)
	defer remove()

	err := session.SignIn(central.Credentials{Email: "penny@geekforce.example", Password: "hunter2"}, rec.callback)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.callbacks() == 1 }, waitFor, 10*time.Millisecond)
	assert.Nil(t, rec.lastResult())

	require.Eventually(t, func() bool { return session.User() != nil }, waitFor, 10*time.Millisecond)
	user := session.User()
	assert.Equal(t, uid, user.UID)
	assert.Equal(t, "penny@geekforce.example", user.Email)
	assert.False(t, user.Anonymous)
	assert.Equal(t, 1, rec.stateCount())
	assert.NotEmpty(t, session.Token())
}

func TestSignInWrongPassword(t *testing.T) {
	client, server := newTestClient(t)
	server.RegisterUser("penny@geekforce.example", "hunter2")

	session := client.Session()
	rec := &authRecorder{}
	remove := session.OnStateChange(rec.onState)
	defer remove()

	err := session.SignIn(central.Credentials{Email: "penny@geekforce.example", Password: "nope"}, rec.callback)
	require.NoError(t, err, "dispatch itself succeeds")

	require.Eventually(t, func() bool { return rec.callbacks() == 1 }, waitFor, 10*time.Millisecond)
	result := rec.lastResult()
	require.NotNil(t, result)
	assert.Equal(t, status.KindInvalidCredential, result.Kind)

	// A failed sign-in never touches the auth state stream.
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, rec.stateCount())
	assert.Nil(t, session.User())
	assert.Empty(t, session.Token())
}

func TestSignInUnknownUser(t *testing.T) {
	client, _ := newTestClient(t)

	session := client.Session()
	rec := &authRecorder{}
	err := session.SignIn(central.Credentials{Email: "ghost@geekforce.example", Password: "pw"}, rec.callback)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.callbacks() == 1 }, waitFor, 10*time.Millisecond)
	result := rec.lastResult()
	require.NotNil(t, result)
	assert.Equal(t, status.KindInvalidCredential, result.Kind)
}

func TestSignInEmptyCredentialsFailsFast(t *testing.T) {
	client, _ := newTestClient(t)
	session := client.Session()

	called := false
	err := session.SignIn(central.Credentials{}, func(*status.Error) { called = true })
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	err = session.SignUp(central.Credentials{Email: "x@y.example"}, nil)
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, called, "advisory callback is not used for synchronous failures")
}

func TestSignUpCreatesAccount(t *testing.T) {
	client, _ := newTestClient(t)
	session := client.Session()

	rec := &authRecorder{}
	err := session.SignUp(central.Credentials{Email: "newbie@geekforce.example", Password: "pw"}, rec.callback)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.callbacks() == 1 }, waitFor, 10*time.Millisecond)
	assert.Nil(t, rec.lastResult())

	require.Eventually(t, func() bool { return session.User() != nil }, waitFor, 10*time.Millisecond)
	assert.Equal(t, "newbie@geekforce.example", session.User().Email)

	// Signing up again with the same email is rejected by the backend.
	rec2 := &authRecorder{}
	require.NoError(t, session.SignUp(central.Credentials{Email: "newbie@geekforce.example", Password: "pw"}, rec2.callback))
	require.Eventually(t, func() bool { return rec2.callbacks() == 1 }, waitFor, 10*time.Millisecond)
	require.NotNil(t, rec2.lastResult())
}

func TestSignInAnonymous(t *testing.T) {
	client, _ := newTestClient(t)
	session := client.Session()

	rec := &authRecorder{}
	session.SignInAnonymous(rec.callback)

	require.Eventually(t, func() bool { return rec.callbacks() == 1 }, waitFor, 10*time.Millisecond)
	assert.Nil(t, rec.lastResult())

	require.Eventually(t, func() bool { return session.User() != nil }, waitFor, 10*time.Millisecond)
	user := session.User()
	assert.True(t, user.Anonymous)
	assert.NotEmpty(t, user.UID)
	assert.Empty(t, user.Email)
}

func TestTokenClaims(t *testing.T) {
	client, server := newTestClient(t)
	uid := server.RegisterUser("penny@geekforce.example", "hunter2")

	session := client.Session()
	require.NoError(t, session.SignIn(central.Credentials{Email: "penny@geekforce.example", Password: "hunter2"}, nil))
	require.Eventually(t, func() bool { return session.Token() != "" }, waitFor, 10*time.Millisecond)

	claims, err := session.TokenClaims()
	require.NoError(t, err)
	assert.Equal(t, uid, claims["sub"])
	assert.Equal(t, "penny@geekforce.example", claims["email"])
}

func TestOnStateChangeRemove(t *testing.T) {
	client, server := newTestClient(t)
	server.RegisterUser("penny@geekforce.example", "hunter2")

	session := client.Session()
	rec := &authRecorder{}
	remove := session.OnStateChange(rec.onState)
	remove()
	remove() // idempotent

	require.NoError(t, session.SignIn(central.Credentials{Email: "penny@geekforce.example", Password: "hunter2"}, nil))
	require.Eventually(t, func() bool { return session.User() != nil }, waitFor, 10*time.Millisecond)
	assert.Zero(t, rec.stateCount())
}
