package connection_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geekforce/central.go/internal/codec"
	"github.com/geekforce/central.go/internal/fakecentral"
	"github.com/geekforce/central.go/pkg/connection"
	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/status"
)

func newTestConnection(t *testing.T) (*connection.WebSocketConnection, *fakecentral.Server) {
	t.Helper()

	server := fakecentral.New()
	url, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(server.Stop)

	conn := connection.NewWebSocketConnection(connection.NewConnectionParams{
		BaseURL:     url,
		Marshaler:   codec.Default,
		Unmarshaler: codec.Default,
		Logger:      logger.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { conn.Close(context.Background()) })

	return conn, server
}

func TestPreConnectionChecks(t *testing.T) {
	log := logger.New(slog.NewJSONHandler(io.Discard, nil))

	conn := connection.NewWebSocketConnection(connection.NewConnectionParams{
		Marshaler:   codec.Default,
		Unmarshaler: codec.Default,
		Logger:      log,
	})
	require.ErrorIs(t, conn.Connect(context.Background()), status.ErrNoBaseURL)

	conn = connection.NewWebSocketConnection(connection.NewConnectionParams{
		BaseURL:     "ws://localhost:0",
		Unmarshaler: codec.Default,
		Logger:      log,
	})
	require.ErrorIs(t, conn.Connect(context.Background()), status.ErrNoMarshaler)
}

func TestSendDecodesResult(t *testing.T) {
	conn, _ := newTestConnection(t)

	var doc struct {
		ID     string         `cbor:"id"`
		Fields map[string]any `cbor:"fields"`
	}
	err := conn.Send(context.Background(), &doc, "create", "tasks", "t1", map[string]any{"title": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "t1", doc.ID)
	assert.Equal(t, "hello", doc.Fields["title"])
}

func TestSendRemoteError(t *testing.T) {
	conn, _ := newTestConnection(t)

	err := conn.Send(context.Background(), nil, "explode")
	require.Error(t, err)

	var rpcErr *connection.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "unknown_method", rpcErr.Code)
}

func TestSendContextDeadline(t *testing.T) {
	conn, server := newTestConnection(t)
	server.StubMethod("create", fakecentral.Stub{Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := conn.Send(ctx, nil, "create", "tasks", "t1", map[string]any{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendTimeout(t *testing.T) {
	conn, server := newTestConnection(t)
	conn.Timeout = 50 * time.Millisecond
	server.StubMethod("create", fakecentral.Stub{Delay: time.Second})

	err := conn.Send(context.Background(), nil, "create", "tasks", "t1", map[string]any{})
	require.ErrorIs(t, err, status.ErrTimeout)
}

func TestSendAfterClose(t *testing.T) {
	conn, _ := newTestConnection(t)
	require.NoError(t, conn.Close(context.Background()))

	err := conn.Send(context.Background(), nil, "create", "tasks", "t1", map[string]any{})
	require.Error(t, err)
}

func TestNotificationChannelIDsAreExclusive(t *testing.T) {
	conn, _ := newTestConnection(t)

	_, err := conn.Notifications("sub-1")
	require.NoError(t, err)

	_, err = conn.Notifications("sub-1")
	require.ErrorIs(t, err, status.ErrIDInUse)

	// Releasing the ID makes it claimable again.
	conn.RemoveNotifications("sub-1")
	_, err = conn.Notifications("sub-1")
	require.NoError(t, err)
}

func TestNotificationDelivery(t *testing.T) {
	conn, server := newTestConnection(t)
	server.Seed("tasks", "t1", map[string]any{"title": "hello"})

	ch, err := conn.Notifications("sub-1")
	require.NoError(t, err)
	defer conn.RemoveNotifications("sub-1")

	err = conn.Send(context.Background(), nil, "subscribe", "sub-1", map[string]any{"collection": "tasks"})
	require.NoError(t, err)

	select {
	case n := <-ch:
		assert.Equal(t, "sub-1", n.SubscriptionID)
		assert.Nil(t, n.Error)
		assert.NotNil(t, n.Result)
	case <-time.After(3 * time.Second):
		t.Fatal("no notification arrived")
	}
}
