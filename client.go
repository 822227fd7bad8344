package central

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/geekforce/central.go/internal/codec"
	"github.com/geekforce/central.go/pkg/connection"
	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/status"
)

// Config configures a Client.
type Config struct {
	// URL is the backend base URL, e.g. "ws://central.geekforce.dev".
	URL string

	// Logger defaults to a JSON slog logger on stdout.
	Logger logger.Logger

	// Connection overrides the transport. Used by tests; normal
	// callers leave it nil and get a WebSocket connection to URL.
	Connection connection.Connection
}

// Client is the SDK facade: the non-blocking mutation dispatcher, the
// subscription registry and the auth session hang off it. A Client is
// safe for concurrent use.
type Client struct {
	conn   connection.Connection
	logger logger.Logger

	writeObserverLock sync.RWMutex
	writeObserver     func(*status.Error)

	registry *registry

	sessionOnce sync.Once
	session     *Session
}

// Connect establishes the transport and returns a ready Client.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	conn := cfg.Connection
	if conn == nil {
		conn = connection.NewWebSocketConnection(connection.NewConnectionParams{
			BaseURL:     cfg.URL,
			Marshaler:   codec.Default,
			Unmarshaler: codec.Default,
			Logger:      log,
		})
	}

	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	c := &Client{
		conn:   conn,
		logger: log,
	}
	c.registry = newRegistry(conn, log)
	return c, nil
}

// OnWriteError registers the client-wide observer notified when a
// previously dispatched mutation is rejected by the backend. Passing
// nil removes the observer; rejections are then logged and dropped.
func (c *Client) OnWriteError(fn func(*status.Error)) {
	c.writeObserverLock.Lock()
	defer c.writeObserverLock.Unlock()
	c.writeObserver = fn
}

// Session returns the auth session bound to this client's connection.
// The first call starts the auth-state listener.
func (c *Client) Session() *Session {
	c.sessionOnce.Do(func() {
		c.session = newSession(c.conn, c.logger)
	})
	return c.session
}

// Close tears down the session, all live subscriptions and the
// transport.
func (c *Client) Close(ctx context.Context) error {
	if c.session != nil {
		c.session.close()
	}
	c.registry.close()
	return c.conn.Close(ctx)
}
