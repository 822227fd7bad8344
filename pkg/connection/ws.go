package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	gorilla "github.com/gorilla/websocket"

	"github.com/geekforce/central.go/internal/rand"
	"github.com/geekforce/central.go/pkg/status"
)

const (
	// DefaultTimeout bounds the wait for an RPC response after the
	// request was written; Send returns status.ErrTimeout when it
	// fires. Zero disables the wrap; use context deadlines instead.
	DefaultTimeout = 30 * time.Second

	requestIDLength = 16

	// notificationBuffer absorbs bursts of snapshot pushes so the read
	// loop keeps draining the socket while a consumer callback runs.
	notificationBuffer = 64

	closeMessageCode = 1000
)

// DefaultDialer is the gorilla dialer used by WebSocketConnection,
// with compression enabled and the cbor subprotocol announced.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
	Subprotocols:      []string{"cbor"},
}

// WebSocketConnection speaks the Central RPC protocol over a single
// WebSocket. Notifications are dispatched in the order frames arrive,
// which is what gives subscriptions their in-order snapshot guarantee.
type WebSocketConnection struct {
	BaseConnection

	Conn     *gorilla.Conn
	connLock sync.Mutex
	Timeout  time.Duration

	closeOnce  sync.Once
	closeChan  chan struct{}
	closeError error
}

// NewWebSocketConnection returns an unconnected transport. Call
// Connect before use.
func NewWebSocketConnection(p NewConnectionParams) *WebSocketConnection {
	return &WebSocketConnection{
		BaseConnection: BaseConnection{
			baseURL:     p.BaseURL,
			marshaler:   p.Marshaler,
			unmarshaler: p.Unmarshaler,
			logger:      p.Logger,

			responseChannels:     make(map[string]chan RPCResponse[cbor.RawMessage]),
			notificationChannels: make(map[string]chan Notification),
		},
		Timeout:   DefaultTimeout,
		closeChan: make(chan struct{}),
	}
}

func (ws *WebSocketConnection) Connect(ctx context.Context) error {
	if err := ws.preConnectionChecks(); err != nil {
		return err
	}

	conn, res, err := DefaultDialer.DialContext(ctx, fmt.Sprintf("%s/rpc", ws.baseURL), nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	ws.Conn = conn

	go ws.readLoop()
	return nil
}

// Close stops the read loop, tells the server we are going away and
// releases the underlying connection. The context only bounds the
// close-frame write; local teardown happens regardless.
func (ws *WebSocketConnection) Close(ctx context.Context) error {
	ws.connLock.Lock()
	defer ws.connLock.Unlock()

	ws.closeOnce.Do(func() { close(ws.closeChan) })

	if ws.Conn == nil {
		return nil
	}

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- ws.Conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(closeMessageCode, ""))
	}()

	select {
	case err := <-writeErr:
		if err != nil {
			ws.logger.Error("failed to write close message", "error", err)
		}
	case <-ctx.Done():
	}

	return ws.Conn.Close()
}

func (ws *WebSocketConnection) Send(ctx context.Context, dest any, method string, params ...any) error {
	if ws.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, ws.Timeout, status.ErrTimeout)
		defer cancel()
	}

	select {
	case <-ws.closeChan:
		if ws.closeError != nil {
			return ws.closeError
		}
		return status.ErrClosed
	case <-ctx.Done():
		return context.Cause(ctx)
	default:
	}

	id := rand.RequestID(requestIDLength)
	request := &RPCRequest{
		ID:     id,
		Method: method,
		Params: params,
	}

	responseChan, err := ws.createResponseChannel(id)
	if err != nil {
		return err
	}
	defer ws.removeResponseChannel(id)

	if err := ws.write(request); err != nil {
		return err
	}

	// status.ErrTimeout when our own deadline fired, the caller's
	// cause otherwise.
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case res, open := <-responseChan:
		if !open {
			return errors.New("response channel closed")
		}
		if res.Error != nil {
			return res.Error
		}
		if dest == nil || res.Result == nil {
			return nil
		}

		raw, err := res.Result.MarshalCBOR()
		if err != nil {
			return fmt.Errorf("error reading raw result: %w", err)
		}
		if err := ws.unmarshaler.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("error unmarshaling result: %w", err)
		}
		return nil
	}
}

func (ws *WebSocketConnection) write(v any) error {
	data, err := ws.marshaler.Marshal(v)
	if err != nil {
		return err
	}

	ws.connLock.Lock()
	defer ws.connLock.Unlock()
	return ws.Conn.WriteMessage(gorilla.BinaryMessage, data)
}

func (ws *WebSocketConnection) readLoop() {
	for {
		select {
		case <-ws.closeChan:
			return
		default:
			_, data, err := ws.Conn.ReadMessage()
			if err != nil {
				if ws.handleError(err) {
					return
				}
				continue
			}
			// Frames are handled inline, not per-goroutine: a
			// subscription must observe snapshots in arrival order.
			ws.handleFrame(data)
		}
	}
}

func (ws *WebSocketConnection) handleError(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		ws.closeError = net.ErrClosed
		ws.closeOnce.Do(func() { close(ws.closeChan) })
		return true
	}
	if gorilla.IsUnexpectedCloseError(err) || gorilla.IsCloseError(err, closeMessageCode) {
		ws.closeError = io.ErrClosedPipe
		ws.closeOnce.Do(func() { close(ws.closeChan) })
		return true
	}

	ws.logger.Error(err.Error())
	return false
}

// frame is the superset of response and notification shapes; the
// subscription field decides which one a frame is.
type frame struct {
	ID           string          `cbor:"id,omitempty"`
	Subscription string          `cbor:"subscription,omitempty"`
	Error        *RPCError       `cbor:"error,omitempty"`
	Result       cbor.RawMessage `cbor:"result,omitempty"`
}

func (ws *WebSocketConnection) handleFrame(data []byte) {
	var f frame
	if err := ws.unmarshaler.Unmarshal(data, &f); err != nil {
		ws.logger.Error("error unmarshaling frame", "error", err)
		return
	}

	if f.Subscription != "" {
		ws.dispatchNotification(Notification{
			SubscriptionID: f.Subscription,
			Error:          f.Error,
			Result:         f.Result,
		})
		return
	}

	if f.ID == "" {
		ws.logger.Error("frame carries neither a request id nor a subscription id")
		return
	}

	responseChan, ok := ws.getResponseChannel(f.ID)
	if !ok {
		ws.logger.Error("no response channel registered", "id", f.ID)
		return
	}
	defer close(responseChan)
	responseChan <- RPCResponse[cbor.RawMessage]{ID: f.ID, Error: f.Error, Result: &f.Result}
}

func (ws *WebSocketConnection) dispatchNotification(n Notification) {
	ch, ok := ws.getNotificationChannel(n.SubscriptionID)
	if !ok {
		// Killed subscriptions can race one last push; drop it.
		ws.logger.Debug("no notification channel registered", "subscription", n.SubscriptionID)
		return
	}

	select {
	case ch <- n:
	case <-ws.closeChan:
	}
}

var _ Connection = (*WebSocketConnection)(nil)
