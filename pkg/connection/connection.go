// Package connection implements the RPC transport to the Central
// backend: request/response correlation over a single connection plus
// server-initiated notification streams for live subscriptions and
// auth state.
package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/geekforce/central.go/internal/codec"
	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/status"
)

// Connection is the transport used by the SDK facade. Send blocks
// until the response for this one call arrives; the non-blocking
// behavior the SDK promises is layered above this, never inside it.
type Connection interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error

	// Send issues one RPC and decodes the result into dest, which must
	// be a pointer or nil when the caller discards the result.
	Send(ctx context.Context, dest any, method string, params ...any) error

	// Notifications registers a channel for server pushes addressed to
	// the given subscription ID. It fails with status.ErrIDInUse when
	// the ID is already claimed.
	Notifications(id string) (chan Notification, error)

	// RemoveNotifications releases the channel for id. Safe to call
	// for an unknown id.
	RemoveNotifications(id string)
}

// NewConnectionParams configures a connection.
type NewConnectionParams struct {
	BaseURL     string
	Marshaler   codec.Marshaler
	Unmarshaler codec.Unmarshaler
	Logger      logger.Logger
}

// BaseConnection holds the channel bookkeeping shared by transports.
type BaseConnection struct {
	baseURL     string
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger

	responseChannels     map[string]chan RPCResponse[cbor.RawMessage]
	responseChannelsLock sync.RWMutex

	notificationChannels     map[string]chan Notification
	notificationChannelsLock sync.RWMutex
}

func (bc *BaseConnection) createResponseChannel(id string) (chan RPCResponse[cbor.RawMessage], error) {
	bc.responseChannelsLock.Lock()
	defer bc.responseChannelsLock.Unlock()

	if _, ok := bc.responseChannels[id]; ok {
		return nil, fmt.Errorf("%w: %v", status.ErrIDInUse, id)
	}

	// Buffered so the read loop never blocks on a response delivery.
	ch := make(chan RPCResponse[cbor.RawMessage], 1)
	bc.responseChannels[id] = ch

	return ch, nil
}

func (bc *BaseConnection) getResponseChannel(id string) (chan RPCResponse[cbor.RawMessage], bool) {
	bc.responseChannelsLock.RLock()
	defer bc.responseChannelsLock.RUnlock()
	ch, ok := bc.responseChannels[id]
	return ch, ok
}

func (bc *BaseConnection) removeResponseChannel(id string) {
	bc.responseChannelsLock.Lock()
	defer bc.responseChannelsLock.Unlock()
	delete(bc.responseChannels, id)
}

func (bc *BaseConnection) createNotificationChannel(id string) (chan Notification, error) {
	bc.notificationChannelsLock.Lock()
	defer bc.notificationChannelsLock.Unlock()

	if _, ok := bc.notificationChannels[id]; ok {
		return nil, fmt.Errorf("%w: %v", status.ErrIDInUse, id)
	}

	ch := make(chan Notification, notificationBuffer)
	bc.notificationChannels[id] = ch

	return ch, nil
}

func (bc *BaseConnection) getNotificationChannel(id string) (chan Notification, bool) {
	bc.notificationChannelsLock.RLock()
	defer bc.notificationChannelsLock.RUnlock()
	ch, ok := bc.notificationChannels[id]
	return ch, ok
}

// Notifications implements Connection.
func (bc *BaseConnection) Notifications(id string) (chan Notification, error) {
	return bc.createNotificationChannel(id)
}

// RemoveNotifications implements Connection.
func (bc *BaseConnection) RemoveNotifications(id string) {
	bc.notificationChannelsLock.Lock()
	defer bc.notificationChannelsLock.Unlock()
	delete(bc.notificationChannels, id)
}

func (bc *BaseConnection) preConnectionChecks() error {
	if bc.baseURL == "" {
		return status.ErrNoBaseURL
	}
	if bc.marshaler == nil {
		return status.ErrNoMarshaler
	}
	if bc.unmarshaler == nil {
		return status.ErrNoUnmarshaler
	}
	return nil
}
