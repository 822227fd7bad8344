package central

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/geekforce/central.go/pkg/connection"
	"github.com/geekforce/central.go/pkg/status"
)

// The Enqueue methods dispatch a write and return before the network
// round trip. The returned error is non-nil only for malformed local
// arguments (status.ErrInvalidArgument); remote rejection surfaces
// later through OnWriteError, and success is visible only through a
// live subscription on the affected collection.

// EnqueueCreate dispatches a document create. The document ID is
// chosen client-side (a ULID, so IDs sort by creation time) and the
// resulting DocRef is returned immediately for optimistic UI use.
func (c *Client) EnqueueCreate(ref CollectionRef, fields Fields) (DocRef, error) {
	if ref.isZero() {
		return DocRef{}, fmt.Errorf("%w: nil collection reference", status.ErrInvalidArgument)
	}
	if fields == nil {
		return DocRef{}, fmt.Errorf("%w: nil payload", status.ErrInvalidArgument)
	}

	doc := Doc(ref.Path, ulid.Make().String())
	c.dispatch("create", ref.Path, doc.ID, fields)
	return doc, nil
}

// EnqueueUpdate dispatches a field update of an existing document.
func (c *Client) EnqueueUpdate(ref DocRef, fields Fields) error {
	if ref.isZero() {
		return fmt.Errorf("%w: nil document reference", status.ErrInvalidArgument)
	}
	if fields == nil {
		return fmt.Errorf("%w: nil payload", status.ErrInvalidArgument)
	}

	c.dispatch("update", ref.Path(), fields)
	return nil
}

// EnqueueUpsert dispatches a merge write: fields are merged into the
// document, creating it when absent.
func (c *Client) EnqueueUpsert(ref DocRef, fields Fields) error {
	if ref.isZero() {
		return fmt.Errorf("%w: nil document reference", status.ErrInvalidArgument)
	}
	if fields == nil {
		return fmt.Errorf("%w: nil payload", status.ErrInvalidArgument)
	}

	c.dispatch("upsert", ref.Path(), fields)
	return nil
}

// EnqueueDelete dispatches a document delete.
func (c *Client) EnqueueDelete(ref DocRef) error {
	if ref.isZero() {
		return fmt.Errorf("%w: nil document reference", status.ErrInvalidArgument)
	}

	c.dispatch("delete", ref.Path())
	return nil
}

// dispatch runs the remote call on its own goroutine. Fire-and-forget
// mutations expose no cancellation handle, so the call runs under a
// background context bounded only by the transport timeout.
func (c *Client) dispatch(method string, params ...any) {
	go func() {
		err := c.conn.Send(context.Background(), nil, method, params...)
		if err == nil {
			return
		}

		c.logger.Warn("mutation rejected", "method", method, "error", err)

		message := err.Error()
		var rpcErr *connection.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Message != "" {
			message = rpcErr.Message
		}
		c.deliver(Outcome{Err: &status.Error{Kind: status.KindRemoteWrite, Message: message}})
	}()
}
