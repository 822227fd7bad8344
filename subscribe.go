package central

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/geekforce/central.go/internal/codec"
	"github.com/geekforce/central.go/pkg/connection"
	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/status"
)

// SnapshotFunc receives every snapshot for one subscription, in the
// order the backend applied the underlying changes. It runs on the
// subscription's dispatch goroutine; slow consumers delay only their
// own query's deliveries.
type SnapshotFunc func(Snapshot)

// Unsubscribe tears down one consumer's interest in a query. It is
// idempotent and safe to call after the connection closed; once it
// returns, the callback will not run again. It must not be called
// from inside the callback itself. When the last consumer of a query
// unsubscribes, the live server query is killed.
type Unsubscribe func()

// Subscribe opens a live view over q. fn is invoked once with a
// loading snapshot before Subscribe returns, then once per backend
// change for the lifetime of the subscription.
//
// Equal descriptors (same collection, filters, ordering) share a
// single live server query; each consumer still gets its own callback
// stream. A consumer joining an already-live query immediately
// receives the latest known snapshot after the loading one.
//
// If the backend rejects the query, fn receives one terminal snapshot
// with Err set and an empty document set, and is never called again.
func (c *Client) Subscribe(q Query, fn SnapshotFunc) (Unsubscribe, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("%w: query has no collection", status.ErrInvalidArgument)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil snapshot callback", status.ErrInvalidArgument)
	}

	return c.registry.add(q, fn)
}

// registry deduplicates live queries by canonical descriptor key and
// fans snapshots out to every consumer of the same query.
type registry struct {
	conn   connection.Connection
	logger logger.Logger

	mu     sync.Mutex
	live   map[string]*liveQuery
	closed bool
}

func newRegistry(conn connection.Connection, log logger.Logger) *registry {
	return &registry{
		conn:   conn,
		logger: log,
		live:   make(map[string]*liveQuery),
	}
}

func (r *registry) add(q Query, fn SnapshotFunc) (Unsubscribe, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, status.ErrClosed
	}
	r.mu.Unlock()

	// The loading snapshot comes after the closed check: a Subscribe
	// that fails never invokes the callback.
	fn(Snapshot{Loading: true})

	key := q.Key()
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, status.ErrClosed
		}
		lq, ok := r.live[key]
		if !ok {
			lq = newLiveQuery(r, q)
			r.live[key] = lq
			r.mu.Unlock()

			lq.start()
		} else {
			r.mu.Unlock()
		}

		consumer, alive := lq.attach(fn)
		if !alive {
			// Lost the race against the last unsubscribe tearing this
			// query down. Clear the stale entry and start over with a
			// fresh live query.
			r.mu.Lock()
			if r.live[key] == lq {
				delete(r.live, key)
			}
			r.mu.Unlock()
			continue
		}

		var once sync.Once
		return func() {
			once.Do(func() {
				if lq.detach(consumer) {
					r.drop(key, lq)
				}
			})
		}, nil
	}
}

// drop removes the live query from the registry and kills it on the
// server. Called when the last consumer detached.
func (r *registry) drop(key string, lq *liveQuery) {
	r.mu.Lock()
	if r.live[key] == lq {
		delete(r.live, key)
	}
	r.mu.Unlock()

	lq.kill()
}

func (r *registry) close() {
	r.mu.Lock()
	r.closed = true
	live := make([]*liveQuery, 0, len(r.live))
	for _, lq := range r.live {
		live = append(live, lq)
	}
	r.live = make(map[string]*liveQuery)
	r.mu.Unlock()

	for _, lq := range live {
		lq.stop()
	}
}

// liveQuery is one live server query shared by all consumers of an
// equal descriptor.
type liveQuery struct {
	registry *registry
	query    Query
	id       string

	mu        sync.Mutex
	consumers map[int]SnapshotFunc
	nextID    int
	last      *Snapshot
	terminal  bool
	// dead is set when the last consumer detaches or the registry
	// closes; a dead query never accepts another consumer.
	dead bool

	done     chan struct{}
	doneOnce sync.Once
}

func newLiveQuery(r *registry, q Query) *liveQuery {
	return &liveQuery{
		registry:  r,
		query:     q,
		id:        uuid.NewString(),
		consumers: make(map[int]SnapshotFunc),
		done:      make(chan struct{}),
	}
}

// start registers the notification channel before issuing the
// subscribe call, so the server's first push cannot race the channel
// into the void, then runs the dispatch loop.
func (lq *liveQuery) start() {
	ch, err := lq.registry.conn.Notifications(lq.id)
	if err != nil {
		lq.fail(err)
		return
	}

	go func() {
		if err := lq.registry.conn.Send(context.Background(), nil, "subscribe", lq.id, lq.query); err != nil {
			lq.registry.conn.RemoveNotifications(lq.id)
			lq.fail(err)
			return
		}
		lq.dispatch(ch)
	}()
}

func (lq *liveQuery) dispatch(ch chan connection.Notification) {
	for {
		select {
		case <-lq.done:
			return
		case n := <-ch:
			if n.Error != nil {
				lq.fail(n.Error)
				return
			}

			var docs []Document
			if err := codecUnmarshal(n.Result, &docs); err != nil {
				lq.registry.logger.Error("error unmarshaling snapshot", "collection", lq.query.Collection, "error", err)
				continue
			}
			lq.publish(Snapshot{Docs: docs})
		}
	}
}

// publish stores the snapshot as the latest and fans it out. Holding
// the lock across the callbacks keeps per-consumer ordering intact
// even while consumers attach concurrently.
func (lq *liveQuery) publish(s Snapshot) {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	if lq.terminal {
		return
	}
	lq.last = &s
	for _, fn := range lq.consumers {
		fn(s)
	}
}

// fail delivers the terminal error snapshot. Nothing follows it.
func (lq *liveQuery) fail(err error) {
	lq.registry.logger.Warn("subscription failed", "collection", lq.query.Collection, "error", err)

	message := err.Error()
	var rpcErr *connection.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Message != "" {
		message = rpcErr.Message
	}
	terminal := Snapshot{Err: &status.Error{Kind: status.KindSubscription, Message: message}}

	lq.mu.Lock()
	defer lq.mu.Unlock()
	if lq.terminal {
		return
	}
	lq.terminal = true
	lq.last = &terminal
	for _, fn := range lq.consumers {
		fn(terminal)
	}
}

// attach adds a consumer, replaying the latest known snapshot so a
// late joiner of a shared query is not stuck on loading until the
// next backend change. It reports false when the query has already
// been torn down; the caller then retries with a fresh one.
func (lq *liveQuery) attach(fn SnapshotFunc) (int, bool) {
	lq.mu.Lock()
	defer lq.mu.Unlock()

	if lq.dead {
		return 0, false
	}

	id := lq.nextID
	lq.nextID++
	lq.consumers[id] = fn

	if lq.last != nil {
		fn(*lq.last)
	}
	return id, true
}

// detach removes a consumer. When it was the last one the query is
// marked dead in the same critical section, so no new consumer can
// slip in between the decision to tear down and the teardown itself,
// and reports true exactly once.
func (lq *liveQuery) detach(id int) bool {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	delete(lq.consumers, id)
	if len(lq.consumers) > 0 || lq.dead {
		return false
	}
	lq.dead = true
	return true
}

// kill stops dispatch and releases the server-side query. Resources
// are released synchronously; only the kill RPC runs in the
// background, since there is nobody left to wait for it.
func (lq *liveQuery) kill() {
	lq.stop()

	go func() {
		if err := lq.registry.conn.Send(context.Background(), nil, "kill", lq.id); err != nil {
			lq.registry.logger.Debug("error killing live query", "error", err)
		}
	}()
}

func (lq *liveQuery) stop() {
	lq.mu.Lock()
	lq.dead = true
	lq.mu.Unlock()

	lq.doneOnce.Do(func() { close(lq.done) })
	lq.registry.conn.RemoveNotifications(lq.id)
}

func codecUnmarshal(raw cbor.RawMessage, dest any) error {
	if raw == nil {
		return errors.New("empty notification payload")
	}
	return codec.Default.Unmarshal(raw, dest)
}
