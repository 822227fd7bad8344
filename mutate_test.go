package central_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/internal/fakecentral"
	"github.com/geekforce/central.go/pkg/status"
)

func TestEnqueueCreateReturnsBeforeWriteSettles(t *testing.T) {
	client, server := newTestClient(t)

	const delay = 300 * time.Millisecond
	server.StubMethod("create", fakecentral.Stub{Delay: delay})

	start := time.Now()
	ref, err := client.EnqueueCreate(central.Collection("tasks"), central.Fields{"title": "Swap the platters"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotEmpty(t, ref.ID)
	assert.Less(t, elapsed, delay/2, "dispatch must not wait for the remote write")

	// The write still lands once the injected delay elapses.
	require.Eventually(t, func() bool {
		return server.Document("tasks", ref.ID) != nil
	}, waitFor, 10*time.Millisecond)
}

func TestEnqueueInvalidArgumentFailsFast(t *testing.T) {
	client, server := newTestClient(t)

	_, err := client.EnqueueCreate(central.CollectionRef{}, central.Fields{"title": "x"})
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	_, err = client.EnqueueCreate(central.Collection("tasks"), nil)
	require.ErrorIs(t, err, status.ErrInvalidArgument)

	require.ErrorIs(t, client.EnqueueUpdate(central.DocRef{}, central.Fields{"a": 1}), status.ErrInvalidArgument)
	require.ErrorIs(t, client.EnqueueUpdate(central.Doc("tasks", "t1"), nil), status.ErrInvalidArgument)
	require.ErrorIs(t, client.EnqueueUpsert(central.DocRef{}, central.Fields{"a": 1}), status.ErrInvalidArgument)
	require.ErrorIs(t, client.EnqueueDelete(central.DocRef{}), status.ErrInvalidArgument)

	// Malformed arguments never reach the network.
	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, server.Document("tasks", "t1"))
}

func TestWriteErrorObserver(t *testing.T) {
	client, _ := newTestClient(t)

	var mu sync.Mutex
	var received []*status.Error
	client.OnWriteError(func(e *status.Error) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})

	// Updating a document that does not exist is rejected remotely;
	// the call itself still succeeds.
	require.NoError(t, client.EnqueueUpdate(central.Doc("tasks", "nope"), central.Fields{"status": "Done"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, waitFor, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, status.KindRemoteWrite, received[0].Kind)
}

func TestWriteErrorDroppedWithoutObserver(t *testing.T) {
	client, server := newTestClient(t)

	// No observer registered: the rejection is logged and dropped,
	// and later writes still work.
	require.NoError(t, client.EnqueueUpdate(central.Doc("tasks", "nope"), central.Fields{"status": "Done"}))

	ref, err := client.EnqueueCreate(central.Collection("tasks"), central.Fields{"title": "Reflow the GPU"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return server.Document("tasks", ref.ID) != nil
	}, waitFor, 10*time.Millisecond)
}

func TestEnqueueDeleteRemovesDocument(t *testing.T) {
	client, server := newTestClient(t)
	server.Seed("tasks", "t1", map[string]any{"title": "Old mission"})

	require.NoError(t, client.EnqueueDelete(central.Doc("tasks", "t1")))

	require.Eventually(t, func() bool {
		return server.Document("tasks", "t1") == nil
	}, waitFor, 10*time.Millisecond)
}

func TestEnqueueUpsertMerges(t *testing.T) {
	client, server := newTestClient(t)
	server.Seed("users", "u1", map[string]any{"username": "Larry", "role": "Field Agent Lead"})

	require.NoError(t, client.EnqueueUpsert(central.Doc("users", "u1"), central.Fields{"status": "away"}))

	require.Eventually(t, func() bool {
		doc := server.Document("users", "u1")
		return doc != nil && doc["status"] == "away" && doc["username"] == "Larry"
	}, waitFor, 10*time.Millisecond)
}
