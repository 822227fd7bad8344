package central_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	central "github.com/geekforce/central.go"
)

func TestQueryKeyFilterOrderIndependent(t *testing.T) {
	a := central.Query{Collection: "tasks"}.
		Where("status", central.OpEqual, "Todo").
		Where("assigneeId", central.OpEqual, "u1")
	b := central.Query{Collection: "tasks"}.
		Where("assigneeId", central.OpEqual, "u1").
		Where("status", central.OpEqual, "Todo")

	assert.Equal(t, a.Key(), b.Key())
}

func TestQueryKeyDistinguishesParameters(t *testing.T) {
	base := central.Query{Collection: "tasks"}
	keys := []string{
		base.Key(),
		central.Query{Collection: "events"}.Key(),
		central.Query{Collection: "tasks", Doc: "t1"}.Key(),
		base.Where("status", central.OpEqual, "Todo").Key(),
		base.Where("status", central.OpEqual, "Done").Key(),
		base.Where("attendeeIds", central.OpArrayContains, "u1").Key(),
		base.SortBy("dueDate", central.Asc).Key(),
		base.SortBy("dueDate", central.Desc).Key(),
	}

	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		_, dup := seen[k]
		assert.False(t, dup, "duplicate key %q", k)
		seen[k] = struct{}{}
	}
}

func TestWhereDoesNotMutateReceiver(t *testing.T) {
	base := central.Query{Collection: "tasks"}.Where("status", central.OpEqual, "Todo")
	_ = base.Where("assigneeId", central.OpEqual, "u1")
	_ = base.Where("assigneeId", central.OpEqual, "u2")

	require.Len(t, base.Filters, 1)
	assert.Equal(t, "status", base.Filters[0].Field)
}

func TestDocumentAs(t *testing.T) {
	doc := central.Document{
		ID: "t1",
		Fields: map[string]any{
			"title":  "Fix the boot loop",
			"status": "Todo",
		},
	}

	var task struct {
		ID     string `cbor:"id"`
		Title  string `cbor:"title"`
		Status string `cbor:"status"`
	}
	require.NoError(t, doc.As(&task))
	assert.Equal(t, "t1", task.ID, "document id is injected when missing from fields")
	assert.Equal(t, "Fix the boot loop", task.Title)
	assert.Equal(t, "Todo", task.Status)
}

func TestRefs(t *testing.T) {
	coll := central.Collection("tasks")
	assert.Equal(t, "tasks", coll.Path)

	doc := central.Doc("tasks", "t1")
	assert.Equal(t, "tasks/t1", doc.Path())
}
