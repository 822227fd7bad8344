package central

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a filter operator supported by the backend.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a query to documents whose field matches value
// under the operator.
type Filter struct {
	Field string `cbor:"field"`
	Op    Op     `cbor:"op"`
	Value any    `cbor:"value"`
}

// Direction orders query results by a field.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Order struct {
	Field     string    `cbor:"field"`
	Direction Direction `cbor:"direction"`
}

// Query describes a live read: a whole collection, optionally
// filtered and ordered, or a single document when Doc is set.
//
// Two queries with equal parameters share one live server
// subscription, so descriptors should be built from the same values
// on re-subscription rather than varied per render.
type Query struct {
	Collection string   `cbor:"collection"`
	Doc        string   `cbor:"doc,omitempty"`
	Filters    []Filter `cbor:"filters,omitempty"`
	OrderBy    *Order   `cbor:"orderBy,omitempty"`
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(field string, op Op, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// SortBy returns a copy of q ordered by field.
func (q Query) SortBy(field string, dir Direction) Query {
	q.OrderBy = &Order{Field: field, Direction: dir}
	return q
}

// Key is the canonical identity of the query. Equal descriptors
// produce equal keys regardless of filter insertion order, which is
// what the subscription registry deduplicates on.
func (q Query) Key() string {
	parts := make([]string, 0, len(q.Filters)+3)
	parts = append(parts, "c="+q.Collection)
	if q.Doc != "" {
		parts = append(parts, "d="+q.Doc)
	}

	filters := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		filters = append(filters, fmt.Sprintf("f=%s%s%v", f.Field, f.Op, f.Value))
	}
	sort.Strings(filters)
	parts = append(parts, filters...)

	if q.OrderBy != nil {
		parts = append(parts, fmt.Sprintf("o=%s:%s", q.OrderBy.Field, q.OrderBy.Direction))
	}

	return strings.Join(parts, "|")
}
