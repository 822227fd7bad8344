package central

import "github.com/geekforce/central.go/internal/codec"

// Document is a single record within a snapshot, keyed by a stable ID.
type Document struct {
	ID     string `cbor:"id"`
	Fields Fields `cbor:"fields"`
}

// As decodes the document fields into dest, which must be a pointer
// to a struct with cbor tags matching the field names. When the
// payload carries no "id" field the document ID is injected under it,
// so domain structs can declare an ID field without every writer
// duplicating the key into the payload.
func (d Document) As(dest any) error {
	fields := d.Fields
	if _, ok := fields["id"]; !ok && d.ID != "" {
		merged := make(Fields, len(fields)+1)
		for k, v := range fields {
			merged[k] = v
		}
		merged["id"] = d.ID
		fields = merged
	}

	c := codec.Default
	data, err := c.Marshal(fields)
	if err != nil {
		return err
	}
	return c.Unmarshal(data, dest)
}

// Snapshot is the materialized state of a subscribed query. Each
// delivery replaces the previous snapshot wholesale; consumers must
// treat it as read-only and route changes through the dispatcher.
//
// Exactly one of the three shapes is populated: Loading true on the
// first delivery, Err on a terminal failure (after which no further
// snapshots arrive), Docs otherwise.
type Snapshot struct {
	Docs    []Document
	Loading bool
	Err     error
}
