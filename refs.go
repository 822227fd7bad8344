package central

// Fields is the payload of a document write: field name to value.
type Fields map[string]any

// CollectionRef addresses a named collection in the document store.
type CollectionRef struct {
	Path string
}

// Collection returns a reference to the collection at path, e.g.
// "users" or "chat_messages".
func Collection(path string) CollectionRef {
	return CollectionRef{Path: path}
}

func (r CollectionRef) isZero() bool {
	return r.Path == ""
}

// DocRef addresses a single document within a collection.
type DocRef struct {
	Collection string
	ID         string
}

// Doc returns a reference to the document id within collection.
func Doc(collection, id string) DocRef {
	return DocRef{Collection: collection, ID: id}
}

func (r DocRef) isZero() bool {
	return r.Collection == "" || r.ID == ""
}

// Path is the wire form of the reference, "collection/id".
func (r DocRef) Path() string {
	return r.Collection + "/" + r.ID
}
