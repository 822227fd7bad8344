package fakecentral

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/geekforce/central.go/pkg/status"
)

const serverTimestampSentinel = "$serverTimestamp"

func (cc *clientConn) create(req wireRequest) {
	collection, id, fields, ok := writeParams(req, 3)
	if !ok {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "malformed create params"})
		return
	}

	s := cc.server
	s.mu.Lock()
	table := s.table(collection)
	if _, exists := table[id]; exists {
		s.mu.Unlock()
		cc.respondError(req.ID, &wireError{Code: status.CodeAlreadyExists, Message: collection + "/" + id})
		return
	}
	stored := s.applySentinels(fields)
	table[id] = stored
	pushes := s.snapshotPushesLocked(collection)
	s.mu.Unlock()

	cc.respond(req.ID, wireDoc{ID: id, Fields: stored})
	deliver(pushes)
}

func (cc *clientConn) mergeWrite(req wireRequest, createIfAbsent bool) {
	collection, id, fields, ok := docWriteParams(req)
	if !ok {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "malformed write params"})
		return
	}

	s := cc.server
	s.mu.Lock()
	table := s.table(collection)
	existing, exists := table[id]
	if !exists {
		if !createIfAbsent {
			s.mu.Unlock()
			cc.respondError(req.ID, &wireError{Code: status.CodeNotFound, Message: collection + "/" + id})
			return
		}
		existing = make(map[string]any)
		table[id] = existing
	}
	for k, v := range s.applySentinels(fields) {
		existing[k] = v
	}
	pushes := s.snapshotPushesLocked(collection)
	s.mu.Unlock()

	cc.respond(req.ID, wireDoc{ID: id, Fields: existing})
	deliver(pushes)
}

func (cc *clientConn) delete(req wireRequest) {
	if len(req.Params) < 1 {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "missing document path"})
		return
	}
	path, _ := req.Params[0].(string)
	collection, id, ok := splitDocPath(path)
	if !ok {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "malformed document path"})
		return
	}

	s := cc.server
	s.mu.Lock()
	delete(s.table(collection), id)
	pushes := s.snapshotPushesLocked(collection)
	s.mu.Unlock()

	cc.respond(req.ID, nil)
	deliver(pushes)
}

func (cc *clientConn) subscribe(req wireRequest) {
	if len(req.Params) < 2 {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "malformed subscribe params"})
		return
	}
	subID, _ := req.Params[0].(string)
	var query wireQuery
	if subID == "" || cc.server.reencode(req.Params[1], &query) != nil || query.Collection == "" {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "malformed subscribe params"})
		return
	}

	s := cc.server
	s.mu.Lock()
	if s.denied[query.Collection] {
		s.mu.Unlock()
		cc.respondError(req.ID, &wireError{Code: status.CodePermissionDenied, Message: "missing read access on " + query.Collection})
		return
	}
	sub := &subscription{id: subID, query: query, conn: cc}
	s.subscriptions[subID] = sub
	initial := s.evaluateLocked(query)
	s.mu.Unlock()

	cc.respond(req.ID, nil)
	cc.notify(subID, initial, nil)
}

func (cc *clientConn) kill(req wireRequest) {
	if len(req.Params) < 1 {
		cc.respondError(req.ID, &wireError{Code: status.CodeInvalidArgument, Message: "missing subscription id"})
		return
	}
	subID, _ := req.Params[0].(string)

	s := cc.server
	s.mu.Lock()
	_, exists := s.subscriptions[subID]
	delete(s.subscriptions, subID)
	s.mu.Unlock()

	if !exists {
		cc.respondError(req.ID, &wireError{Code: status.CodeNotFound, Message: subID})
		return
	}
	cc.respond(req.ID, nil)
}

// snapshotPushesLocked recomputes every live query over the mutated
// collection. Must be called with s.mu held; the returned closures
// are run after unlock so socket writes never happen under the store
// lock, while the per-subscription push order still follows the apply
// order.
func (s *Server) snapshotPushesLocked(collection string) []func() {
	var pushes []func()
	for _, sub := range s.subscriptions {
		if sub.query.Collection != collection {
			continue
		}
		sub := sub
		docs := s.evaluateLocked(sub.query)
		pushes = append(pushes, func() { sub.conn.notify(sub.id, docs, nil) })
	}
	return pushes
}

func deliver(pushes []func()) {
	for _, push := range pushes {
		push()
	}
}

// evaluateLocked materializes the query result. Must be called with
// s.mu held.
func (s *Server) evaluateLocked(query wireQuery) []wireDoc {
	table := s.table(query.Collection)

	docs := make([]wireDoc, 0, len(table))
	for id, fields := range table {
		if query.Doc != "" && id != query.Doc {
			continue
		}
		if !matches(fields, query.Filters) {
			continue
		}
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		docs = append(docs, wireDoc{ID: id, Fields: copied})
	}

	if query.OrderBy != nil {
		field, desc := query.OrderBy.Field, query.OrderBy.Direction == "desc"
		sort.SliceStable(docs, func(i, j int) bool {
			less := compareValues(docs[i].Fields[field], docs[j].Fields[field]) < 0
			if desc {
				return !less
			}
			return less
		})
	} else {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}

	return docs
}

func matches(fields map[string]any, filters []wireFilter) bool {
	for _, f := range filters {
		value, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case "==":
			if !equalLoose(value, f.Value) {
				return false
			}
		case "array-contains":
			items, ok := value.([]any)
			if !ok {
				return false
			}
			found := false
			for _, item := range items {
				if equalLoose(item, f.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// equalLoose compares values that went through a CBOR round trip, so
// numeric types are normalized before comparison.
func equalLoose(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// applySentinels replaces server-side sentinels. Must be called with
// s.mu held (clock access is cheap, the lock just keeps apply order
// deterministic).
func (s *Server) applySentinels(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if sv, ok := v.(string); ok && sv == serverTimestampSentinel {
			out[k] = s.clock().UTC()
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Server) reencode(src, dst any) error {
	data, err := s.codec.Marshal(src)
	if err != nil {
		return err
	}
	return s.codec.Unmarshal(data, dst)
}

func writeParams(req wireRequest, n int) (collection, id string, fields map[string]any, ok bool) {
	if len(req.Params) < n {
		return "", "", nil, false
	}
	collection, _ = req.Params[0].(string)
	id, _ = req.Params[1].(string)
	fields, _ = req.Params[2].(map[string]any)
	if collection == "" || id == "" || fields == nil {
		return "", "", nil, false
	}
	return collection, id, fields, true
}

func docWriteParams(req wireRequest) (collection, id string, fields map[string]any, ok bool) {
	if len(req.Params) < 2 {
		return "", "", nil, false
	}
	path, _ := req.Params[0].(string)
	fields, _ = req.Params[1].(map[string]any)
	collection, id, pathOK := splitDocPath(path)
	if !pathOK || fields == nil {
		return "", "", nil, false
	}
	return collection, id, fields, true
}

func splitDocPath(path string) (collection, id string, ok bool) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", false
	}
	return path[:idx], path[idx+1:], true
}
