// Package fakecentral is an in-memory fake of the Central backend for
// tests: a WebSocket server speaking the CBOR RPC protocol with a
// document store, live subscriptions, an identity service and basic
// failure injection (per-method delays and forced errors).
package fakecentral

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"github.com/geekforce/central.go/internal/codec"
)

const tokenSecret = "fake-central-secret"

// Stub injects behavior into one RPC method: an artificial delay
// before the response, and/or a forced error instead of the normal
// result.
type Stub struct {
	Delay time.Duration
	Error *wireError
}

type wireError struct {
	Code    string `cbor:"code"`
	Message string `cbor:"message,omitempty"`
}

// Error builds a forced wire error for StubMethod.
func Error(code, message string) *wireError {
	return &wireError{Code: code, Message: message}
}

type wireRequest struct {
	ID     string `cbor:"id"`
	Method string `cbor:"method,omitempty"`
	Params []any  `cbor:"params,omitempty"`
}

type wireDoc struct {
	ID     string         `cbor:"id"`
	Fields map[string]any `cbor:"fields"`
}

type wireQuery struct {
	Collection string       `cbor:"collection"`
	Doc        string       `cbor:"doc,omitempty"`
	Filters    []wireFilter `cbor:"filters,omitempty"`
	OrderBy    *wireOrder   `cbor:"orderBy,omitempty"`
}

type wireFilter struct {
	Field string `cbor:"field"`
	Op    string `cbor:"op"`
	Value any    `cbor:"value"`
}

type wireOrder struct {
	Field     string `cbor:"field"`
	Direction string `cbor:"direction"`
}

type userRecord struct {
	UID       string
	Email     string
	Password  string
	Anonymous bool
}

type subscription struct {
	id    string
	query wireQuery
	conn  *clientConn
}

// Server is one fake backend instance. All state is in memory and
// shared across connections, like the hosted service.
type Server struct {
	mu            sync.Mutex
	tables        map[string]map[string]map[string]any
	users         map[string]*userRecord
	subscriptions map[string]*subscription
	stubs         map[string]Stub
	denied        map[string]bool

	httpServer *http.Server
	listener   net.Listener

	upgrader gorilla.Upgrader
	codec    *codec.CBOR

	clock func() time.Time
}

func New() *Server {
	return &Server{
		tables:        make(map[string]map[string]map[string]any),
		users:         make(map[string]*userRecord),
		subscriptions: make(map[string]*subscription),
		stubs:         make(map[string]Stub),
		denied:        make(map[string]bool),
		upgrader: gorilla.Upgrader{
			Subprotocols: []string{"cbor"},
			CheckOrigin:  func(*http.Request) bool { return true },
		},
		codec: codec.Default,
		clock: time.Now,
	}
}

// Start listens on a random loopback port and returns the ws:// base
// URL clients should connect to.
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	s.httpServer = &http.Server{Handler: mux}

	go func() { _ = s.httpServer.Serve(listener) }()

	return fmt.Sprintf("ws://%s", listener.Addr().String()), nil
}

func (s *Server) Stop() {
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
}

// StubMethod installs failure injection for an RPC method.
func (s *Server) StubMethod(method string, stub Stub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[method] = stub
}

// Deny makes every subscribe against the collection fail with
// permission_denied.
func (s *Server) Deny(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[collection] = true
}

// RegisterUser seeds an email/password account.
func (s *Server) RegisterUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := uuid.NewString()
	s.users[email] = &userRecord{UID: uid, Email: email, Password: password}
	return uid
}

// Seed inserts a document directly, without notifying subscriptions.
// Fields go through a codec round trip so they match the shape of
// fields written over the wire.
func (s *Server) Seed(collection, id string, fields map[string]any) {
	var normalized map[string]any
	if err := s.reencode(fields, &normalized); err != nil {
		normalized = fields
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(collection)[id] = normalized
}

// Document returns a stored document's fields, or nil.
func (s *Server) Document(collection, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table(collection)[id]
}

// SubscriptionCount reports live subscriptions for a collection,
// which is what the dedup tests assert on.
func (s *Server) SubscriptionCount(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.subscriptions {
		if sub.query.Collection == collection {
			n++
		}
	}
	return n
}

// table must be called with s.mu held.
func (s *Server) table(collection string) map[string]map[string]any {
	t, ok := s.tables[collection]
	if !ok {
		t = make(map[string]map[string]any)
		s.tables[collection] = t
	}
	return t
}

type clientConn struct {
	server *Server
	ws     *gorilla.Conn

	writeMu sync.Mutex
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cc := &clientConn{server: s, ws: ws}
	defer cc.close()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var req wireRequest
		if err := s.codec.Unmarshal(data, &req); err != nil {
			continue
		}
		cc.handle(req)
	}
}

func (cc *clientConn) close() {
	s := cc.server
	s.mu.Lock()
	for id, sub := range s.subscriptions {
		if sub.conn == cc {
			delete(s.subscriptions, id)
		}
	}
	s.mu.Unlock()
	_ = cc.ws.Close()
}

func (cc *clientConn) handle(req wireRequest) {
	s := cc.server

	s.mu.Lock()
	stub := s.stubs[req.Method]
	s.mu.Unlock()

	if stub.Delay > 0 {
		time.Sleep(stub.Delay)
	}
	if stub.Error != nil {
		cc.respondError(req.ID, stub.Error)
		return
	}

	switch req.Method {
	case "signin":
		cc.signIn(req)
	case "signup":
		cc.signUp(req)
	case "signin_anon":
		cc.signInAnonymous(req)
	case "create":
		cc.create(req)
	case "update":
		cc.mergeWrite(req, false)
	case "upsert":
		cc.mergeWrite(req, true)
	case "delete":
		cc.delete(req)
	case "subscribe":
		cc.subscribe(req)
	case "kill":
		cc.kill(req)
	default:
		cc.respondError(req.ID, &wireError{Code: "unknown_method", Message: req.Method})
	}
}

func (cc *clientConn) respond(id string, result any) {
	cc.write(map[string]any{"id": id, "result": result})
}

func (cc *clientConn) respondError(id string, werr *wireError) {
	cc.write(map[string]any{"id": id, "error": werr})
}

func (cc *clientConn) notify(subscriptionID string, result any, werr *wireError) {
	frame := map[string]any{"subscription": subscriptionID}
	if werr != nil {
		frame["error"] = werr
	} else {
		frame["result"] = result
	}
	cc.write(frame)
}

func (cc *clientConn) write(frame map[string]any) {
	data, err := cc.server.codec.Marshal(frame)
	if err != nil {
		return
	}
	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()
	_ = cc.ws.WriteMessage(gorilla.BinaryMessage, data)
}
