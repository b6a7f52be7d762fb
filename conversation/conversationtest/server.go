// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversationtest provides an in-memory conversation service
// for tests.
//
// [NewServer] starts an httptest server implementing the subset of the
// service the conversation client uses: listing, fetching and creating
// conversations, one-on-one lookup by participant, activity and content
// submission, mentions, user lookup, and a discovery catalog. One-on-one
// creation is idempotent by participant pair, as the real service is.
// Every submitted activity and created conversation is stamped with the
// server's clock. Requests are recorded for assertions, and failures can
// be injected per route.
//
// [NewClient] wires a conversation.Client against the server through
// the real request, catalog, identity and kms packages.
package conversationtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stonedpebbles/spark/conversation"
	"github.com/stonedpebbles/spark/lib/clock"
)

// Request is one recorded request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Server is a fake conversation service.
type Server struct {
	httpServer *httptest.Server
	clock      clock.Clock

	mu            sync.Mutex
	conversations map[string]*conversation.Conversation
	order         []string
	left          map[string]bool
	oneOnOne      map[string]string
	mentions      []conversation.Activity
	users         map[string]string
	requests      []Request
	failures      map[string][]int
	descending    bool
}

// NewServer starts a Server, closed when the test completes. clk stamps
// published times; nil uses a fake clock at 2026-01-01 stepping one
// second per stamp.
func NewServer(t testing.TB, clk clock.Clock) *Server {
	t.Helper()
	if clk == nil {
		fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		fake.SetStep(time.Second)
		clk = fake
	}
	s := &Server{
		clock:         clk,
		conversations: make(map[string]*conversation.Conversation),
		left:          make(map[string]bool),
		oneOnOne:      make(map[string]string),
		users:         make(map[string]string),
		failures:      make(map[string][]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /discovery", s.handleDiscovery)
	mux.HandleFunc("GET /conversations", s.handleList)
	mux.HandleFunc("GET /conversations/left", s.handleListLeft)
	mux.HandleFunc("POST /conversations", s.handleCreate)
	mux.HandleFunc("GET /conversations/user/{user}", s.handleGetByUser)
	mux.HandleFunc("GET /conversations/{id}", s.handleGet)
	mux.HandleFunc("POST /activities", s.handleSubmit)
	mux.HandleFunc("POST /content", s.handleSubmit)
	mux.HandleFunc("GET /activities", s.handleListActivities)
	mux.HandleFunc("GET /mentions", s.handleMentions)
	mux.HandleFunc("POST /users", s.handleUsers)

	s.httpServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
		})
		status := s.popFailure(r.Method + " " + r.URL.Path)
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.httpServer.Close)
	return s
}

// URL returns the service base URL.
func (s *Server) URL() string { return s.httpServer.URL }

// DiscoveryURL returns the URL of the fake's service catalog.
func (s *Server) DiscoveryURL() string { return s.httpServer.URL + "/discovery" }

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsTo returns the recorded requests matching method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var matched []Request
	for _, request := range s.Requests() {
		if request.Method == method && request.Path == path {
			matched = append(matched, request)
		}
	}
	return matched
}

// FailNext makes the next request to method and path fail with status.
// Calls queue.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], status)
}

// SetDescending makes list endpoints return newest items first.
func (s *Server) SetDescending(descending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descending = descending
}

// AddUser registers email as belonging to id.
func (s *Server) AddUser(email, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = id
}

// Seed stores conversation as-is, assigning an id and url when absent,
// and returns the stored copy.
func (s *Server) Seed(seed conversation.Conversation) conversation.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.store(seed)
	return *cloneConversation(stored)
}

// AddMention records activity as mentioning the caller.
func (s *Server) AddMention(activity conversation.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mentions = append(s.mentions, activity)
}

// Conversation returns the stored conversation with id.
func (s *Server) Conversation(id string) (conversation.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.conversations[id]
	if !ok {
		return conversation.Conversation{}, false
	}
	return *cloneConversation(stored), true
}

// ConversationCount returns how many conversations exist.
func (s *Server) ConversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func (s *Server) popFailure(key string) int {
	queue := s.failures[key]
	if len(queue) == 0 {
		return 0
	}
	s.failures[key] = queue[1:]
	return queue[0]
}

// store must be called with s.mu held.
func (s *Server) store(c conversation.Conversation) *conversation.Conversation {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.URL == "" {
		c.URL = s.httpServer.URL + "/conversations/" + c.ID
	}
	if c.ObjectType == "" {
		c.ObjectType = conversation.ObjectTypeConversation
	}
	if c.KMSResourceObjectURL == "" {
		c.KMSResourceObjectURL = "kms://fake/resources/" + c.ID
	}
	if c.Published == nil {
		published := s.clock.Now()
		c.Published = &published
	}
	stored := cloneConversation(&c)
	if _, exists := s.conversations[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.conversations[c.ID] = stored

	ids := stored.ParticipantIDs()
	if stored.HasTag(conversation.TagOneOnOne) && len(ids) == 2 {
		s.oneOnOne[pairKey(ids[0], ids[1])] = stored.ID
	}
	return stored
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func cloneConversation(c *conversation.Conversation) *conversation.Conversation {
	data, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	var clone conversation.Conversation
	if err := json.Unmarshal(data, &clone); err != nil {
		panic(err)
	}
	return &clone
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"message":    message,
		"trackingId": "fake_" + strconv.Itoa(status),
	})
}

func intQuery(query url.Values, name string) int {
	value, err := strconv.Atoi(query.Get(name))
	if err != nil {
		return 0
	}
	return value
}
