// Package testutil provides a fake Memos server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/memoirs/internal/models"
)

// MemosServer is an in-memory stand-in for the Memos v1 API.
type MemosServer struct {
	*httptest.Server

	mu      sync.Mutex
	memos   map[int64]models.Memo
	order   []int64
	failing map[int64]int
	hits    map[string]int
}

// NewMemosServer starts a fake server holding memos. It is closed when the
// test ends.
func NewMemosServer(t *testing.T, memos ...models.Memo) *MemosServer {
	t.Helper()
	s := &MemosServer{
		memos:   make(map[int64]models.Memo),
		failing: make(map[int64]int),
		hits:    make(map[string]int),
	}
	for _, m := range memos {
		s.Put(m)
	}

	r := chi.NewRouter()
	r.Get("/api/v1/memo/{id}", s.getMemo)
	r.Get("/api/v1/memo", s.listMemos)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Put adds or replaces a memo.
func (s *MemosServer) Put(m models.Memo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memos[m.ID]; !ok {
		s.order = append(s.order, m.ID)
	}
	if m.RowStatus == "" {
		m.RowStatus = models.RowStatusNormal
	}
	s.memos[m.ID] = m
}

// Fail makes requests for id answer with status.
func (s *MemosServer) Fail(id int64, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = status
}

// Hits returns how often path was requested (e.g. "/api/v1/memo/1").
func (s *MemosServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *MemosServer) getMemo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	status, failing := s.failing[id]
	m, ok := s.memos[id]
	s.mu.Unlock()

	switch {
	case failing:
		writeJSON(w, status, map[string]string{"error": "failure", "message": "forced failure"})
	case !ok:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found", "message": "memo not found"})
	default:
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *MemosServer) listMemos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	s.mu.Lock()
	s.hits[r.URL.Path]++
	out := []models.Memo{}
	for _, id := range s.order {
		m := s.memos[id]
		if u := q.Get("creatorUsername"); u != "" && m.CreatorUsername != u {
			continue
		}
		if st := q.Get("rowStatus"); st != "" && string(m.RowStatus) != st {
			continue
		}
		if tag := q.Get("tag"); tag != "" && !strings.Contains(m.Content, "#"+tag) {
			continue
		}
		if c := q.Get("content"); c != "" && !strings.Contains(m.Content, c) {
			continue
		}
		out = append(out, m)
	}
	s.mu.Unlock()

	if offset >= len(out) {
		out = []models.Memo{}
	} else {
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
