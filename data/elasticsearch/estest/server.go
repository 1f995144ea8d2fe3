// Package estest provides an in-process fake Elasticsearch endpoint for tests.
//
// It implements just enough of the REST API for the adapter: cluster info and
// ping, index exists/create/delete, document indexing, delete-by-query and
// search with match_all, term and match queries.
package estest

import (
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Version is the server version reported by the fake cluster.
const Version = "8.18.0"

// Server is a fake Elasticsearch cluster backed by memory.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	indices map[string]*Index
	nextID  int

	// Username and Password, when set, are required as basic auth.
	Username string
	Password string
	// NackDelete makes index deletion respond with acknowledged=false.
	NackDelete bool
	// FailSearch makes every search respond with a server error.
	FailSearch bool
}

// Index is the stored state of one index.
type Index struct {
	Settings map[string]any
	Mappings map[string]any
	Docs     []Doc
}

// Doc is one stored document.
type Doc struct {
	ID     string
	Source map[string]any
}

// NewServer starts a plain HTTP fake cluster.
func NewServer() *Server {
	s := &Server{indices: make(map[string]*Index)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// NewTLSServer starts a fake cluster serving HTTPS with a self-signed certificate.
func NewTLSServer() *Server {
	s := &Server{indices: make(map[string]*Index)}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	return s
}

// Index returns a copy of the named index state.
func (s *Server) Index(name string) (Index, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indices[name]
	if !ok {
		return Index{}, false
	}
	docs := make([]Doc, len(idx.Docs))
	copy(docs, idx.Docs)
	return Index{Settings: idx.Settings, Mappings: idx.Mappings, Docs: docs}, true
}

// AddIndex creates an index directly, bypassing the API.
func (s *Server) AddIndex(name string, settings, mappings map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices[name] = &Index{Settings: settings, Mappings: mappings}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if s.Username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			writeError(w, http.StatusUnauthorized, "security_exception", "missing authentication credentials")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case parts[0] == "":
		s.handleRoot(w, r)
	case len(parts) == 1:
		s.handleIndex(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "_doc" && r.Method == http.MethodPost:
		s.handleStore(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "_search":
		s.handleSearch(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "_delete_by_query" && r.Method == http.MethodPost:
		s.handleDeleteByQuery(w, r, parts[0])
	default:
		writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported request "+r.Method+" "+r.URL.Path)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         "estest",
		"cluster_name": "estest-cluster",
		"version":      map[string]any{"number": Version},
		"tagline":      "You Know, for Search",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, name string) {
	idx, exists := s.indices[name]

	switch r.Method {
	case http.MethodHead:
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		if exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+name+"] already exists")
			return
		}
		var body struct {
			Settings map[string]any `json:"settings"`
			Mappings map[string]any `json:"mappings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
			return
		}
		s.indices[name] = &Index{Settings: body.Settings, Mappings: body.Mappings}
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "shards_acknowledged": true, "index": name})
	case http.MethodDelete:
		if !exists {
			writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
			return
		}
		if s.NackDelete {
			writeJSON(w, http.StatusOK, map[string]any{"acknowledged": false})
			return
		}
		delete(s.indices, name)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
	case http.MethodGet:
		if !exists {
			writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{name: map[string]any{"settings": idx.Settings, "mappings": idx.Mappings}})
	default:
		writeError(w, http.StatusMethodNotAllowed, "illegal_argument_exception", "method not allowed")
	}
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request, name string) {
	var source map[string]any
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		writeError(w, http.StatusBadRequest, "mapper_parsing_exception", err.Error())
		return
	}

	idx, ok := s.indices[name]
	if !ok {
		idx = &Index{}
		s.indices[name] = idx
	}

	s.nextID++
	id := "doc-" + strconv.Itoa(s.nextID)
	idx.Docs = append(idx.Docs, Doc{ID: id, Source: source})

	writeJSON(w, http.StatusCreated, map[string]any{"_index": name, "_id": id, "result": "created"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, name string) {
	if s.FailSearch {
		writeError(w, http.StatusInternalServerError, "search_phase_execution_exception", "all shards failed")
		return
	}

	idx, ok := s.indices[name]
	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
		return
	}

	matches, err := matcher(body["query"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
		return
	}

	size := 10
	if v := r.URL.Query().Get("size"); v != "" {
		size, _ = strconv.Atoi(v)
	}

	hits := []map[string]any{}
	total := 0
	for _, d := range idx.Docs {
		if !matches(d.Source) {
			continue
		}
		total++
		if len(hits) < size {
			hits = append(hits, map[string]any{"_index": name, "_id": d.ID, "_score": 1.0, "_source": d.Source})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total":     map[string]any{"value": total, "relation": "eq"},
			"max_score": 1.0,
			"hits":      hits,
		},
	})
}

func (s *Server) handleDeleteByQuery(w http.ResponseWriter, r *http.Request, name string) {
	idx, ok := s.indices[name]
	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
		return
	}
	matches, err := matcher(body["query"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
		return
	}

	kept := idx.Docs[:0]
	deleted := 0
	for _, d := range idx.Docs {
		if matches(d.Source) {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	idx.Docs = kept

	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "failures": []any{}})
}

// matcher compiles the supported query clauses. An absent query matches all.
func matcher(q any) (func(map[string]any) bool, error) {
	if q == nil {
		return func(map[string]any) bool { return true }, nil
	}

	clause, ok := q.(map[string]any)
	if !ok || len(clause) != 1 {
		return nil, fmt.Errorf("query malformed, expected a single clause")
	}

	for kind, arg := range clause {
		switch kind {
		case "match_all":
			return func(map[string]any) bool { return true }, nil
		case "term", "match":
			field, want, err := fieldValue(arg, kind)
			if err != nil {
				return nil, err
			}
			return func(src map[string]any) bool {
				got, ok := src[field]
				return ok && fmt.Sprint(got) == fmt.Sprint(want)
			}, nil
		default:
			return nil, fmt.Errorf("unknown query [%s]", kind)
		}
	}
	return nil, fmt.Errorf("query malformed, empty clause found")
}

func fieldValue(arg any, kind string) (string, any, error) {
	m, ok := arg.(map[string]any)
	if !ok || len(m) != 1 {
		return "", nil, fmt.Errorf("[%s] query malformed", kind)
	}

	var (
		field string
		value any
	)
	for k, v := range m {
		field, value = k, v
	}

	if inner, ok := value.(map[string]any); ok {
		for _, key := range []string{"value", "query"} {
			if v, ok := inner[key]; ok {
				return field, v, nil
			}
		}
		return "", nil, fmt.Errorf("[%s] query malformed, no value for field [%s]", kind, field)
	}
	return field, value, nil
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": typ, "reason": reason},
		"status": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteCACert writes the TLS server certificate as PEM into dir and returns
// the file path. It fails for a plain HTTP server.
func (s *Server) WriteCACert(dir string) (string, error) {
	cert := s.Certificate()
	if cert == nil {
		return "", errors.New("estest: server has no TLS certificate")
	}
	path := filepath.Join(dir, "estest-ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
