package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Portal is a fake ENCODE server. Responses are registered by request URI
// (path plus raw query); unknown searches get the portal's 404 "No results
// found" body.
type Portal struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]portalResponse
	requests  []string

	// Key and Secret, when set, are required as basic auth.
	Key    string
	Secret string
}

type portalResponse struct {
	status int
	body   []byte
}

// NewPortal starts a fake portal that is closed when the test ends.
func NewPortal(t *testing.T) *Portal {
	t.Helper()
	p := &Portal{responses: make(map[string]portalResponse)}

	router := mux.NewRouter()
	router.HandleFunc("/matrix/", p.handle).Methods("GET")
	router.HandleFunc("/search/", p.handle).Methods("GET")
	router.Use(p.authMiddleware)

	p.Server = httptest.NewServer(router)
	t.Cleanup(p.Server.Close)
	return p
}

// Set registers a 200 response for a request URI.
func (p *Portal) Set(uri string, body []byte) {
	p.SetStatus(uri, http.StatusOK, body)
}

// SetStatus registers a response with an explicit status code.
func (p *Portal) SetStatus(uri string, status int, body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[uri] = portalResponse{status: status, body: body}
}

// Requests returns every request URI served so far, in order.
func (p *Portal) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]string, len(p.requests))
	copy(result, p.requests)
	return result
}

func (p *Portal) handle(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.RequestURI()

	p.mu.Lock()
	p.requests = append(p.requests, uri)
	resp, ok := p.responses[uri]
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write(SearchJSON(0))
		return
	}
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}

func (p *Portal) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.Key != "" {
			key, secret, ok := r.BasicAuth()
			if !ok || key != p.Key || secret != p.Secret {
				http.Error(w, `{"status":"error","code":401}`, http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
