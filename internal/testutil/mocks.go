package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/nishad/encode-audit/internal/encode"
)

// MockFetcher is an in-memory encode.Fetcher.
type MockFetcher struct {
	mu       sync.Mutex
	searches []string

	Server        string
	MatrixResult  *encode.AggregationResult
	MatrixErr     error
	SearchResults map[string]*encode.RefinementResult
	SearchErr     error
}

// NewMockFetcher creates a mock serving the given matrix.
func NewMockFetcher(matrix *encode.AggregationResult) *MockFetcher {
	return &MockFetcher{
		Server:        "https://portal.test",
		MatrixResult:  matrix,
		SearchResults: make(map[string]*encode.RefinementResult),
	}
}

// Matrix returns the configured matrix.
func (m *MockFetcher) Matrix(ctx context.Context, path string) (*encode.AggregationResult, error) {
	return m.MatrixResult, m.MatrixErr
}

// Search records the query and returns its configured result, or an
// empty result when none is registered.
func (m *MockFetcher) Search(ctx context.Context, path string) (*encode.RefinementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, path)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if res, ok := m.SearchResults[path]; ok {
		return res, nil
	}
	return &encode.RefinementResult{}, nil
}

// URL joins the mock server with a path.
func (m *MockFetcher) URL(path string) string {
	return fmt.Sprintf("%s%s", m.Server, path)
}

// Searches returns all search queries received, in order.
func (m *MockFetcher) Searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.searches))
	copy(result, m.searches)
	return result
}
