package jservice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockClient is an in-memory trivia source for tests and offline play
type MockClient struct {
	mu             sync.Mutex
	baseURL        string
	categories     map[int]*CategoryDetail
	listErr        error
	categoryErrs   map[int]error
	categoryDelays map[int]time.Duration
	listCalls      int
	categoryCalls  map[int]int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithCategories replaces the default categories
func WithCategories(categories []CategoryDetail) MockOption {
	return func(m *MockClient) {
		m.categories = make(map[int]*CategoryDetail, len(categories))
		for i := range categories {
			cat := categories[i]
			m.categories[cat.ID] = &cat
		}
	}
}

// WithListError sets an error to return from ListCategories
func WithListError(err error) MockOption {
	return func(m *MockClient) {
		m.listErr = err
	}
}

// WithCategoryError sets an error to return from GetCategory for one id
func WithCategoryError(id int, err error) MockOption {
	return func(m *MockClient) {
		m.categoryErrs[id] = err
	}
}

// WithCategoryDelay makes GetCategory for one id wait before answering
func WithCategoryDelay(id int, d time.Duration) MockOption {
	return func(m *MockClient) {
		m.categoryDelays[id] = d
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a mock client holding DefaultMockCategories
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:        "http://mock-jservice.local/api",
		categoryErrs:   make(map[int]error),
		categoryDelays: make(map[int]time.Duration),
		categoryCalls:  make(map[int]int),
	}
	WithCategories(DefaultMockCategories(100, 30))(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	return m.baseURL
}

// ListCategories returns the first count categories ordered by id
func (m *MockClient) ListCategories(ctx context.Context, count int) ([]CategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++

	if m.listErr != nil {
		return nil, m.listErr
	}

	ids := make([]int, 0, len(m.categories))
	for id := range m.categories {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if count < len(ids) {
		ids = ids[:count]
	}

	out := make([]CategorySummary, len(ids))
	for i, id := range ids {
		cat := m.categories[id]
		out[i] = CategorySummary{ID: cat.ID, Title: cat.Title, CluesCount: len(cat.Clues)}
	}
	return out, nil
}

// GetCategory returns a copy of the stored category
func (m *MockClient) GetCategory(ctx context.Context, id int) (*CategoryDetail, error) {
	m.mu.Lock()
	m.categoryCalls[id]++
	delay := m.categoryDelays[id]
	err := m.categoryErrs[id]
	cat, ok := m.categories[id]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StatusError{StatusCode: 404, URL: fmt.Sprintf("%s/category?id=%d", m.baseURL, id)}
	}

	out := *cat
	out.Clues = append([]Clue(nil), cat.Clues...)
	return &out, nil
}

// ListCalls returns how many times ListCategories was called
func (m *MockClient) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// CategoryCalls returns how many times GetCategory was called for id
func (m *MockClient) CategoryCalls(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categoryCalls[id]
}

// TotalCategoryCalls returns the number of GetCategory calls across all ids
func (m *MockClient) TotalCategoryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.categoryCalls {
		total += n
	}
	return total
}

var mockTopics = []string{
	"Potent Potables", "World Capitals", "Shakespeare", "Famous Scientists",
	"Rivers", "Opera", "U.S. Presidents", "Elements", "Mythology", "Sports Legends",
}

// GenerateMockCategory builds a category with clueCount numbered clues
func GenerateMockCategory(id, clueCount int) CategoryDetail {
	title := fmt.Sprintf("%s %d", mockTopics[(id-1)%len(mockTopics)], id)
	cat := CategoryDetail{ID: id, Title: FlexString(title), CluesCount: clueCount}
	for i := 1; i <= clueCount; i++ {
		value := (i%5 + 1) * 200
		cat.Clues = append(cat.Clues, Clue{
			ID:         id*1000 + i,
			Question:   FlexString(fmt.Sprintf("%s question %d", title, i)),
			Answer:     FlexString(fmt.Sprintf("%s answer %d", title, i)),
			Value:      &value,
			CategoryID: id,
		})
	}
	return cat
}

// DefaultMockCategories returns count categories with ids 1..count, each holding clueCount clues
func DefaultMockCategories(count, clueCount int) []CategoryDetail {
	out := make([]CategoryDetail, count)
	for i := range out {
		out[i] = GenerateMockCategory(i+1, clueCount)
	}
	return out
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
