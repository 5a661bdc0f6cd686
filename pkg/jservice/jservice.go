// Package jservice provides a client for jservice-style trivia question banks.
package jservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abrezinsky/jeopardy/internal/errors"
	"github.com/abrezinsky/jeopardy/internal/logger"
)

// DefaultBaseURL is the public jservice endpoint
const DefaultBaseURL = "https://jservice.io/api"

// FlexString is a string type that can be unmarshaled from either a string or a number.
// Answers such as "4" are sometimes returned as bare numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// String returns the string value
func (f FlexString) String() string {
	return string(f)
}

// CategorySummary is one entry of the category listing
type CategorySummary struct {
	ID         int        `json:"id"`
	Title      FlexString `json:"title"`
	CluesCount int        `json:"clues_count"`
}

// Clue is a single raw clue as returned by the remote source
type Clue struct {
	ID         int        `json:"id"`
	Question   FlexString `json:"question"`
	Answer     FlexString `json:"answer"`
	Value      *int       `json:"value"`
	CategoryID int        `json:"category_id"`
}

// CategoryDetail is a category with its full clue list
type CategoryDetail struct {
	ID         int        `json:"id"`
	Title      FlexString `json:"title"`
	CluesCount int        `json:"clues_count"`
	Clues      []Clue     `json:"clues"`
}

// Client defines the interface for trivia source operations
type Client interface {
	// ListCategories returns up to count category summaries
	ListCategories(ctx context.Context, count int) ([]CategorySummary, error)
	// GetCategory returns a category with every clue it holds
	GetCategory(ctx context.Context, id int) (*CategoryDetail, error)
	// BaseURL returns the configured base URL
	BaseURL() string
}

// StatusError is returned when the remote source answers with a non-200 status
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trivia source returned status %d for %s", e.StatusCode, e.URL)
}

// HTTPClient is a real HTTP client for a jservice-compatible API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new client with a 30 second request timeout
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a new client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// getJSON issues a GET for path with query params and decodes the body into response
func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, response interface{}) error {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	c.log.Debug("Trivia source request", "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Unavailable("failed to connect to trivia source", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Trivia source response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// ListCategories retrieves count categories from the source
func (c *HTTPClient) ListCategories(ctx context.Context, count int) ([]CategorySummary, error) {
	if count <= 0 {
		return nil, fmt.Errorf("category count must be positive, got %d", count)
	}

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))

	var categories []CategorySummary
	if err := c.getJSON(ctx, "categories", params, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves one category and all of its clues
func (c *HTTPClient) GetCategory(ctx context.Context, id int) (*CategoryDetail, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(id))

	var category CategoryDetail
	if err := c.getJSON(ctx, "category", params, &category); err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	if category.ID == 0 {
		category.ID = id
	}
	if category.ID != id {
		return nil, fmt.Errorf("get category %d: response carried id %d", id, category.ID)
	}
	return &category, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
