// Package client is a Go client for the recipe search API, including the
// Session type that drives incremental "load more" pagination.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

// ErrMalformedResponse is returned when a 2xx body does not have the shape
// the endpoint promises.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx response carrying the server's error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("recipe api: status %d", e.Status)
	}
	return fmt.Sprintf("recipe api: status %d: %s", e.Status, e.Message)
}

// Page is one multi-row response.
type Page struct {
	Recipes []model.RecipeSummary
	// PageSize is the server's row cap, read from X-Page-Size.
	PageSize int
	// NextAfterID is the server-advertised cursor, zero when absent.
	NextAfterID uint
}

// Client calls the recipe API rooted at BaseURL (for example
// "http://localhost:8080/api/v1").
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a multi-row search. f.ID is ignored; use Get for lookups.
func (c *Client) Search(ctx context.Context, f search.FilterRequest) (*Page, error) {
	f.ID = 0
	resp, body, err := c.get(ctx, "/recipes", f.Values())
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(string(body)) == "null" {
		return nil, fmt.Errorf("%w: expected array, got null", ErrMalformedResponse)
	}
	var recipes []model.RecipeSummary
	if err := json.Unmarshal(body, &recipes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if recipes == nil {
		recipes = []model.RecipeSummary{}
	}

	page := &Page{Recipes: recipes, PageSize: search.DefaultPageSize}
	if n, err := strconv.Atoi(resp.Header.Get("X-Page-Size")); err == nil && n > 0 {
		page.PageSize = n
	}
	if n, err := strconv.ParseUint(resp.Header.Get("X-Next-After-Id"), 10, 64); err == nil {
		page.NextAfterID = uint(n)
	}
	return page, nil
}

// Get looks up one recipe. A missing recipe returns nil without error.
func (c *Client) Get(ctx context.Context, id uint) (*model.Recipe, error) {
	_, body, err := c.get(ctx, "/recipes", url.Values{search.ParamID: {strconv.FormatUint(uint64(id), 10)}})
	if err != nil {
		return nil, err
	}

	var recipe *model.Recipe
	if err := json.Unmarshal(body, &recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return recipe, nil
}

// Sites lists the distinct source sites.
func (c *Client) Sites(ctx context.Context) ([]string, error) {
	_, body, err := c.get(ctx, "/sites", nil)
	if err != nil {
		return nil, err
	}
	var sites []string
	if err := json.Unmarshal(body, &sites); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return sites, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Message = envelope.Error
		}
		return nil, nil, apiErr
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return nil, nil, fmt.Errorf("%w: content type %q", ErrMalformedResponse, ct)
	}
	return resp, body, nil
}
