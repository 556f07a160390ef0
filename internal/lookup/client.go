package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

const (
	// DefaultBaseURL is the public product catalogue searched by Client.
	DefaultBaseURL = "https://dummyjson.com"

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second

	searchPath = "/products/search"

	// maxBodyBytes caps how much of a response is decoded.
	maxBodyBytes = 1 << 20
)

var errNoMatch = errors.New("no products matched")

// searchResponse is the subset of the search payload the client reads.
type searchResponse struct {
	Products []struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	} `json:"products"`
}

// Client looks categories up with the remote product search endpoint:
//
//	GET {BaseURL}/products/search?q=<product name>
//
// The category of the first product returned is used.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a remote lookup client. An empty baseURL uses
// DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("lookup")
	return c
}

// Category searches for productName and returns the first hit's category.
// Every failure is logged at debug level and reported as Unknown.
func (c *Client) Category(ctx context.Context, productName string) string {
	category, err := c.search(ctx, productName)
	if err != nil {
		c.logger.Debug("lookup failed",
			zap.String("product", productName),
			zap.Error(err))
		return types.UnknownCategory
	}
	return normalize(category)
}

func (c *Client) search(ctx context.Context, productName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + searchPath + "?" + url.Values{"q": {productName}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(payload.Products) == 0 {
		return "", errNoMatch
	}

	return payload.Products[0].Category, nil
}
