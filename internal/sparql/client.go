package sparql

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

// ResultsMediaType is the SPARQL 1.1 query results JSON format.
const ResultsMediaType = "application/sparql-results+json"

// DefaultTimeout bounds a single query round trip.
const DefaultTimeout = 60 * time.Second

// maxErrorBody limits how much of an error response is kept in the error.
const maxErrorBody = 512

// Client submits SELECT queries to a SPARQL 1.1 protocol endpoint.
//
// Client implements query.Service for the sparql dialect. It performs no
// retries; a failed request is an execution error for the rule.
type Client struct {
	endpoint string
	http     *resty.Client
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = newResty(resty.NewWithClient(hc))
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.http.SetHeader(key, value)
	}
}

func newResty(r *resty.Client) *resty.Client {
	return r.
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", ResultsMediaType).
		SetHeader("User-Agent", "ontaudit/1.0")
}

// New creates a client for the query URL of an endpoint, e.g.
// http://localhost:3030/ds/query.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     newResty(resty.New()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the query URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Select implements query.Service.
func (c *Client) Select(ctx context.Context, req query.Request) ([]ir.Binding, error) {
	if req.Dialect != query.SPARQL {
		return nil, fmt.Errorf("sparql client cannot run %s queries", req.Dialect)
	}

	c.logger.Debug("sparql query",
		"endpoint", c.endpoint,
		"query", req.Name,
		"bytes", len(req.Text),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"query": req.Text}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("sparql query %s: %w", req.Name, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, &HTTPError{
			Status: resp.StatusCode(),
			Body:   excerpt(resp.Body()),
			Query:  req.Name,
		}
	}

	// The body is decoded whatever the Content-Type says, so an HTML page
	// from a wrong URL fails instead of reading as zero rows.
	results, err := ParseResults(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("sparql query %s: %w (Content-Type %q)", req.Name, err, resp.Header().Get("Content-Type"))
	}
	rows, err := results.Bindings()
	if err != nil {
		return nil, fmt.Errorf("sparql query %s: %w", req.Name, err)
	}
	return rows, nil
}

// HTTPError reports a non-success response from the endpoint.
type HTTPError struct {
	Status int
	Body   string
	Query  string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("sparql query %s: HTTP %d", e.Query, e.Status)
	}
	return fmt.Sprintf("sparql query %s: HTTP %d: %s", e.Query, e.Status, e.Body)
}

func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
