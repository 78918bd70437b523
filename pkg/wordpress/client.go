// Package wordpress reads yearbook posts from the WordPress REST API that hosts the catalog.
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnavailable wraps transport failures and unexpected upstream responses.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrNotFound is returned when the upstream answers 404 for an item.
	ErrNotFound = errors.New("catalog item not found")
)

const (
	defaultPostType = "yearbook"
	pageSize        = 100
	maxPages        = 50
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "eybms",
	Subsystem: "catalog",
	Name:      "request_duration_seconds",
	Help:      "Duration of requests made to the external yearbook catalog.",
}, []string{"operation", "outcome"})

// Rendered mirrors the WordPress `{ "rendered": "..." }` envelope.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Post is a single catalog item.
type Post struct {
	ID      int64    `json:"id"`
	Title   Rendered `json:"title"`
	Content Rendered `json:"content"`
	Status  string   `json:"status"`
}

// Config defines the catalog client settings.
type Config struct {
	BaseURL    string
	PostType   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the catalog listing and item endpoints.
type Client struct {
	baseURL  string
	postType string
	http     *http.Client
	tracer   trace.Tracer
}

// New builds a catalog client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}

	postType := cfg.PostType
	if postType == "" {
		postType = defaultPostType
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  base,
		postType: postType,
		http:     httpClient,
		tracer:   otel.Tracer("github.com/noah-isme/eybms-go-api/pkg/wordpress"),
	}, nil
}

// List returns every post of the configured type, following the X-WP-TotalPages header.
func (c *Client) List(ctx context.Context) ([]Post, error) {
	ctx, span := c.tracer.Start(ctx, "wordpress.list")
	defer span.End()

	start := time.Now()
	var posts []Post
	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/wp-json/wp/v2/%s?per_page=%d&page=%d", c.baseURL, c.postType, pageSize, page)

		var batch []Post
		header, err := c.getJSON(ctx, url, &batch)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list failed")
			requestDuration.WithLabelValues("list", "error").Observe(time.Since(start).Seconds())
			return nil, err
		}
		posts = append(posts, batch...)

		totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if page >= totalPages || len(batch) == 0 {
			break
		}
	}

	span.SetAttributes(attribute.Int("catalog.items", len(posts)))
	requestDuration.WithLabelValues("list", "ok").Observe(time.Since(start).Seconds())
	return posts, nil
}

// Get fetches a single post by its catalog id.
func (c *Client) Get(ctx context.Context, id int64) (Post, error) {
	ctx, span := c.tracer.Start(ctx, "wordpress.get", trace.WithAttributes(attribute.Int64("catalog.id", id)))
	defer span.End()

	start := time.Now()
	url := fmt.Sprintf("%s/wp-json/wp/v2/%s/%d", c.baseURL, c.postType, id)

	var post Post
	if _, err := c.getJSON(ctx, url, &post); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		requestDuration.WithLabelValues("get", "error").Observe(time.Since(start).Seconds())
		return Post{}, err
	}

	requestDuration.WithLabelValues("get", "ok").Observe(time.Since(start).Seconds())
	return post, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return resp.Header, nil
}
