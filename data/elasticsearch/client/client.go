package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/opsworks/esadapter/config"
	"go.opentelemetry.io/otel/trace"
)

// Client Elasticsearch client
type Client struct {
	client    *elasticsearch.Client
	transport *http.Transport
	refresh   string
	closed    atomic.Bool
}

type options struct {
	instrumentation elastictransport.Instrumentation
	refresh         string
}

// Option configures a Client.
type Option func(*options)

// WithTracerProvider instruments every request with OpenTelemetry spans.
func WithTracerProvider(tp trace.TracerProvider, captureSearchBody bool) Option {
	return func(o *options) {
		o.instrumentation = elasticsearch.NewOpenTelemetryInstrumentation(tp, captureSearchBody)
	}
}

// WithRefresh sets the refresh policy applied to document writes
// ("true", "false" or "wait_for").
func WithRefresh(policy string) Option {
	return func(o *options) {
		o.refresh = policy
	}
}

// Info is the subset of the cluster info response the adapter reports.
type Info struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// Hit is one matched document of a search response.
type Hit struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
}

// SearchResponse is the decoded search response.
type SearchResponse struct {
	Took     int64 `json:"took"`
	TimedOut bool  `json:"timed_out"`
	Hits     struct {
		Total struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []Hit    `json:"hits"`
	} `json:"hits"`
}

// IndexResponse is the result of indexing one document.
type IndexResponse struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Result string `json:"result"`
}

// NewClient new Elasticsearch client
func NewClient(cfg *config.Elasticsearch, opts ...Option) (*Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch addresses are empty")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	pool, err := loadCertPool(cfg.CAPath)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch TLS configuration error: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:       cfg.Addresses,
		Username:        cfg.Username,
		Password:        cfg.Password,
		Transport:       transport,
		Instrumentation: o.instrumentation,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}

	return &Client{client: es, transport: transport, refresh: o.refresh}, nil
}

func (c *Client) check() error {
	if c == nil || c.client == nil {
		return ErrNilClient
	}
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Info returns cluster name and version
func (c *Client) Info(ctx context.Context) (*Info, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	res, err := c.client.Info(c.client.Info.WithContext(ctx))
	if err != nil {
		return nil, unavailable(err)
	}

	var info Info
	if err := decode(res, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ping checks the cluster is reachable
func (c *Client) Ping(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}

	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return unavailable(err)
	}
	defer closeBody(res)

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrUnavailable, res.Status())
	}
	return nil
}

// IndexExists reports whether the index exists
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}

	res, err := c.client.Indices.Exists([]string{name}, c.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, unavailable(err)
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, newResponseError(res)
	}
}

// CreateIndex creates an index with the given settings and mappings.
// Either may be nil.
func (c *Client) CreateIndex(ctx context.Context, name string, settings, mappings map[string]any) error {
	if err := c.check(); err != nil {
		return err
	}

	body := map[string]any{}
	if settings != nil {
		body["settings"] = settings
	}
	if mappings != nil {
		body["mappings"] = mappings
	}

	res, err := c.client.Indices.Create(
		name,
		c.client.Indices.Create.WithContext(ctx),
		c.client.Indices.Create.WithBody(esutil.NewJSONReader(body)),
	)
	if err != nil {
		return unavailable(err)
	}
	return decode(res, nil)
}

// DeleteIndex deletes an index
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	if err := c.check(); err != nil {
		return err
	}

	res, err := c.client.Indices.Delete([]string{name}, c.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return unavailable(err)
	}

	var ack struct {
		Acknowledged bool `json:"acknowledged"`
	}
	if err := decode(res, &ack); err != nil {
		return err
	}
	if !ack.Acknowledged {
		return ErrNotAcknowledged
	}
	return nil
}

// DeleteByQuery deletes every document of index matching query and
// returns the number of deleted documents.
func (c *Client) DeleteByQuery(ctx context.Context, index string, query map[string]any) (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}

	res, err := c.client.DeleteByQuery(
		[]string{index},
		esutil.NewJSONReader(map[string]any{"query": query}),
		c.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return 0, unavailable(err)
	}

	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := decode(res, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// Search runs body against index, asking for at most size hits
func (c *Client) Search(ctx context.Context, index string, body map[string]any, size int) (*SearchResponse, error) {
	var sr SearchResponse
	if err := c.search(ctx, index, body, size, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

// SearchRaw is Search returning the whole decoded response
func (c *Client) SearchRaw(ctx context.Context, index string, body map[string]any, size int) (map[string]any, error) {
	var out map[string]any
	if err := c.search(ctx, index, body, size, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, index string, body map[string]any, size int, v any) error {
	if err := c.check(); err != nil {
		return err
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(index),
		c.client.Search.WithBody(esutil.NewJSONReader(body)),
		c.client.Search.WithSize(size),
	)
	if err != nil {
		return unavailable(err)
	}
	return decode(res, v)
}

// IndexDocument index document to Elasticsearch, letting the engine assign the ID
func (c *Client) IndexDocument(ctx context.Context, index string, document any) (*IndexResponse, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	opts := []func(*esapi.IndexRequest){c.client.Index.WithContext(ctx)}
	if c.refresh != "" {
		opts = append(opts, c.client.Index.WithRefresh(c.refresh))
	}

	res, err := c.client.Index(index, esutil.NewJSONReader(document), opts...)
	if err != nil {
		return nil, unavailable(err)
	}

	var ir IndexResponse
	if err := decode(res, &ir); err != nil {
		return nil, err
	}
	return &ir, nil
}

// Close releases idle connections. A closed client rejects further calls.
func (c *Client) Close(_ context.Context) error {
	if c == nil || c.client == nil {
		return ErrNilClient
	}
	if c.closed.Swap(true) {
		return ErrClosed
	}
	c.transport.CloseIdleConnections()
	return nil
}

// GetClient get Elasticsearch client
func (c *Client) GetClient() *elasticsearch.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// decode closes the response body after decoding it into v, which may be nil.
func decode(res *esapi.Response, v any) error {
	defer closeBody(res)

	if res.IsError() {
		return newResponseError(res)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("elasticsearch parsing error: %w", err)
	}
	return nil
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
