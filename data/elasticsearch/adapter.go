package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/opsworks/esadapter/config"
	"github.com/opsworks/esadapter/data/elasticsearch/client"
	"github.com/opsworks/esadapter/data/metrics"
	"github.com/opsworks/esadapter/logging/logger"
	"github.com/opsworks/esadapter/logging/observes"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const engine = "elasticsearch"

// ErrSetup is returned by New when the default index could not be set up.
var ErrSetup = errors.New("elasticsearch default index setup failed")

// Query is a query clause, passed to the engine unmodified.
type Query map[string]any

// Document is the source of one indexed document.
type Document map[string]any

// Hit is one matched document.
type Hit = client.Hit

// Adapter exposes index operations over a single Elasticsearch connection.
type Adapter struct {
	client    *client.Client
	cfg       *config.Elasticsearch
	log       *logger.Logger
	collector metrics.Collector
	tracer    trace.TracerProvider
	now       func() time.Time
	version   string

	clientOpts []client.Option
	closeOnce  sync.Once
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCollector records operation metrics in c.
func WithCollector(c metrics.Collector) Option {
	return func(a *Adapter) {
		if c != nil {
			a.collector = c
		}
	}
}

// WithTracerProvider traces adapter operations and the requests they issue.
func WithTracerProvider(tp trace.TracerProvider, captureSearchBody bool) Option {
	return func(a *Adapter) {
		if tp == nil {
			return
		}
		a.tracer = tp
		a.clientOpts = append(a.clientOpts, client.WithTracerProvider(tp, captureSearchBody))
	}
}

// WithClock overrides the time source used to stamp documents.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// WithClientOptions passes options through to the underlying client.
func WithClientOptions(opts ...client.Option) Option {
	return func(a *Adapter) {
		a.clientOpts = append(a.clientOpts, opts...)
	}
}

type searchOptions struct {
	size int
}

// SearchOption configures a single search.
type SearchOption func(*searchOptions)

// WithSize limits the number of returned hits.
func WithSize(n int) SearchOption {
	return func(o *searchOptions) {
		if n > 0 {
			o.size = n
		}
	}
}

// New connects to the cluster described by cfg and makes sure the default
// index exists. The adapter is never nil: when the cluster cannot be reached
// the failure is logged and returned alongside a degraded adapter whose
// operations all report failure.
func New(ctx context.Context, cfg *config.Elasticsearch, log *logger.Logger, opts ...Option) (*Adapter, error) {
	if log == nil {
		log = logger.Discard()
	}

	a := &Adapter{
		cfg:       normalize(cfg),
		log:       log.WithModule(engine),
		collector: metrics.NoOpCollector{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	c, err := client.NewClient(a.cfg, a.clientOpts...)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while configuring the Elasticsearch client for %v", redactAddresses(a.cfg.Addresses))
		a.collector.HealthCheck(engine, false)
		return a, fmt.Errorf("elasticsearch connection error: %w", err)
	}
	a.client = c

	ctx, end := a.span(ctx, "connect")
	info, err := c.Info(ctx)
	end(err)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while connecting to Elasticsearch by URL %v", redactAddresses(a.cfg.Addresses))
		a.collector.HealthCheck(engine, false)
		return a, fmt.Errorf("elasticsearch connection error: %w", err)
	}
	a.collector.HealthCheck(engine, true)
	a.version = info.Version.Number
	a.log.Infof(ctx, "Successfully connected to Elasticsearch. Server version: %s", a.version)

	if !a.Setup(ctx) {
		return a, fmt.Errorf("%w: index %s", ErrSetup, a.cfg.Index.Name)
	}
	return a, nil
}

// normalize copies cfg with the index and search size defaults filled in.
func normalize(cfg *config.Elasticsearch) *config.Elasticsearch {
	c := config.Elasticsearch{}
	if cfg != nil {
		c = *cfg
	}
	if c.Index == nil {
		c.Index = config.DefaultIndex()
	}
	if c.SearchSize <= 0 {
		c.SearchSize = config.DefaultSearchSize
	}
	return &c
}

// redactAddresses masks the password of addresses carrying user info.
func redactAddresses(addrs []string) []string {
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		u, err := url.Parse(addr)
		if err != nil {
			out[i] = "<invalid address>"
			continue
		}
		out[i] = u.Redacted()
	}
	return out
}

// span starts an operation span, from the global provider unless one was
// injected with WithTracerProvider.
func (a *Adapter) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("db.system", engine))
	if a.tracer == nil {
		return observes.StartSpan(ctx, "elasticsearch."+op, attrs...)
	}
	return observes.StartSpanWith(ctx, a.tracer, "elasticsearch."+op, attrs...)
}

// Client returns the underlying client, nil when construction failed.
func (a *Adapter) Client() *client.Client {
	return a.client
}

// Index returns the name of the default index.
func (a *Adapter) Index() string {
	return a.cfg.Index.Name
}

// Version returns the server version reported at connection time.
func (a *Adapter) Version() string {
	return a.version
}

// Ping polls the connection.
func (a *Adapter) Ping(ctx context.Context) bool {
	ctx, end := a.span(ctx, "ping")
	err := a.client.Ping(ctx)
	end(err)

	a.collector.HealthCheck(engine, err == nil)
	if err != nil {
		a.log.WithError(ctx, err).Warn("Elasticsearch ping failed")
		return false
	}
	return true
}

// IndexExists reports whether the index exists. Errors are logged and
// reported as false.
func (a *Adapter) IndexExists(ctx context.Context, name string) bool {
	ctx, end := a.span(ctx, "index_exists", attribute.String("db.elasticsearch.index", name))
	exists, err := a.client.IndexExists(ctx, name)
	end(err)

	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while checking the '%s' Elasticsearch index", name)
		return false
	}
	return exists
}

// CreateIndex creates the index. It returns false when the index already
// exists, leaving it untouched, or when creation fails.
func (a *Adapter) CreateIndex(ctx context.Context, name string, settings, mappings map[string]any) bool {
	if a.IndexExists(ctx, name) {
		a.log.Debugf(ctx, "The '%s' Elasticsearch index already exists", name)
		return false
	}

	ctx, end := a.span(ctx, "create_index", attribute.String("db.elasticsearch.index", name))
	err := a.client.CreateIndex(ctx, name, settings, mappings)
	end(err)

	a.collector.SearchIndex(engine, "create_index", err)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while creating the '%s' Elasticsearch index", name)
		return false
	}
	a.log.Infof(ctx, "The '%s' Elasticsearch index was successfully created", name)
	return true
}

// EmptyIndex deletes every document of the index, keeping its settings and
// mappings.
func (a *Adapter) EmptyIndex(ctx context.Context, name string) bool {
	ctx, end := a.span(ctx, "empty_index", attribute.String("db.elasticsearch.index", name))
	deleted, err := a.client.DeleteByQuery(ctx, name, map[string]any{"match_all": map[string]any{}})
	end(err)

	a.collector.SearchIndex(engine, "empty_index", err)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while emptying the '%s' Elasticsearch index", name)
		return false
	}
	a.log.WithFields(ctx, map[string]any{"deleted": deleted}).
		Infof("Successfully emptied the '%s' Elasticsearch index", name)
	return true
}

// DeleteIndex deletes the index. It returns false when the index does not
// exist, the deletion was not acknowledged, or it failed.
func (a *Adapter) DeleteIndex(ctx context.Context, name string) bool {
	if !a.IndexExists(ctx, name) {
		a.log.Debugf(ctx, "The '%s' Elasticsearch index does not exist", name)
		return false
	}

	ctx, end := a.span(ctx, "delete_index", attribute.String("db.elasticsearch.index", name))
	err := a.client.DeleteIndex(ctx, name)
	end(err)

	a.collector.SearchIndex(engine, "delete_index", err)
	switch {
	case errors.Is(err, client.ErrNotAcknowledged):
		a.log.Errorf(ctx, "Deletion of the '%s' Elasticsearch index was not acknowledged", name)
		return false
	case err != nil:
		a.log.WithError(ctx, err).Errorf("Got an error while deleting the '%s' Elasticsearch index", name)
		return false
	}
	a.log.Infof(ctx, "The '%s' Elasticsearch index was successfully deleted", name)
	return true
}

// searchBody wraps query as a search request body. A nil query leaves the
// body empty, which the engine treats as match all.
func (a *Adapter) searchBody(query Query, opts []SearchOption) (map[string]any, int) {
	o := &searchOptions{size: a.cfg.SearchSize}
	for _, opt := range opts {
		opt(o)
	}

	body := map[string]any{}
	if query != nil {
		body["query"] = map[string]any(query)
	}
	return body, o.size
}

// Search runs query against index and returns the matched hits. It returns
// nil on failure and an empty slice when nothing matched.
func (a *Adapter) Search(ctx context.Context, index string, query Query, opts ...SearchOption) []Hit {
	body, size := a.searchBody(query, opts)

	ctx, end := a.span(ctx, "search", attribute.String("db.elasticsearch.index", index))
	res, err := a.client.Search(ctx, index, body, size)
	end(err)

	a.collector.SearchQuery(engine, err)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while searching the '%s' Elasticsearch index", index)
		return nil
	}

	if res.Hits.Hits == nil {
		return []Hit{}
	}
	return res.Hits.Hits
}

// SearchRaw is Search returning the whole decoded response.
func (a *Adapter) SearchRaw(ctx context.Context, index string, query Query, opts ...SearchOption) map[string]any {
	body, size := a.searchBody(query, opts)

	ctx, end := a.span(ctx, "search_raw", attribute.String("db.elasticsearch.index", index))
	res, err := a.client.SearchRaw(ctx, index, body, size)
	end(err)

	a.collector.SearchQuery(engine, err)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while searching the '%s' Elasticsearch index", index)
		return nil
	}
	return res
}

// StoreDocument indexes doc as-is, letting the engine assign its ID.
func (a *Adapter) StoreDocument(ctx context.Context, index string, doc Document) bool {
	ctx, end := a.span(ctx, "store_document", attribute.String("db.elasticsearch.index", index))
	res, err := a.client.IndexDocument(ctx, index, doc)
	end(err)

	a.collector.SearchIndex(engine, "store_document", err)
	if err != nil {
		a.log.WithError(ctx, err).Errorf("Got an error while storing data in the '%s' Elasticsearch index", index)
		return false
	}
	a.log.Debugf(ctx, "Stored document %s in the '%s' Elasticsearch index", res.ID, index)
	return true
}

// Setup creates the default index unless it already exists.
func (a *Adapter) Setup(ctx context.Context) bool {
	idx := a.cfg.Index
	if a.IndexExists(ctx, idx.Name) {
		return true
	}
	return a.CreateIndex(ctx, idx.Name, DefaultSettings(idx), DefaultMappings())
}

// GetAll searches the default index. A nil query matches every document.
func (a *Adapter) GetAll(ctx context.Context, query Query) []Hit {
	if query == nil {
		query = Query{"match_all": map[string]any{}}
	}
	return a.Search(ctx, a.cfg.Index.Name, query)
}

// PutDocument stores a copy of doc stamped with the current time in the
// default index. doc itself is not modified.
func (a *Adapter) PutDocument(ctx context.Context, doc Document) bool {
	stamped := make(Document, len(doc)+1)
	for k, v := range doc {
		stamped[k] = v
	}
	stamped[TimestampField] = ToTimestamp(a.now())
	return a.StoreDocument(ctx, a.cfg.Index.Name, stamped)
}

// Close releases the connection. Only the first call has any effect, and a
// connection that no longer answers pings is left alone.
func (a *Adapter) Close(ctx context.Context) error {
	var err error
	a.closeOnce.Do(func() {
		if a.client == nil || !a.Ping(ctx) {
			a.log.Debug(ctx, "Elasticsearch connection is not live, nothing to close")
			return
		}
		if err = a.client.Close(ctx); err != nil {
			a.log.WithError(ctx, err).Error("Got an error while closing the Elasticsearch connection")
			return
		}
		a.log.Info(ctx, "Elasticsearch connection closed")
	})
	return err
}
