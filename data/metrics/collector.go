package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector interface for search metrics
type Collector interface {
	SearchQuery(engine string, err error)
	SearchIndex(engine, operation string, err error)
	HealthCheck(component string, healthy bool)
}

// NoOpCollector implements Collector with no-op methods
type NoOpCollector struct{}

func (NoOpCollector) SearchQuery(string, error)         {}
func (NoOpCollector) SearchIndex(string, string, error) {}
func (NoOpCollector) HealthCheck(string, bool)          {}

// SearchCollector keeps in-process counters of search engine activity
type SearchCollector struct {
	searchQueries   atomic.Int64
	searchErrors    atomic.Int64
	indexOps        atomic.Int64
	indexOpErrors   atomic.Int64
	lastSearchQuery atomic.Value // time.Time

	opsMu sync.Mutex
	ops   map[string]int64

	healthMu     sync.RWMutex
	healthChecks map[string]*atomic.Bool
}

// NewSearchCollector creates a new collector
func NewSearchCollector() *SearchCollector {
	c := &SearchCollector{
		ops:          make(map[string]int64),
		healthChecks: make(map[string]*atomic.Bool),
	}
	c.lastSearchQuery.Store(time.Time{})
	return c
}

// SearchQuery records search query metrics
func (c *SearchCollector) SearchQuery(_ string, err error) {
	c.searchQueries.Add(1)
	c.lastSearchQuery.Store(time.Now())

	if err != nil {
		c.searchErrors.Add(1)
	}
}

// SearchIndex records an index or document operation
func (c *SearchCollector) SearchIndex(_ string, operation string, err error) {
	c.indexOps.Add(1)
	if err != nil {
		c.indexOpErrors.Add(1)
	}

	c.opsMu.Lock()
	c.ops[operation]++
	c.opsMu.Unlock()
}

// HealthCheck records health check metrics
func (c *SearchCollector) HealthCheck(component string, healthy bool) {
	c.healthMu.Lock()
	if _, exists := c.healthChecks[component]; !exists {
		c.healthChecks[component] = &atomic.Bool{}
	}
	healthCheck := c.healthChecks[component]
	c.healthMu.Unlock()

	healthCheck.Store(healthy)
}

// Stats is a point-in-time snapshot of a SearchCollector
type Stats struct {
	Queries       int64            `json:"queries"`
	QueryErrors   int64            `json:"query_errors"`
	IndexOps      int64            `json:"index_ops"`
	IndexOpErrors int64            `json:"index_op_errors"`
	Operations    map[string]int64 `json:"operations"`
	LastQuery     time.Time        `json:"last_query"`
	Health        map[string]bool  `json:"health"`
}

// GetStats returns current statistics
func (c *SearchCollector) GetStats() Stats {
	c.healthMu.RLock()
	health := make(map[string]bool, len(c.healthChecks))
	for component, status := range c.healthChecks {
		health[component] = status.Load()
	}
	c.healthMu.RUnlock()

	c.opsMu.Lock()
	ops := make(map[string]int64, len(c.ops))
	for op, n := range c.ops {
		ops[op] = n
	}
	c.opsMu.Unlock()

	return Stats{
		Queries:       c.searchQueries.Load(),
		QueryErrors:   c.searchErrors.Load(),
		IndexOps:      c.indexOps.Load(),
		IndexOpErrors: c.indexOpErrors.Load(),
		Operations:    ops,
		LastQuery:     c.lastSearchQuery.Load().(time.Time),
		Health:        health,
	}
}
