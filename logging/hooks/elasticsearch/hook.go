// Package elasticsearch provides a logrus hook for sending logs to Elasticsearch.
package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsworks/esadapter/config"
	"github.com/opsworks/esadapter/data/elasticsearch/client"
	"github.com/sirupsen/logrus"
)

const indexTimeout = 5 * time.Second

// Hook is a logrus hook for Elasticsearch
type Hook struct {
	client      *client.Client
	indexName   string
	dateSuffix  string
	rotateDaily bool
	levels      []logrus.Level
	now         func() time.Time
}

// NewHook creates a hook writing entries at cfg.Level or more severe into
// the index cfg.Name through c.
func NewHook(ctx context.Context, c *client.Client, cfg *config.LogIndex) (*Hook, error) {
	if cfg == nil || cfg.Name == "" {
		return nil, errors.New("log index name is empty")
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}

	level := cfg.Level
	if level < 0 || level >= len(logrus.AllLevels) {
		level = int(logrus.TraceLevel)
	}

	return &Hook{
		client:      c,
		indexName:   cfg.Name,
		dateSuffix:  cfg.DateSuffix,
		rotateDaily: cfg.RotateDaily,
		levels:      logrus.AllLevels[:level+1],
		now:         time.Now,
	}, nil
}

// Fire sends the log entry to Elasticsearch
func (h *Hook) Fire(entry *logrus.Entry) error {
	doc := map[string]any{
		"@timestamp": entry.Time.UTC().Format(time.RFC3339Nano),
		"level":      entry.Level.String(),
		"message":    entry.Message,
	}

	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		doc[k] = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	if _, err := h.client.IndexDocument(ctx, h.buildIndexName(), doc); err != nil {
		return fmt.Errorf("failed to index log entry: %w", err)
	}
	return nil
}

// Levels returns the log levels this hook fires for
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) buildIndexName() string {
	if !h.rotateDaily || h.dateSuffix == "" {
		return h.indexName
	}
	return fmt.Sprintf("%s-%s", h.indexName, h.now().Format(h.dateSuffix))
}
