package elasticsearch

import "github.com/opsworks/esadapter/config"

const (
	// TimestampField is stamped on every document written with PutDocument.
	TimestampField = "timestamp"
	// TimestampFormat is the date format accepted by the timestamp mapping.
	TimestampFormat = "yyyy-MM-dd HH:mm:ss||yyyy-MM-dd||epoch_millis"
)

// DefaultSettings returns the index settings for idx.
func DefaultSettings(idx *config.Index) map[string]any {
	if idx == nil {
		idx = config.DefaultIndex()
	}
	return map[string]any{
		"number_of_shards":   idx.Shards,
		"number_of_replicas": idx.Replicas,
	}
}

// DefaultMappings returns the mappings of the default index.
func DefaultMappings() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"id": map[string]any{"type": "long"},
			TimestampField: map[string]any{
				"type":   "date",
				"format": TimestampFormat,
			},
		},
	}
}
