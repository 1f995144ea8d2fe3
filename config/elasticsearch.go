package config

import "github.com/spf13/viper"

const (
	// DefaultCAPath is the trust anchor location used when none is configured.
	// Ideally the cluster's root certificate is added to the system bundle.
	DefaultCAPath = "/etc/ssl/certs"
	// DefaultIndexName is the conventional index managed by the adapter.
	DefaultIndexName = "data"
	// DefaultSearchSize is the number of hits requested per search.
	DefaultSearchSize = 10000
)

// Elasticsearch elasticsearch config struct
type Elasticsearch struct {
	Addresses  []string `json:"addresses" yaml:"addresses" validate:"required,dive,url"`
	Username   string   `json:"username" yaml:"username"`
	Password   string   `json:"password" yaml:"password"`
	CAPath     string   `json:"ca_path" yaml:"ca_path"`
	SearchSize int      `json:"search_size" yaml:"search_size" validate:"gt=0"`
	Index      *Index   `json:"index" yaml:"index" validate:"required"`
}

// Index describes the default index created by the adapter's setup.
type Index struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Shards   int    `json:"shards" yaml:"shards" validate:"gt=0"`
	Replicas int    `json:"replicas" yaml:"replicas" validate:"gte=0"`
}

// NewElasticsearch returns a config for a single endpoint with defaults applied.
func NewElasticsearch(url, username, password string) *Elasticsearch {
	return &Elasticsearch{
		Addresses:  []string{url},
		Username:   username,
		Password:   password,
		CAPath:     DefaultCAPath,
		SearchSize: DefaultSearchSize,
		Index:      DefaultIndex(),
	}
}

// DefaultIndex returns the default index definition.
func DefaultIndex() *Index {
	return &Index{
		Name:     DefaultIndexName,
		Shards:   2,
		Replicas: 2,
	}
}

// getElasticsearchConfig reads Elasticsearch configurations
func getElasticsearchConfig(v *viper.Viper) *Elasticsearch {
	def := DefaultIndex()
	return &Elasticsearch{
		Addresses:  v.GetStringSlice("elasticsearch.addresses"),
		Username:   v.GetString("elasticsearch.username"),
		Password:   v.GetString("elasticsearch.password"),
		CAPath:     getStringOrDefault(v, "elasticsearch.ca_path", DefaultCAPath),
		SearchSize: getIntOrDefault(v, "elasticsearch.search_size", DefaultSearchSize),
		Index: &Index{
			Name:     getStringOrDefault(v, "elasticsearch.index.name", def.Name),
			Shards:   getIntOrDefault(v, "elasticsearch.index.shards", def.Shards),
			Replicas: getIntOrDefault(v, "elasticsearch.index.replicas", def.Replicas),
		},
	}
}
