// Package config loads esadapter configuration using Viper, with support for
// YAML, JSON and TOML files and environment variable overrides.
//
// # Configuration Loading
//
// Load configuration from an explicit file:
//
//	cfg, err := config.LoadConfig("./config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// With an empty path the file named "config" is looked up in /etc/esadapter,
// $HOME/.esadapter, the working directory and the executable's directory.
// When none exists the configuration comes from environment variables alone.
//
// # Configuration Format
//
//	app_name: esadapter
//	run_mode: production
//
//	logger:
//	  level: 4
//	  format: json
//	  output: stdout
//	  index:
//	    name: esadapter-logs
//	    rotate_daily: true
//	    level: 3
//
//	elasticsearch:
//	  addresses:
//	    - https://my.es.cluster:9200
//	  username: admin
//	  password: secret
//	  ca_path: /etc/ssl/certs
//	  search_size: 10000
//	  index:
//	    name: data
//	    shards: 2
//	    replicas: 2
//
//	observes:
//	  sentry:
//	    dsn: https://key@sentry.example.com/1
//	  tracer:
//	    endpoint: localhost:4317
//
// # Environment Variables
//
// Every key may be overridden with an ESADAPTER_ prefixed variable, using
// underscores in place of dots:
//
//	ESADAPTER_ELASTICSEARCH_PASSWORD=secret
package config
