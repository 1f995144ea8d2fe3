package config

import (
	"time"

	"github.com/spf13/viper"
)

// Sentry config struct
type Sentry struct {
	DSN         string  `json:"dsn" yaml:"dsn"`
	Environment string  `json:"environment" yaml:"environment"`
	Release     string  `json:"release" yaml:"release"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// getSentryConfig get sentry config
func getSentryConfig(v *viper.Viper) *Sentry {
	return &Sentry{
		DSN:         v.GetString("observes.sentry.dsn"),
		Environment: v.GetString("observes.sentry.environment"),
		Release:     v.GetString("observes.sentry.release"),
		SampleRate:  getFloat64OrDefault(v, "observes.sentry.sample_rate", 1.0),
	}
}

// Tracer config struct for OpenTelemetry
type Tracer struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"` // OTLP gRPC endpoint

	ServiceName  string  `json:"service_name" yaml:"service_name"`
	Environment  string  `json:"environment" yaml:"environment"`
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" validate:"gte=0,lte=1"`

	// Capture search request bodies on spans
	CaptureSearchBody bool `json:"capture_search_body" yaml:"capture_search_body"`

	MaxExportBatchSize int           `json:"max_export_batch_size" yaml:"max_export_batch_size"`
	BatchTimeout       time.Duration `json:"batch_timeout" yaml:"batch_timeout"`
	ExportTimeout      time.Duration `json:"export_timeout" yaml:"export_timeout"`
}

// getTracerConfig get tracer config with defaults
func getTracerConfig(v *viper.Viper) *Tracer {
	return &Tracer{
		Endpoint:           v.GetString("observes.tracer.endpoint"),
		ServiceName:        getStringOrDefault(v, "observes.tracer.service_name", v.GetString("app_name")),
		Environment:        getStringOrDefault(v, "observes.tracer.environment", v.GetString("run_mode")),
		SamplingRate:       getFloat64OrDefault(v, "observes.tracer.sampling_rate", 1.0),
		CaptureSearchBody:  v.GetBool("observes.tracer.capture_search_body"),
		MaxExportBatchSize: getIntOrDefault(v, "observes.tracer.max_export_batch_size", 512),
		BatchTimeout:       getDurationOrDefault(v, "observes.tracer.batch_timeout", 5*time.Second),
		ExportTimeout:      getDurationOrDefault(v, "observes.tracer.export_timeout", 30*time.Second),
	}
}

// Observes config struct
type Observes struct {
	Sentry *Sentry
	Tracer *Tracer
}

// get Observes config
func getObservesConfig(v *viper.Viper) *Observes {
	return &Observes{
		Sentry: getSentryConfig(v),
		Tracer: getTracerConfig(v),
	}
}
