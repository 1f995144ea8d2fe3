package observes

import (
	"context"
	"errors"
	"testing"

	"github.com/opsworks/esadapter/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanWith_RecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, end := StartSpanWith(context.Background(), tp, "elasticsearch.search", attribute.String("index", "data"))
	end(nil)

	_, end = StartSpanWith(context.Background(), tp, "elasticsearch.store")
	end(errors.New("write failed"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "elasticsearch.search", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("index", "data"))

	assert.Equal(t, "elasticsearch.store", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "write failed", spans[1].Status().Description)
}

func TestNewTracer_RequiresEndpoint(t *testing.T) {
	_, err := NewTracer(context.Background(), &config.Tracer{}, "dev")
	assert.Error(t, err)
}

func TestNewSentry_NoDSN(t *testing.T) {
	flush, err := NewSentry(&config.Sentry{}, "esadapter")
	require.NoError(t, err)
	assert.NotPanics(t, flush)
}
