package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsworks/esadapter/data/elasticsearch/client"
	"github.com/opsworks/esadapter/data/elasticsearch/estest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, address string) string {
	t.Helper()
	return writeConfigWith(t, address, "logger:\n  level: 0\n")
}

func writeConfigWith(t *testing.T, address, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`%selasticsearch:
  addresses:
    - %s
  ca_path: ""
`, extra, address)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	if args == nil {
		// nil makes cobra fall back to os.Args
		args = []string{}
	}

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_NoCommand(t *testing.T) {
	_, _, err := execute(t, "")
	require.ErrorIs(t, err, ErrNoCommand)
	assert.Equal(t, 255, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 1, ExitCode(failed("ping")))
	assert.Equal(t, 255, ExitCode(fmt.Errorf("wrapped: %w", ErrNoCommand)))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go Version:")

	out, _, err = execute(t, "", "version", "--json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "goVersion")
}

func TestPing(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	out, _, err := execute(t, "", "--config", cfg, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, estest.Version)

	_, ok := srv.Index("data")
	assert.True(t, ok)
}

func TestPing_Unreachable(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	_, _, err := execute(t, "", "--config", cfg, "ping")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, 1, ExitCode(err))
}

func TestMissingConfig(t *testing.T) {
	_, _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "ping")
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	out, _, err := execute(t, "", "-c", cfg, "setup")
	require.NoError(t, err)
	assert.Equal(t, "Index data is ready\n", out)
}

func TestIndexCommands(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	_, _, err := execute(t, "", "-c", cfg, "index", "create", "events", "--shards", "1", "--replicas", "0")
	require.NoError(t, err)
	idx, ok := srv.Index("events")
	require.True(t, ok)
	assert.EqualValues(t, 1, idx.Settings["number_of_shards"])
	assert.EqualValues(t, 0, idx.Settings["number_of_replicas"])

	out, _, err := execute(t, "", "-c", cfg, "index", "exists", "events")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	_, _, err = execute(t, "", "-c", cfg, "index", "create", "events")
	assert.ErrorIs(t, err, ErrFailed)

	_, _, err = execute(t, "", "-c", cfg, "index", "empty", "events")
	require.NoError(t, err)

	_, _, err = execute(t, "", "-c", cfg, "index", "delete", "events")
	require.NoError(t, err)

	out, _, err = execute(t, "", "-c", cfg, "index", "exists", "events")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	_, _, err = execute(t, "", "-c", cfg, "index", "delete", "events")
	assert.ErrorIs(t, err, ErrFailed)
}

func TestPutGetSearch(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	_, _, err := execute(t, "", "-c", cfg, "put", `{"id": 1, "name": "first"}`)
	require.NoError(t, err)
	_, _, err = execute(t, `{"message": "hello"}`, "-c", cfg, "put", "--index", "logs")
	require.NoError(t, err)

	idx, ok := srv.Index("data")
	require.True(t, ok)
	require.Len(t, idx.Docs, 1)
	assert.Contains(t, idx.Docs[0].Source, "timestamp")

	logs, ok := srv.Index("logs")
	require.True(t, ok)
	require.Len(t, logs.Docs, 1)
	assert.Equal(t, map[string]any{"message": "hello"}, logs.Docs[0].Source)

	out, _, err := execute(t, "", "-c", cfg, "get")
	require.NoError(t, err)
	var hits []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "data", hits[0]["_index"])

	out, _, err = execute(t, "", "-c", cfg, "search", "data", "--query", `{"term": {"id": 2}}`)
	require.NoError(t, err)
	hits = nil
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	assert.Empty(t, hits)

	out, _, err = execute(t, "", "-c", cfg, "search", "data", "--raw", "--size", "5")
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Contains(t, raw, "hits")
}

func TestSearch_Errors(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	_, _, err := execute(t, "", "-c", cfg, "search", "data", "--query", "{not json")
	assert.ErrorContains(t, err, "invalid query")

	_, _, err = execute(t, "", "-c", cfg, "search", "missing")
	assert.ErrorIs(t, err, ErrFailed)

	_, _, err = execute(t, "", "-c", cfg, "put", `[1, 2]`)
	assert.ErrorContains(t, err, "invalid document")
}

func TestStatsFlag(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	_, stderr, err := execute(t, "", "-c", cfg, "--stats", "get")
	require.NoError(t, err)

	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(stderr), &stats))
	assert.EqualValues(t, 1, stats["queries"])
	assert.Equal(t, map[string]any{"elasticsearch": true}, stats["health"])
}

func TestLogShipping(t *testing.T) {
	srv := estest.NewServer()
	defer srv.Close()

	logFile := filepath.Join(t.TempDir(), "esadapter.log")
	cfg := writeConfigWith(t, srv.URL, fmt.Sprintf(`logger:
  level: 3
  output: file
  output_file: %s
  index:
    name: app-logs
`, logFile))

	_, _, err := execute(t, "", "-c", cfg, "search", "missing")
	require.ErrorIs(t, err, ErrFailed)

	idx, ok := srv.Index("app-logs")
	require.True(t, ok)
	require.NotEmpty(t, idx.Docs)

	src := idx.Docs[0].Source
	assert.Equal(t, "error", src["level"])
	assert.Equal(t, "elasticsearch", src["module"])
	assert.Contains(t, src, "trace_id")
}
