package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePackages = []string{"-pkg", "member-mapper/store", "-pkg", "member-mapper/warehouse"}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("MAPPER_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func withPackages(args ...string) []string {
	return append(args, samplePackages...)
}

func TestRun_Check(t *testing.T) {
	code, stdout, stderr := runCLI(t, withPackages("check", "-rules", "testdata/orders.yaml")...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "testdata/orders.yaml: 3 pair(s) ok")
}

func TestRun_CheckReportsErrors(t *testing.T) {
	code, stdout, stderr := runCLI(t, withPackages("check", "-rules", "testdata/broken.yaml")...)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "type_not_found")
	assert.Contains(t, stdout, "store.Ordr->warehouse.Order")
	assert.Contains(t, stderr, "resolution failed")
}

func TestRun_CheckStrict(t *testing.T) {
	code, stdout, _ := runCLI(t, withPackages("check", "-strict", "-rules", "testdata/orders.yaml")...)
	assert.Equal(t, 0, code)
	assert.NotContains(t, stdout, "unmapped_member")
}

func TestRun_CheckDump(t *testing.T) {
	code, stdout, stderr := runCLI(t, withPackages("check", "-dump", "-rules", "testdata/orders.yaml")...)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "# store.Order->warehouse.Shipment")
	assert.Contains(t, stdout, "Destination.Zip")
}

func TestRun_CheckMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, withPackages("check", "-rules", "testdata/missing.yaml")...)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.yaml")
}

func TestRun_Gen(t *testing.T) {
	out := t.TempDir()

	code, stdout, stderr := runCLI(t, withPackages("gen", "-rules", "testdata/orders.yaml", "-out", out, "-package", "fulfilment")...)
	require.Equal(t, 0, code, stderr)

	for _, name := range []string{
		"store_order_to_warehouse_order.go",
		"store_orderitem_to_warehouse_orderline.go",
		"store_order_to_warehouse_shipment.go",
	} {
		path := filepath.Join(out, name)
		assert.Contains(t, stdout, path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "package fulfilment")
	}
}

func TestRun_Schema(t *testing.T) {
	code, stdout, _ := runCLI(t, "schema")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"mappings"`)

	path := filepath.Join(t.TempDir(), "schema.json")
	code, _, _ = runCLI(t, "schema", "-o", path)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transforms"`)
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: member-mapper")

	code, _, stderr = runCLI(t, "analyze")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "analyze"`)

	code, stdout, _ := runCLI(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Commands:")
}

func TestRun_BadLogLevel(t *testing.T) {
	t.Setenv("MAPPER_LOG_LEVEL", "loud")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"schema"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "MAPPER_LOG_LEVEL")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MAPPER_RULES", "")
	t.Setenv("MAPPER_OUT", "./out")
	t.Setenv("MAPPER_PACKAGE", "")
	t.Setenv("MAPPER_LOG_LEVEL", "")

	env, err := loadEnv()
	require.NoError(t, err)
	assert.Equal(t, envConfig{
		Rules:    "mapper.yaml",
		Out:      "./out",
		Package:  "mappers",
		LogLevel: "warn",
	}, env)
}

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 8)
	done := make(chan error, 1)

	go func() {
		done <- watchFile(ctx, path, slog.New(slog.DiscardHandler), func() { calls <- struct{}{} })
	}()

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "initial run not called")
	}

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nmappings: []\n"), 0o644))

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "change not observed")
	}

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "watcher did not stop")
	}
}
