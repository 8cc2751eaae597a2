package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "log:\n  file: \"\"\n  json_file: "+filepath.Join(dir, "app.json.log")+"\n")
	return path
}

func TestRunPlainReport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)
	snapshots := filepath.Join(dir, "snapshots.yaml")
	writeFile(t, snapshots, `
snapshots:
  - symbol: BTCUSDT
    prices: [45000, 44500, 46000, 47000, 46500, 48000, 47800, 48200]
    volume: 2500000
`)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", cfgPath, "-snapshots", snapshots, "-plain"}, &out)
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !strings.Contains(out.String(), "BTCUSDT") || !strings.Contains(out.String(), "Всего: 1, принято: 0") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestRunReturnsStartupErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testConfig(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"-config", filepath.Join(dir, "none.yaml")}},
		{"missing snapshots", []string{"-config", cfgPath, "-snapshots", filepath.Join(dir, "none.yaml"), "-plain"}},
		{"unknown flag", []string{"-verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), tt.args, &out); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
