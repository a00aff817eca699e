package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "treinoai.yaml")
	cfg := `
database:
  driver: sqlite
  path: ` + filepath.Join(dir, "treinoai.db") + `
outbound:
  url: http://localhost:5678/webhook/reply
`
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDBMigrateCmd(t *testing.T) {
	path := writeTestConfig(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"db", "migrate", "--config", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("db migrate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Migrated") {
		t.Errorf("output missing migration summary: %s", buf.String())
	}
}

func TestDBMigrateCmd_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"db", "migrate", "--config", "/does/not/exist.yaml"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
