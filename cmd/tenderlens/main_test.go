package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/tenderlens/internal/cli"
	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/storage"
	"github.com/hyperjump/tenderlens/internal/summary"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after positional are moved first",
			args:     []string{"rfp.pdf", "-out", "/tmp"},
			expected: []string{"-out", "/tmp", "rfp.pdf"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-out", "/tmp", "rfp.pdf"},
			expected: []string{"-out", "/tmp", "rfp.pdf"},
		},
		{
			name:     "positional only returns unchanged",
			args:     []string{"rfp.pdf"},
			expected: []string{"rfp.pdf"},
		},
		{
			name:     "stdin dash is positional",
			args:     []string{"-", "--format", "xlsx"},
			expected: []string{"--format", "xlsx", "-"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "./reports.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
llm:
  provider: openai
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("openai default model = %q", cfg.LLM.Model)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := loadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TENDERLENS_TEST_TOKEN=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TENDERLENS_TEST_TOKEN", "")
	os.Unsetenv("TENDERLENS_TEST_TOKEN")
	if err := loadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("TENDERLENS_TEST_TOKEN"); got != "from-file" {
		t.Errorf("TENDERLENS_TEST_TOKEN = %q", got)
	}
}

func TestLoadEnvFile_doesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TENDERLENS_TEST_KEY=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TENDERLENS_TEST_KEY", "from-env")
	if err := loadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("TENDERLENS_TEST_KEY"); got != "from-env" {
		t.Errorf("TENDERLENS_TEST_KEY = %q, want from-env", got)
	}
}

func TestRenderTable(t *testing.T) {
	table := summary.Parse("# Tender\n**Scope**\n- HMIS\n")
	tests := []struct {
		format, input, wantName string
		wantErr                 bool
	}{
		{"docx", "notes/summary.md", "summary.md_summary.docx", false},
		{"xlsx", "summary.md", "summary.md_summary.xlsx", false},
		{"docx", "-", "table_summary.docx", false},
		{"pdf", "summary.md", "", true},
	}
	for _, tt := range tests {
		data, name, err := renderTable(table, tt.format, tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("renderTable(%s, %s) err = %v", tt.format, tt.input, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if name != tt.wantName || len(data) == 0 {
			t.Errorf("renderTable(%s, %s) = %d bytes, %q", tt.format, tt.input, len(data), name)
		}
	}
}

func TestWriteDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out, err := writeDocument(dir, "rfp.pdf_summary.docx", []byte("PK"))
	if err != nil {
		t.Fatal(err)
	}
	if out != filepath.Join(dir, "rfp.pdf_summary.docx") {
		t.Errorf("out = %s", out)
	}
	if b, err := os.ReadFile(out); err != nil || string(b) != "PK" {
		t.Errorf("read back %q, %v", b, err)
	}
}

func TestLocalStatus(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{DatabasePath: filepath.Join(dir, "reports.db")}}
	config.ApplyDefaults(cfg)
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.SaveReport(ctx, &models.Report{ID: "r1", AttachmentName: "rfp.pdf"}); err != nil {
		t.Fatal(err)
	}

	status, err := localStatus(ctx, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	if status.Reports != 1 || status.DiskUsageBytes == nil || *status.DiskUsageBytes <= 0 {
		t.Errorf("status = %+v", status)
	}

	var buf bytes.Buffer
	if err := writeStatus(&buf, status, cli.OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"reports:            1", "llm_provider:       ollama", "llm_model:          llama3.1", "min_digital_chars:  100"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("status output missing %q:\n%s", sub, buf.String())
		}
	}
}
