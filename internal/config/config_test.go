package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opcount.yaml")
	content := `toolset: clang
matcher: demangled
fallback: [prefix]
strict: true
jobs: 0
limits:
  test_nested:
    gcc: 0
    clang: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Toolset != "clang" || cfg.Matcher != "demangled" || !cfg.Strict {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Fallback) != 1 || cfg.Fallback[0] != "prefix" {
		t.Errorf("fallback = %v", cfg.Fallback)
	}
	if cfg.Jobs != 1 {
		t.Errorf("jobs = %d, want clamped to 1", cfg.Jobs)
	}

	tests := []struct {
		name    string
		test    string
		toolset string
		want    int
	}{
		{"explicit toolset", "test_nested", "gcc", 0},
		{"configured toolset", "test_nested", "", 2},
		{"unknown toolset", "test_nested", "msvc", NoLimit},
		{"unknown test", "static_map", "gcc", NoLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.Limit(tt.test, tt.toolset); got != tt.want {
				t.Errorf("Limit(%q, %q) = %d, want %d", tt.test, tt.toolset, got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOOLSET", "gcc")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Toolset != "gcc" || cfg.Matcher != "prefix" || cfg.Jobs != 4 {
		t.Errorf("defaults = %+v", cfg)
	}
	if got := cfg.Limit("anything", ""); got != NoLimit {
		t.Errorf("Limit = %d, want NoLimit", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("limits: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestNilConfigLimit(t *testing.T) {
	var cfg *Config
	if got := cfg.Limit("t", "gcc"); got != NoLimit {
		t.Errorf("nil Limit = %d", got)
	}
}
