package pyconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_RecognizedOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ConfigFile, `
venv_path = "/opt/venvs/app"
additional_paths = ["vendor/plugins"]
exclude_patterns = ["**/node_modules/**", "**/.tox/**"]
enable_diagnostics = false
max_scan_depth = 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.VenvPath != "/opt/venvs/app" {
		t.Errorf("VenvPath = %q", cfg.VenvPath)
	}
	if len(cfg.AdditionalPaths) != 1 || cfg.AdditionalPaths[0] != "vendor/plugins" {
		t.Errorf("AdditionalPaths = %v", cfg.AdditionalPaths)
	}
	if len(cfg.ExcludePatterns) != 2 {
		t.Errorf("ExcludePatterns = %v", cfg.ExcludePatterns)
	}
	if cfg.EnableDiagnostics {
		t.Error("EnableDiagnostics = true, want false")
	}
	if cfg.MaxScanDepth != 5 {
		t.Errorf("MaxScanDepth = %d, want 5", cfg.MaxScanDepth)
	}
}

func TestLoad_DefaultsWhenKeysOmitted(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ConfigFile, `venv_path = "/opt/venv"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.EnableDiagnostics {
		t.Error("EnableDiagnostics default = false, want true")
	}
	if cfg.MaxScanDepth != 3 {
		t.Errorf("MaxScanDepth default = %d, want 3", cfg.MaxScanDepth)
	}
}

func TestLoad_UnknownKeyIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ConfigFile, `typo_path = "/opt/venv"`)

	_, err := Load(path)
	cerr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("err = %v (%T), want *ConfigError", err, err)
	}
	if cerr.Key != "typo_path" {
		t.Errorf("Key = %q, want %q", cerr.Key, "typo_path")
	}
}

func TestLoad_MalformedValueIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ConfigFile, `max_scan_depth = "deep"`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want ConfigError")
	} else if _, ok := err.(*ConfigError); !ok {
		t.Errorf("err = %v (%T), want *ConfigError", err, err)
	}
}

func TestLoad_NegativeMaxScanDepthIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ConfigFile, `max_scan_depth = -1`)

	_, err := Load(path)
	cerr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("err = %v (%T), want *ConfigError", err, err)
	}
	if cerr.Key != "max_scan_depth" {
		t.Errorf("Key = %q, want %q", cerr.Key, "max_scan_depth")
	}
}

func TestDiscover_WalksUpToFindDottedVariant(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, ConfigFileDotted, `venv_path = "/opt/venv"`)

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cfg, path, err := Discover(sub)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if cfg.VenvPath != "/opt/venv" {
		t.Errorf("VenvPath = %q", cfg.VenvPath)
	}
	wantPath := filepath.Join(root, ConfigFileDotted)
	if path != wantPath {
		t.Errorf("path = %q, want %q", path, wantPath)
	}
}

func TestDiscover_NoFileFoundReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, path, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if !cfg.EnableDiagnostics || cfg.MaxScanDepth != 3 {
		t.Errorf("cfg = %+v, want Default()", cfg)
	}
}

func TestDiscover_EnvOverrideTakesPriority(t *testing.T) {
	dir := t.TempDir()
	envPath := writeConfig(t, dir, "custom.toml", `venv_path = "/from/env"`)
	t.Setenv(EnvConfig, envPath)

	other := t.TempDir()
	writeConfig(t, other, ConfigFile, `venv_path = "/ignored"`)

	cfg, path, err := Discover(other)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if path != envPath {
		t.Errorf("path = %q, want %q", path, envPath)
	}
	if cfg.VenvPath != "/from/env" {
		t.Errorf("VenvPath = %q, want /from/env", cfg.VenvPath)
	}
}
