// Package pyconfig provides configuration discovery and validation for
// pytestls: the pytestls.toml / .pytestls.toml workspace file, the
// PYTESTLS_CONFIG environment override, and the spec.md §6 option table
// (venv_path, additional_paths, exclude_patterns, enable_diagnostics,
// max_scan_depth).
//
// Grounded on internal/skyconfig's discovery-by-walking-up-the-tree and
// env-var-override shape; replaces its dual Starlark/TOML format support
// with TOML-only, since the fixture domain has no dynamic-config use case
// that would justify a second, executable format.
package pyconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFile is the canonical pytestls TOML config filename.
const ConfigFile = "pytestls.toml"

// ConfigFileDotted is the dotfile variant, checked when ConfigFile is absent.
const ConfigFileDotted = ".pytestls.toml"

// EnvConfig is the environment variable naming an explicit config path,
// taking priority over discovery.
const EnvConfig = "PYTESTLS_CONFIG"

// recognizedKeys is the spec.md §6 option table. Any other top-level key
// in a parsed config file is a ConfigError (error kind 4).
var recognizedKeys = map[string]bool{
	"venv_path":          true,
	"additional_paths":   true,
	"exclude_patterns":   true,
	"enable_diagnostics": true,
	"max_scan_depth":     true,
}

// Config is the validated, in-memory form of spec.md §6's option table.
type Config struct {
	VenvPath          string   `toml:"venv_path"`
	AdditionalPaths   []string `toml:"additional_paths"`
	ExcludePatterns   []string `toml:"exclude_patterns"`
	EnableDiagnostics bool     `toml:"enable_diagnostics"`
	MaxScanDepth      int      `toml:"max_scan_depth"`
}

// Default returns the spec.md-documented defaults: diagnostics on, plugin
// scan recursion bounded at 3.
func Default() Config {
	return Config{
		EnableDiagnostics: true,
		MaxScanDepth:      3,
	}
}

// ConfigError is spec.md §7's error kind 4: an unknown key or a malformed
// value in a configuration file. It carries the offending path and key so
// the editor side can surface a precise, structured reason rather than a
// bare parse error.
type ConfigError struct {
	Path   string // config file path, or "" for env/caller-supplied config
	Key    string // offending key, or "" when the failure isn't key-specific
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("pytestls config %s: key %q: %s", e.Path, e.Key, e.Reason)
	}
	return fmt.Sprintf("pytestls config %s: %s", e.Path, e.Reason)
}

// Discover searches for a configuration file starting from startDir.
//
// Resolution order:
//  1. PYTESTLS_CONFIG env var, if set — used verbatim, no further search.
//  2. Walk up from startDir looking for pytestls.toml, then .pytestls.toml,
//     in each directory, stopping at the first directory where either
//     exists or at the filesystem root.
//
// Returns (Default(), "", nil) when nothing is found; a missing, unreadable
// or invalid file named by the env var is an error, not a silent
// fallback to defaults, since the user explicitly pointed at it.
func Discover(startDir string) (Config, string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		cfg, err := Load(envPath)
		if err != nil {
			return Config{}, "", err
		}
		return cfg, envPath, nil
	}

	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return Config{}, "", fmt.Errorf("resolving working directory: %w", err)
		}
	}
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return Config{}, "", fmt.Errorf("resolving path %s: %w", startDir, err)
	}

	dir := absDir
	for {
		for _, name := range []string{ConfigFile, ConfigFileDotted} {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				cfg, err := Load(path)
				if err != nil {
					return Config{}, "", err
				}
				return cfg, path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return Default(), "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
