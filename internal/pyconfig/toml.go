package pyconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load parses and validates a pytestls.toml file at path, applying
// Default() for any key the file omits.
//
// Unknown top-level keys and type-mismatched values are both surfaced as
// *ConfigError (spec.md §7 error kind 4) rather than a bare decode error,
// so the caller can report a precise key/reason pair.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Path: path, Reason: fmt.Sprintf("reading file: %v", err)}
	}

	cfg := Default()
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, &ConfigError{Path: path, Reason: fmt.Sprintf("parsing TOML: %v", err)}
	}

	for _, key := range meta.Undecoded() {
		top := key.String()
		if i := indexOfDot(top); i >= 0 {
			top = top[:i]
		}
		if !recognizedKeys[top] {
			return Config{}, &ConfigError{Path: path, Key: top, Reason: "unrecognized configuration key"}
		}
	}

	if err := validate(cfg); err != nil {
		err.Path = path
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) *ConfigError {
	if cfg.MaxScanDepth < 0 {
		return &ConfigError{Key: "max_scan_depth", Reason: "must be non-negative"}
	}
	for _, p := range cfg.ExcludePatterns {
		if p == "" {
			return &ConfigError{Key: "exclude_patterns", Reason: "pattern must not be empty"}
		}
	}
	return nil
}

func indexOfDot(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
