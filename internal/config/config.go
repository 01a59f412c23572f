// ABOUTME: Hook configuration loading from TOML or YAML files
// ABOUTME: A missing config file yields an empty hook list (transparent passthrough)

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mauromedda/screenhook/internal/log"
)

// HookDef is one pattern-triggered command as declared in the config file.
// Declaration order is significant: hooks are evaluated and fired in order.
type HookDef struct {
	Name       string `toml:"name" yaml:"name"`
	Regex      string `toml:"regex" yaml:"regex"`
	Command    string `toml:"command" yaml:"command"`
	CooldownMS *int64 `toml:"cooldown_ms" yaml:"cooldown_ms,omitempty"`
}

// Cooldown returns the configured cooldown, or zero when none is set.
func (h HookDef) Cooldown() time.Duration {
	if h.CooldownMS == nil || *h.CooldownMS <= 0 {
		return 0
	}
	return time.Duration(*h.CooldownMS) * time.Millisecond
}

// LogSettings configures diagnostics output. CLI flags take precedence.
type LogSettings struct {
	File  string `toml:"file" yaml:"file,omitempty"`
	Level string `toml:"level" yaml:"level,omitempty"`
}

// Config is the top-level config file.
type Config struct {
	Hooks []HookDef   `toml:"hooks" yaml:"hooks"`
	Log   LogSettings `toml:"log" yaml:"log,omitempty"`
}

// Format identifies a config file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension. Anything that is not
// YAML is read as TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Load reads the config at path, or at DefaultConfigFile when path is empty.
// A missing file is not an error and yields an empty Config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("config %s not found; running without hooks", path)
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	ResolveEnvVars(cfg)
	return cfg, nil
}

// Parse decodes config data in the given format.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			log.Warn("ignoring unknown config keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	return &cfg, nil
}
