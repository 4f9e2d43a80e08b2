// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"deadvar/internal/analysis"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Paths         []string      `toml:"paths"`
	Dialects      Dialects      `toml:"dialects"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Alerts        Alerts        `toml:"alerts"`
}

type Dialects struct {
	Python string `toml:"python"` // "python3" (default) or "python2"

	// ExtraEscapeHatches extends the per-dialect recognizer list of
	// reflective calls that suppress a scope (e.g. frameworks exposing
	// their own locals()-alike).
	ExtraEscapeHatches []string `toml:"extra_escape_hatches"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`

	// MaxRescansPerSecond bounds re-analysis churn during bulk file events
	// (branch switches, generators). Zero means 4/s.
	MaxRescansPerSecond float64 `toml:"max_rescans_per_second"`
}

type Output struct {
	SARIF string `toml:"sarif"`
}

type History struct {
	Path string `toml:"path"` // sqlite file; empty disables history
}

type Observability struct {
	Addr string `toml:"addr"` // metrics/health listen address; empty disables
	OTLP string `toml:"otlp"` // OTLP/gRPC trace collector endpoint; empty disables
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRescansPerSecond == 0 {
		cfg.Watch.MaxRescansPerSecond = 4
	}
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "node_modules", "__pycache__", ".venv"}
	}

	// DialectByName also resolves ECMAScript names; only the Python
	// dialects are legal here.
	switch cfg.Dialects.Python {
	case "", "python2", "python3":
	default:
		return nil, fmt.Errorf("unknown python dialect %q", cfg.Dialects.Python)
	}

	return &cfg, nil
}

// PythonDialect resolves the configured Python dialect with any extra
// escape hatches applied.
func (c *Config) PythonDialect() analysis.Dialect {
	d, _ := analysis.DialectByName(c.Dialects.Python)
	d.EscapeHatches = append(d.EscapeHatches, c.Dialects.ExtraEscapeHatches...)
	return d
}

// ECMAScriptDialect resolves the JavaScript/TypeScript dialect with any
// extra escape hatches applied.
func (c *Config) ECMAScriptDialect() analysis.Dialect {
	d := analysis.ECMAScript()
	d.EscapeHatches = append(d.EscapeHatches, c.Dialects.ExtraEscapeHatches...)
	return d
}
