// Package config reads the mysql2psql TOML configuration file.
//
// A configuration file is optional. Values it sets are the lowest layer
// above built-in defaults; environment variables and command line flags
// override them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up when none is given.
const FileName = "mysql2psql.toml"

// Config is the top-level TOML document.
type Config struct {
	Convert ConvertConfig `toml:"convert"`
	Apply   ApplyConfig   `toml:"apply"`
	Log     LogConfig     `toml:"log"`
}

// ConvertConfig maps [convert].
type ConvertConfig struct {
	Rollback     bool   `toml:"rollback"`
	InputCharset string `toml:"input_charset"`
	Progress     bool   `toml:"progress"`
	Report       string `toml:"report"`
	// Casts maps [convert.casts]: "table.column" = "type".
	Casts map[string]string `toml:"casts"`
}

// ApplyConfig maps [apply].
type ApplyConfig struct {
	DSN                   string `toml:"dsn"`
	DryRun                bool   `toml:"dry_run"`
	Transaction           bool   `toml:"transaction"`
	AllowNonTransactional bool   `toml:"allow_non_transactional"`
	Unsafe                bool   `toml:"unsafe"`
	// Timeout is in seconds; zero disables it.
	Timeout int `toml:"timeout"`
}

// LogConfig maps [log].
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

var (
	validReports    = []string{"summary", "json", "none"}
	validLogLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	validLogFormats = []string{"text", "json"}
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			InputCharset: "utf-8",
			Progress:     true,
			Report:       "summary",
			Casts:        map[string]string{},
		},
		Apply: ApplyConfig{
			Transaction: true,
			Timeout:     300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r on top of the defaults. Unknown keys are an error.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Convert.Casts == nil {
		cfg.Convert.Casts = map[string]string{}
	}
	return cfg, nil
}

// Validate checks every value that has a fixed set of choices.
func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.Convert.Report, validReports) {
		errs = append(errs, fmt.Errorf("convert.report: %q is not one of %s", c.Convert.Report, strings.Join(validReports, ", ")))
	}
	for key, typ := range c.Convert.Casts {
		table, column, ok := strings.Cut(key, ".")
		if !ok || table == "" || column == "" {
			errs = append(errs, fmt.Errorf("convert.casts: key %q must be table.column", key))
		}
		if strings.TrimSpace(typ) == "" {
			errs = append(errs, fmt.Errorf("convert.casts: %q has an empty type", key))
		}
	}
	if c.Apply.Timeout < 0 {
		errs = append(errs, fmt.Errorf("apply.timeout: must not be negative, got %d", c.Apply.Timeout))
	}
	if !oneOf(strings.ToLower(c.Log.Level), validLogLevels) {
		errs = append(errs, fmt.Errorf("log.level: %q is not a valid level", c.Log.Level))
	}
	if !oneOf(strings.ToLower(c.Log.Format), validLogFormats) {
		errs = append(errs, fmt.Errorf("log.format: %q is not one of %s", c.Log.Format, strings.Join(validLogFormats, ", ")))
	}
	return errors.Join(errs...)
}

// Settings flattens the configuration into dotted keys, the form used to
// seed the layered flag and environment lookup. Casts are not included.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"convert.rollback":              c.Convert.Rollback,
		"convert.input_charset":         c.Convert.InputCharset,
		"convert.progress":              c.Convert.Progress,
		"convert.report":                c.Convert.Report,
		"apply.dsn":                     c.Apply.DSN,
		"apply.dry_run":                 c.Apply.DryRun,
		"apply.transaction":             c.Apply.Transaction,
		"apply.allow_non_transactional": c.Apply.AllowNonTransactional,
		"apply.unsafe":                  c.Apply.Unsafe,
		"apply.timeout":                 c.Apply.Timeout,
		"log.level":                     c.Log.Level,
		"log.format":                    c.Log.Format,
	}
}

func oneOf(v string, choices []string) bool {
	for _, c := range choices {
		if v == c {
			return true
		}
	}
	return false
}
