package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the contents of config.toml. Fields left out of the file keep
// their DefaultConfig values.
type Config struct {
	Sheet SheetConfig `toml:"sheet"`
	Serve ServeConfig `toml:"serve"`
	Log   LogConfig   `toml:"log"`
}

// SheetConfig sizes the documents that `sheet new` and the server create.
type SheetConfig struct {
	Rows int `toml:"rows"`
	Cols int `toml:"cols"`
}

// ServeConfig configures `gridcalc serve`.
type ServeConfig struct {
	Addr string `toml:"addr"`
	// AllowedOrigins lists the browser origins that may open a session.
	// Empty allows same-host requests only.
	AllowedOrigins  []string `toml:"allowed_origins"`
	MaxMessageBytes int64    `toml:"max_message_bytes"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Sheet: SheetConfig{Rows: 10, Cols: 5},
		Serve: ServeConfig{Addr: ":8080", MaxMessageBytes: 1 << 20},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

func dir() (string, error) {
	if v := os.Getenv("GRIDCALC_CONFIG_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gridcalc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gridcalc"), nil
}

// Path returns the location of the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.toml"), nil
}

// Load reads the config file and applies environment overrides. Returns
// DefaultConfig if the file does not exist.
func Load() (Config, error) {
	cfg := DefaultConfig()
	p, err := Path()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("parsing %s: %w", p, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", p, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GRIDCALC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GRIDCALC_ADDR"); v != "" {
		cfg.Serve.Addr = v
	}
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if c.Sheet.Rows < 0 || c.Sheet.Cols < 0 {
		return fmt.Errorf("sheet size %dx%d is negative", c.Sheet.Rows, c.Sheet.Cols)
	}
	if c.Serve.MaxMessageBytes <= 0 {
		return fmt.Errorf("serve.max_message_bytes must be positive, got %d", c.Serve.MaxMessageBytes)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Save writes the config to disk atomically using a temp file + rename.
func Save(cfg Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0o700); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	// Remove dest first for Windows compat (os.Rename fails if dest exists on Windows).
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the config file.
func Delete() error {
	p, err := Path()
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
