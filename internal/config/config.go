// Package config loads typesim.toml.
//
//	[repl]
//	prompt = ">> "
//	color = "auto"      # auto|on|off
//
//	[log]
//	level = "warn"      # debug|info|warn|error
//	json = false
//
//	[prelude]
//	files = ["defs/c.toml"]   # relative to the config file
//	workers = 0               # describe concurrency, 0 = GOMAXPROCS
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

// FileName is the config file searched for by Find.
const FileName = "typesim.toml"

// Config is the decoded configuration.
type Config struct {
	Path    string        `toml:"-"`
	Repl    ReplConfig    `toml:"repl"`
	Log     LogConfig     `toml:"log"`
	Prelude PreludeConfig `toml:"prelude"`
}

type ReplConfig struct {
	Prompt string `toml:"prompt"`
	Color  string `toml:"color"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type PreludeConfig struct {
	Files   []string `toml:"files"`
	Workers int      `toml:"workers"`
}

// ColorMode controls ANSI colouring.
type ColorMode string

const (
	ColorAuto ColorMode = "auto"
	ColorOn   ColorMode = "on"
	ColorOff  ColorMode = "off"
)

// ParseColorMode validates a colour setting.
func ParseColorMode(value string) (ColorMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always":
		return ColorOn, nil
	case "off", "never":
		return ColorOff, nil
	default:
		return "", fmt.Errorf("invalid color value %q (expected auto|on|off)", value)
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repl: ReplConfig{Prompt: ">> ", Color: string(ColorAuto)},
		Log:  LogConfig{Level: "warn"},
	}
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(c.Log.Level))
	if err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid [log].level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path over Default. Unknown keys are rejected and prelude
// paths are made absolute relative to the file.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path

	if _, err := ParseColorMode(cfg.Repl.Color); err != nil {
		return Config{}, fmt.Errorf("%s: [repl].color: %w", path, err)
	}
	if _, err := cfg.LogLevel(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Prelude.Workers < 0 {
		return Config{}, fmt.Errorf("%s: [prelude].workers must not be negative", path)
	}
	base := filepath.Dir(path)
	for i, f := range cfg.Prelude.Files {
		if strings.TrimSpace(f) == "" {
			return Config{}, fmt.Errorf("%s: [prelude].files[%d] is empty", path, i)
		}
		if !filepath.IsAbs(f) {
			cfg.Prelude.Files[i] = filepath.Join(base, filepath.FromSlash(f))
		}
	}
	return cfg, nil
}

// LoadNearest loads the closest typesim.toml above startDir, or returns
// Default when there is none.
func LoadNearest(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
