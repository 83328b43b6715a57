// Package config loads the tlisp configuration file (tlisp.yaml or tlisp.json).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory when no --config flag is given.
const DefaultPath = "tlisp.yaml"

// Config is the complete configuration of the tlisp binary.
type Config struct {
	// StepBudget bounds one top-level run. 0 keeps the engine default.
	StepBudget int `mapstructure:"step_budget"`
	// MaxDepth bounds evaluator recursion. 0 keeps the evaluator default.
	MaxDepth int `mapstructure:"max_depth"`
	// Library is a directory of markdown automaton definitions.
	Library string    `mapstructure:"library"`
	Log     LogConfig `mapstructure:"log"`
	Redis   Redis     `mapstructure:"redis"`
	Server  Server    `mapstructure:"server"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Redis configures the redis definition store. It is enabled when Addr is set.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Server: Server{Addr: ":8080"},
	}
}

// Load reads a YAML or JSON file (by extension) over the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Decode merges raw into cfg. Durations accept strings such as "10m".
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
