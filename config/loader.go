package config

import (
	"context"
	"os"
	"strings"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every configuration variable.
	EnvPrefix = "PLAYERTIER_"
	// EnvConfigFile names the YAML file used when Load gets no path.
	EnvConfigFile = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. the YAML file at path, or at $PLAYERTIER_CONFIG when path is empty
//  3. PLAYERTIER_* variables, "__" separating nested keys
//     (PLAYERTIER_LOG__LEVEL sets log.level)
//
// CLI flags are applied by the caller on top of the result, which is then
// validated again.
func Load(ctx context.Context, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(ErrLoadConfig, "%s: %v", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrapf(ErrLoadConfig, "environment: %v", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrapf(ErrLoadConfig, "decode: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
