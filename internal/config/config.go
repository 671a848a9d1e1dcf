// Package config loads CLI settings from flags, SIEVE_* environment
// variables and an optional sieve.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/sieve/internal/condition"
	"github.com/roach88/sieve/internal/eval"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "SIEVE"

// ConfigName is the base name of the config file searched for in the
// working directory.
const ConfigName = "sieve"

// Settings are the resolved CLI settings.
type Settings struct {
	// Param is the query-string parameter that carries filters.
	Param string `mapstructure:"param"`
	// MatchTimeout bounds decomposition of one filter key.
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
	// RegexTimeout bounds one Regex operator match.
	RegexTimeout time.Duration `mapstructure:"regex_timeout"`
	// Format is the output format, "text" or "json".
	Format string `mapstructure:"format"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Settings {
	return Settings{
		Param:        condition.DefaultParam,
		MatchTimeout: condition.DefaultMatchTimeout,
		RegexTimeout: eval.DefaultRegexTimeout,
		Format:       "text",
	}
}

// Load resolves settings. flags may be nil; only flags the user changed
// override lower layers. An explicit configFile must exist; without one,
// sieve.yaml in the working directory is read if present.
func Load(flags *pflag.FlagSet, configFile string) (Settings, error) {
	v := viper.New()

	def := Defaults()
	v.SetDefault("param", def.Param)
	v.SetDefault("match_timeout", def.MatchTimeout)
	v.SetDefault("regex_timeout", def.RegexTimeout)
	v.SetDefault("format", def.Format)
	v.SetDefault("verbose", def.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Settings{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports settings no command can run with.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Param) == "" {
		return fmt.Errorf("param must not be empty")
	}
	if s.MatchTimeout <= 0 {
		return fmt.Errorf("match_timeout must be positive, got %s", s.MatchTimeout)
	}
	if s.RegexTimeout <= 0 {
		return fmt.Errorf("regex_timeout must be positive, got %s", s.RegexTimeout)
	}
	if s.Format != "text" && s.Format != "json" {
		return fmt.Errorf("invalid format %q: must be one of [text json]", s.Format)
	}
	return nil
}

// ParserOptions returns the parser options the settings select.
func (s Settings) ParserOptions() []condition.Option {
	return []condition.Option{
		condition.WithParam(s.Param),
		condition.WithMatchTimeout(s.MatchTimeout),
	}
}
