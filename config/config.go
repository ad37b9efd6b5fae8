// Package config loads and validates client configuration from a file
// with environment overrides.
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCEndpoint        string  `mapstructure:"rpc_endpoint"`
	PollIntervalMs     int     `mapstructure:"poll_interval_ms"`
	SlippageTolerance  float64 `mapstructure:"slippage_tolerance"`
	MaxIterations      int     `mapstructure:"max_iterations"`
	MaxSamples         int     `mapstructure:"max_samples"`
	DebugLogging       bool    `mapstructure:"debug_logging"`
	LogFile            string  `mapstructure:"log_file"`
	WhirlpoolProgramID string  `mapstructure:"whirlpool_program_id"`
}

const (
	DefaultPollIntervalMs    = 10000
	DefaultSlippageTolerance = 0.005
	DefaultMaxIterations     = 3
	DefaultMaxSamples        = 10000
	DefaultLogFile           = "orca-client.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"poll_interval_ms":   DefaultPollIntervalMs,
		"slippage_tolerance": DefaultSlippageTolerance,
		"max_iterations":     DefaultMaxIterations,
		"max_samples":        DefaultMaxSamples,
		"log_file":           DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCEndpoint == "" {
		return errors.New("missing rpc_endpoint in configuration")
	}
	if err := validateURLWithCache(cfg.RPCEndpoint, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PollIntervalMs <= 0 {
		return errors.New("invalid poll_interval_ms")
	}
	if cfg.SlippageTolerance <= 0 || cfg.SlippageTolerance >= 1 {
		return errors.New("invalid slippage_tolerance")
	}
	if cfg.MaxIterations < 1 {
		return errors.New("invalid max_iterations")
	}
	if cfg.MaxSamples < 1 {
		return errors.New("invalid max_samples")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("ORCA_CLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envEndpoint := v.GetString("RPC_ENDPOINT")
	if envEndpoint != "" {
		cfg.RPCEndpoint = envEndpoint
	}
	return nil
}
