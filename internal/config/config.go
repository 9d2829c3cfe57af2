// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice core and demo binary.
type Config struct {
	AzureKey    string
	AzureRegion string

	DefaultPersona string
	SynthTimeout   time.Duration
	IdleThreshold  time.Duration

	CacheCapacity   int
	PreloadPriority int
	MatchThreshold  int
	FlavorChance    float64
	CachingEnabled  bool
	ChunkSize       int

	FallbackRate   float64
	FallbackVolume float64

	MetricsAddr      string
	MetricsNamespace string
}

// ProviderEnabled reports whether Azure credentials are configured.
func (c Config) ProviderEnabled() bool {
	return c.AzureKey != "" && c.AzureRegion != ""
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		AzureKey:         strings.TrimSpace(os.Getenv("AZURE_SPEECH_KEY")),
		AzureRegion:      strings.TrimSpace(os.Getenv("AZURE_SPEECH_REGION")),
		DefaultPersona:   envOrDefault("OTTO_DEFAULT_PERSONA", "otto"),
		MetricsAddr:      strings.TrimSpace(os.Getenv("OTTO_METRICS_ADDR")),
		MetricsNamespace: envOrDefault("OTTO_METRICS_NAMESPACE", "ottovoice"),
	}

	var err error
	if cfg.SynthTimeout, err = durationFromEnv("OTTO_SYNTH_TIMEOUT", 6*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdleThreshold, err = durationFromEnv("OTTO_IDLE_THRESHOLD", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheCapacity, err = intFromEnv("OTTO_CACHE_CAPACITY", 100); err != nil {
		return Config{}, err
	}
	if cfg.PreloadPriority, err = intFromEnv("OTTO_PRELOAD_PRIORITY", 7); err != nil {
		return Config{}, err
	}
	if cfg.MatchThreshold, err = intFromEnv("OTTO_MATCH_THRESHOLD", 20); err != nil {
		return Config{}, err
	}
	if cfg.ChunkSize, err = intFromEnv("OTTO_CHUNK_SIZE", 200); err != nil {
		return Config{}, err
	}
	if cfg.FlavorChance, err = floatFromEnv("OTTO_FLAVOR_CHANCE", 0.3); err != nil {
		return Config{}, err
	}
	if cfg.FallbackRate, err = floatFromEnv("OTTO_FALLBACK_RATE", 1.0); err != nil {
		return Config{}, err
	}
	if cfg.FallbackVolume, err = floatFromEnv("OTTO_FALLBACK_VOLUME", 1.0); err != nil {
		return Config{}, err
	}
	if cfg.CachingEnabled, err = boolFromEnv("OTTO_CACHING", true); err != nil {
		return Config{}, err
	}

	if cfg.SynthTimeout < time.Second || cfg.SynthTimeout > 30*time.Second {
		return Config{}, fmt.Errorf("OTTO_SYNTH_TIMEOUT must be between 1s and 30s")
	}
	if cfg.IdleThreshold <= 0 {
		return Config{}, fmt.Errorf("OTTO_IDLE_THRESHOLD must be positive")
	}
	if cfg.CacheCapacity <= 0 {
		return Config{}, fmt.Errorf("OTTO_CACHE_CAPACITY must be positive")
	}
	if cfg.PreloadPriority < 0 || cfg.PreloadPriority > 10 {
		return Config{}, fmt.Errorf("OTTO_PRELOAD_PRIORITY must be within 0-10")
	}
	if cfg.MatchThreshold < 0 {
		return Config{}, fmt.Errorf("OTTO_MATCH_THRESHOLD must be >= 0")
	}
	if cfg.ChunkSize < 0 {
		return Config{}, fmt.Errorf("OTTO_CHUNK_SIZE must be >= 0")
	}
	if cfg.FlavorChance < 0 || cfg.FlavorChance > 1 {
		return Config{}, fmt.Errorf("OTTO_FLAVOR_CHANCE must be within 0-1")
	}
	if cfg.FallbackRate <= 0 || cfg.FallbackVolume <= 0 {
		return Config{}, fmt.Errorf("OTTO_FALLBACK_RATE and OTTO_FALLBACK_VOLUME must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
