// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package config loads the typed configuration tree for the call-session
// runtime: audio cache budgets, output-device pacing allowance, and the
// external-action HTTP client's timeout, via viper with struct-tag
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AudioCacheConfig sizes the per-language LRU budgets (§4.B).
type AudioCacheConfig struct {
	TTL             time.Duration    `mapstructure:"ttl" validate:"required"`
	DefaultBudget   int64            `mapstructure:"default_budget_bytes" validate:"required,gt=0"`
	LanguageBudgets map[string]int64 `mapstructure:"language_budgets_bytes"`
}

// OutputDeviceConfig configures the rate-limited consumer loop (§4.A).
type OutputDeviceConfig struct {
	QueueSize         int           `mapstructure:"queue_size" validate:"required,gt=0"`
	SubchunkSizeBytes int           `mapstructure:"subchunk_size_bytes"`
	PerChunkAllowance time.Duration `mapstructure:"per_chunk_allowance"`
}

// ExternalActionConfig configures the HTTP client the external-action
// runner dispatches through (§4.E).
type ExternalActionConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" validate:"required"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
}

// Config is the full typed configuration tree for the runtime.
type Config struct {
	AudioCache     AudioCacheConfig     `mapstructure:"audio_cache" validate:"required"`
	OutputDevice   OutputDeviceConfig   `mapstructure:"output_device" validate:"required"`
	ExternalAction ExternalActionConfig `mapstructure:"external_action" validate:"required"`
}

// defaults matches spec.md §4.B's literal per-language budget table
// (Open Question #2: spec.md's numbers are authoritative over
// original_source's single bucket).
func defaults() Config {
	return Config{
		AudioCache: AudioCacheConfig{
			TTL:           4 * time.Hour,
			DefaultBudget: 512 << 20,
			LanguageBudgets: map[string]int64{
				"es": int64(1.5 * float64(1<<30)),
				"en": 512 << 20,
				"pt": 512 << 20,
				"fr": 512 << 20,
			},
		},
		OutputDevice: OutputDeviceConfig{
			QueueSize: 64,
		},
		ExternalAction: ExternalActionConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from path (if non-empty) layered over
// environment variables prefixed RAPIDA_, falling back to defaults() for
// anything unset, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RAPIDA")
	v.AutomaticEnv()

	cfg := defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config %q: %w", path, err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
