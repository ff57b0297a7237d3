package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"voice_encoder": {"resemblyzer"},
	"stt":           {"whisper"},
	"nlu":           {"modelserver"},
	"translate":     {"libretranslate"},
}

// Defaults applied by [Validate] when fields are unset.
const (
	DefaultEmbeddingDimensions = 256
	DefaultEnrollmentSamples   = 3
	DefaultVerifyThreshold     = 0.75
	DefaultDemoCustomerID      = "demo"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values, applies
// defaults for unset fields, and returns a joined error listing all
// validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("voice_encoder", cfg.Providers.VoiceEncoder.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("nlu", cfg.Providers.NLU.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)

	// Voice defaults and bounds.
	if cfg.Voice.EmbeddingDimensions == 0 {
		cfg.Voice.EmbeddingDimensions = DefaultEmbeddingDimensions
	} else if cfg.Voice.EmbeddingDimensions < 0 {
		errs = append(errs, fmt.Errorf("voice.embedding_dimensions must be positive, got %d", cfg.Voice.EmbeddingDimensions))
	}
	if cfg.Voice.EnrollmentSamples == 0 {
		cfg.Voice.EnrollmentSamples = DefaultEnrollmentSamples
	} else if cfg.Voice.EnrollmentSamples < 1 {
		errs = append(errs, fmt.Errorf("voice.enrollment_samples must be at least 1, got %d", cfg.Voice.EnrollmentSamples))
	}
	if cfg.Voice.VerifyThreshold == 0 {
		cfg.Voice.VerifyThreshold = DefaultVerifyThreshold
	} else if cfg.Voice.VerifyThreshold < -1 || cfg.Voice.VerifyThreshold > 1 {
		errs = append(errs, fmt.Errorf("voice.verify_threshold must be within [-1, 1], got %v", cfg.Voice.VerifyThreshold))
	}

	if cfg.Dialog.ConflictPolicy != "" && !cfg.Dialog.ConflictPolicy.IsValid() {
		errs = append(errs, fmt.Errorf("dialog.conflict_policy %q is invalid; valid values: overwrite, reject", cfg.Dialog.ConflictPolicy))
	}

	if cfg.Bank.DemoCustomerID == "" {
		cfg.Bank.DemoCustomerID = DefaultDemoCustomerID
	}

	if cfg.Voice.TemplateDSN == "" {
		slog.Warn("voice.template_dsn is empty; voice templates will not survive a restart")
	}
	if cfg.Bank.PostgresDSN == "" {
		slog.Warn("bank.postgres_dsn is empty; using the in-memory demo ledger")
	}

	return errors.Join(errs...)
}

// validateProviderName warns (but does not fail) when a provider name is not
// in the known set, so third-party registrations keep working.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	if !slices.Contains(ValidProviderNames[kind], name) {
		slog.Warn("unrecognised provider name, assuming external registration",
			"kind", kind, "name", name)
	}
}
