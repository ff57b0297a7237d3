// Package config provides the configuration schema, loader, and provider
// registry for the voice banking assistant.
package config

import (
	"github.com/vaani-labs/vaani/internal/dialog"
)

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Voice     VoiceConfig     `yaml:"voice"`
	Dialog    DialogConfig    `yaml:"dialog"`
	Bank      BankConfig      `yaml:"bank"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// external collaborator. Each field selects a named provider registered in
// the [Registry].
type ProvidersConfig struct {
	VoiceEncoder ProviderEntry `yaml:"voice_encoder"`
	STT          ProviderEntry `yaml:"stt"`
	NLU          ProviderEntry `yaml:"nlu"`
	Translate    ProviderEntry `yaml:"translate"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "resemblyzer", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint. Leave empty to use
	// the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "base.en").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// VoiceConfig holds the speaker-verification parameters.
type VoiceConfig struct {
	// EmbeddingDimensions is the vector size produced by the voice encoder.
	// Must match the encoder model. Default: 256.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`

	// EnrollmentSamples is the exact number of utterance samples one
	// enrollment consumes. Default: 3.
	EnrollmentSamples int `yaml:"enrollment_samples"`

	// VerifyThreshold is the minimum cosine similarity for a probe to pass
	// the gate. Default: 0.75. Raise to trade false accepts for false
	// rejects.
	VerifyThreshold float64 `yaml:"verify_threshold"`

	// TemplateDSN is the PostgreSQL DSN for persisted voice templates.
	// Empty selects the in-memory store (templates lost on restart).
	TemplateDSN string `yaml:"template_dsn"`
}

// DialogConfig holds the dialog state machine parameters.
type DialogConfig struct {
	// ConflictPolicy decides whether a re-stated slot value overwrites the
	// previous one ("overwrite", the default) or is rejected ("reject").
	ConflictPolicy dialog.ConflictPolicy `yaml:"conflict_policy"`

	// RequiredSlots overrides the built-in per-intent required-slot lists.
	// Keys are intent labels; values are ordered slot names.
	RequiredSlots map[string][]string `yaml:"required_slots"`

	// SubIntentSlots overrides the built-in per-sub-intent lists.
	SubIntentSlots map[string][]string `yaml:"sub_intent_slots"`
}

// BankConfig holds the ledger connection settings.
type BankConfig struct {
	// PostgresDSN is the ledger database. Empty selects the in-memory demo
	// ledger seeded with example data.
	PostgresDSN string `yaml:"postgres_dsn"`

	// DemoCustomerID is the customer seeded into the in-memory ledger and
	// assumed for requests that don't carry their own customer identity.
	DemoCustomerID string `yaml:"demo_customer_id"`
}
