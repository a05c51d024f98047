// Package config provides configuration types and loading for trubot.
package config

// Config is the root configuration struct.
// Top-level groups: Paths, Model, Bot, Channels, Providers, Mirror.
type Config struct {
	Paths     PathsConfig     `json:"paths"`
	Model     ModelConfig     `json:"model"`
	Bot       BotConfig       `json:"bot"`
	Channels  ChannelsConfig  `json:"channels"`
	Providers ProvidersConfig `json:"providers"`
	Mirror    MirrorConfig    `json:"mirror"`
}

// ---------------------------------------------------------------------------
// Paths – filesystem locations
// ---------------------------------------------------------------------------

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	StateDir  string `json:"stateDir" envconfig:"STATE_DIR"`
	RulesFile string `json:"rulesFile" envconfig:"RULES_FILE"`
}

// ---------------------------------------------------------------------------
// Model – Gemini behaviour
// ---------------------------------------------------------------------------

// ModelConfig groups model and conversation settings.
type ModelConfig struct {
	// Candidates are tried in order; keep the highest-RPD model first so
	// stricter free quotas are preserved for fallback.
	Candidates      []string `json:"candidates"`
	Temperature     float64  `json:"temperature" envconfig:"TEMPERATURE"`
	MaxOutputTokens int      `json:"maxOutputTokens" envconfig:"MAX_OUTPUT_TOKENS"`
	MaxTurns        int      `json:"maxTurns" envconfig:"MAX_TURNS"`
}

// ---------------------------------------------------------------------------
// Bot – routing behaviour
// ---------------------------------------------------------------------------

// BotConfig groups message-routing settings.
type BotConfig struct {
	FbPrefix       string `json:"fbPrefix" envconfig:"BOT_PREFIX_FB"`
	TbPrefix       string `json:"tbPrefix" envconfig:"BOT_PREFIX_TB"`
	MaxReplyLength int    `json:"maxReplyLength" envconfig:"MAX_REPLY_LENGTH"`
}

// ---------------------------------------------------------------------------
// Channels – messaging integrations
// ---------------------------------------------------------------------------

// ChannelsConfig contains all channel configurations.
type ChannelsConfig struct {
	WhatsApp WhatsAppConfig `json:"whatsapp"`
}

// WhatsAppConfig configures the WhatsApp channel.
type WhatsAppConfig struct {
	Enabled   bool     `json:"enabled" envconfig:"WHATSAPP_ENABLED"`
	AllowFrom []string `json:"allowFrom"`
}

// ---------------------------------------------------------------------------
// Providers – API keys & endpoints
// ---------------------------------------------------------------------------

// ProvidersConfig contains backend provider configurations.
type ProvidersConfig struct {
	Gemini ProviderConfig `json:"gemini"`
}

// ProviderConfig contains settings for a single provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" envconfig:"GEMINI_API_KEY"`
	APIBase string `json:"apiBase,omitempty" envconfig:"GEMINI_API_BASE"`
}

// ---------------------------------------------------------------------------
// Mirror – exchange mirroring via Kafka
// ---------------------------------------------------------------------------

// MirrorConfig contains settings for the Kafka exchange mirror.
type MirrorConfig struct {
	Enabled      bool   `json:"enabled" envconfig:"MIRROR_ENABLED"`
	Name         string `json:"name" envconfig:"MIRROR_NAME"`
	KafkaBrokers string `json:"kafkaBrokers" envconfig:"KAFKA_BROKERS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			StateDir: "~/.trubot",
		},
		Model: ModelConfig{
			Candidates: []string{
				"gemini-2.0-flash-lite",
				"gemini-2.0-flash",
				"gemini-2.5-flash",
			},
			Temperature:     0.7,
			MaxOutputTokens: 2048,
			MaxTurns:        20,
		},
		Bot: BotConfig{
			FbPrefix:       "fb",
			TbPrefix:       "tb",
			MaxReplyLength: 1900,
		},
		Mirror: MirrorConfig{
			Enabled: false,
			Name:    "default",
		},
	}
}
