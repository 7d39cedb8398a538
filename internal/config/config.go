package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/spf13/viper"
)

// Default scan limits.
const (
	DefaultMaxMessages        = 50
	DefaultLookbackDays       = 30
	DefaultMaxLookbackDays    = 365
	DefaultBodyTruncateLength = 1500
	DefaultPromptBodyLength   = 800
	DefaultModelTimeout       = 20 * time.Second
	DefaultCategory           = "Other"
)

// DefaultSearchKeywords are combined into the mailbox search query.
var DefaultSearchKeywords = []string{
	"receipt",
	"invoice",
	"renews on",
	"order confirmation",
	"subscription",
	"billing",
	"payment received",
}

// DefaultGateKeywords are matched against subject and snippet before any model call.
var DefaultGateKeywords = []string{
	"receipt",
	"invoice",
	"renew",
	"subscription",
	"billing",
	"payment",
	"charged",
	"order confirmation",
	"membership",
	"your plan",
	"trial",
}

// Config is the fully resolved application configuration.
type Config struct {
	UserID      string
	Scan        ScanConfig
	LLM         LLMConfig
	Database    DatabaseConfig
	Mailbox     MailboxConfig
	Commit      CommitConfig
	Entitlement EntitlementConfig
	Server      ServerConfig
}

// ScanConfig holds the limits that shape a single scan.
type ScanConfig struct {
	SearchKeywords     []string
	GateKeywords       []string
	MaxMessages        int
	LookbackDays       int
	MaxLookbackDays    int
	BodyTruncateLength int
	PromptBodyLength   int
	ModelTimeout       time.Duration
}

// LLMConfig selects and tunes the text-generation provider.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int // Requests per minute
	Temperature float64
	MaxTokens   int
}

// Enabled reports whether a model provider is configured.
func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

// DatabaseConfig selects the record store backend.
type DatabaseConfig struct {
	Driver string // sqlite or postgres
	Path   string
	URL    string
}

// MailboxConfig carries the opaque credential supplied by the auth collaborator.
type MailboxConfig struct {
	AccessToken string
}

// CommitConfig holds defaults for inserted records.
type CommitConfig struct {
	DefaultCategory string
}

// EntitlementConfig is the static tier gate.
type EntitlementConfig struct {
	ScanEnabled bool
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string
	CertDir string
	TLS     bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("user_id", "local")

	v.SetDefault("scan.search_keywords", DefaultSearchKeywords)
	v.SetDefault("scan.gate_keywords", DefaultGateKeywords)
	v.SetDefault("scan.max_messages", DefaultMaxMessages)
	v.SetDefault("scan.lookback_days", DefaultLookbackDays)
	v.SetDefault("scan.max_lookback_days", DefaultMaxLookbackDays)
	v.SetDefault("scan.body_truncate_length", DefaultBodyTruncateLength)
	v.SetDefault("scan.prompt_body_length", DefaultPromptBodyLength)
	v.SetDefault("scan.model_timeout", DefaultModelTimeout)

	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 300)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "~/.local/share/subscout/subscout.db")

	v.SetDefault("commit.default_category", DefaultCategory)
	v.SetDefault("entitlement.scan_enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "~/.config/subscout/certs")
}

// Load reads the configuration from v, applying defaults first.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		UserID: v.GetString("user_id"),
		Scan: ScanConfig{
			SearchKeywords:     v.GetStringSlice("scan.search_keywords"),
			GateKeywords:       v.GetStringSlice("scan.gate_keywords"),
			MaxMessages:        v.GetInt("scan.max_messages"),
			LookbackDays:       v.GetInt("scan.lookback_days"),
			MaxLookbackDays:    v.GetInt("scan.max_lookback_days"),
			BodyTruncateLength: v.GetInt("scan.body_truncate_length"),
			PromptBodyLength:   v.GetInt("scan.prompt_body_length"),
			ModelTimeout:       v.GetDuration("scan.model_timeout"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			Path:   ExpandPath(v.GetString("database.path")),
			URL:    v.GetString("database.url"),
		},
		Mailbox: MailboxConfig{
			AccessToken: v.GetString("mailbox.access_token"),
		},
		Commit: CommitConfig{
			DefaultCategory: v.GetString("commit.default_category"),
		},
		Entitlement: EntitlementConfig{
			ScanEnabled: v.GetBool("entitlement.scan_enabled"),
		},
		Server: ServerConfig{
			Addr:    v.GetString("server.addr"),
			TLS:     v.GetBool("server.tls"),
			CertDir: ExpandPath(v.GetString("server.cert_dir")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: user_id is required", common.ErrInvalidConfig)
	}
	if c.Scan.MaxMessages <= 0 || c.Scan.MaxMessages > DefaultMaxMessages {
		return fmt.Errorf("%w: scan.max_messages must be between 1 and %d", common.ErrInvalidConfig, DefaultMaxMessages)
	}
	if c.Scan.LookbackDays <= 0 || c.Scan.MaxLookbackDays <= 0 {
		return fmt.Errorf("%w: scan lookback days must be positive", common.ErrInvalidConfig)
	}
	if len(c.Scan.SearchKeywords) == 0 || len(c.Scan.GateKeywords) == 0 {
		return fmt.Errorf("%w: scan keyword lists cannot be empty", common.ErrInvalidConfig)
	}
	if c.Scan.BodyTruncateLength <= 0 || c.Scan.PromptBodyLength <= 0 {
		return fmt.Errorf("%w: body lengths must be positive", common.ErrInvalidConfig)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported database driver %q", common.ErrInvalidConfig, c.Database.Driver)
	}

	if c.LLM.Enabled() && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key for provider %s", common.ErrMissingConfig, c.LLM.Provider)
	}
	return nil
}
