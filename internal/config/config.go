// Package config defines the top-level configuration for the hashpredict
// server and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by HASHPREDICT_* environment variables.
type Config struct {
	Chain      ChainConfig      `toml:"chain"`
	AI         AIConfig         `toml:"ai"`
	Supabase   SupabaseConfig   `toml:"supabase"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Resolution ResolutionConfig `toml:"resolution"`
	Claims     ClaimsConfig     `toml:"claims"`
	Poller     PollerConfig     `toml:"poller"`
	Rewards    RewardsConfig    `toml:"rewards"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// ChainConfig selects and parameterizes the chain adapter.
type ChainConfig struct {
	// Backend selects the adapter: "aptos" or "evm".
	Backend string           `toml:"backend"`
	Aptos   AptosChainConfig `toml:"aptos"`
	EVM     EVMChainConfig   `toml:"evm"`

	// KeyFile points at an encrypted signing key produced by the crypto
	// package. Used when the backend's private_key is empty.
	KeyFile     string `toml:"key_file"`
	KeyPassword string `toml:"key_password"`
}

// AptosChainConfig holds Aptos fullnode and module parameters.
type AptosChainConfig struct {
	NodeURL       string `toml:"node_url"`
	ModuleAddress string `toml:"module_address"`
	ModuleName    string `toml:"module_name"`
	RewardModule  string `toml:"reward_module"`
	PrivateKey    string `toml:"private_key"`
}

// EVMChainConfig holds EVM node and contract parameters.
type EVMChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ContractAddress string `toml:"contract_address"`
	PrivateKey      string `toml:"private_key"`
	ChainID         int64  `toml:"chain_id"`
}

// AIConfig holds credentials and models for the two LLM providers.
type AIConfig struct {
	OpenAI     OpenAIConfig     `toml:"openai"`
	Perplexity PerplexityConfig `toml:"perplexity"`
}

// OpenAIConfig holds the judge/generator provider parameters.
type OpenAIConfig struct {
	Endpoint string `toml:"endpoint"`
	ApiKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// PerplexityConfig holds the web-context provider parameters.
type PerplexityConfig struct {
	Endpoint string `toml:"endpoint"`
	ApiKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// SupabaseConfig holds PostgreSQL / Supabase connection parameters.
type SupabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ResolutionConfig holds AI-resolution parameters.
type ResolutionConfig struct {
	// AutoSubmit skips the confirm step and submits the AI verdict directly.
	// Off by default; the propose/confirm flow is the intended path.
	AutoSubmit bool `toml:"auto_submit"`
	// PendingTTL is how long a proposed verdict stays confirmable.
	PendingTTL duration `toml:"pending_ttl"`
	// ArchiveTranscripts writes the full provider exchange to object storage.
	ArchiveTranscripts bool `toml:"archive_transcripts"`
	// MinConfidence below which a proposed verdict is flagged for review.
	MinConfidence float64 `toml:"min_confidence"`
}

// ClaimsConfig selects the payout flow.
type ClaimsConfig struct {
	// Strategy is "direct" (claim pays immediately) or "approval"
	// (submit then admin approve).
	Strategy string `toml:"strategy"`
}

// PollerConfig holds the snapshot poller parameters.
type PollerConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
}

// RewardsConfig holds daily-claim and referral parameters.
type RewardsConfig struct {
	// DailyClaimWindow is the minimum spacing between daily claims per user,
	// enforced server-side before the chain is touched.
	DailyClaimWindow duration `toml:"daily_claim_window"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// AdminApiKey guards the admin surface (resolution confirm, market
	// creation, claim approval). Empty disables the check.
	AdminApiKey string `toml:"admin_api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			Backend: "aptos",
			Aptos: AptosChainConfig{
				NodeURL:      "https://fullnode.testnet.aptoslabs.com",
				ModuleName:   "hashpredictalpha",
				RewardModule: "reward_system",
			},
			EVM: EVMChainConfig{
				ChainID: 1,
			},
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				Endpoint: "https://api.openai.com",
				Model:    "gpt-4",
			},
			Perplexity: PerplexityConfig{
				Endpoint: "https://api.perplexity.ai",
				Model:    "llama-3.1-sonar-small-128k-online",
			},
		},
		Supabase: SupabaseConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "hashpredict-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Resolution: ResolutionConfig{
			AutoSubmit:         false,
			PendingTTL:         duration{24 * time.Hour},
			ArchiveTranscripts: true,
			MinConfidence:      0.6,
		},
		Claims: ClaimsConfig{
			Strategy: "direct",
		},
		Poller: PollerConfig{
			Enabled:  true,
			Interval: duration{30 * time.Second},
		},
		Rewards: RewardsConfig{
			DailyClaimWindow: duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        3000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"resolution_proposed", "resolution_submitted", "market_expired", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":   true,
	"poll":    true,
	"resolve": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validBackends enumerates the accepted values for Chain.Backend.
var validBackends = map[string]bool{
	"aptos": true,
	"evm":   true,
}

// validClaimStrategies enumerates the accepted values for Claims.Strategy.
var validClaimStrategies = map[string]bool{
	"direct":   true,
	"approval": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, poll, resolve, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain
	backend := strings.ToLower(c.Chain.Backend)
	if !validBackends[backend] {
		errs = append(errs, fmt.Sprintf("chain: unknown backend %q (valid: aptos, evm)", c.Chain.Backend))
	}
	switch backend {
	case "aptos":
		if c.Chain.Aptos.NodeURL == "" {
			errs = append(errs, "chain.aptos: node_url must not be empty")
		}
		if c.Chain.Aptos.ModuleAddress == "" {
			errs = append(errs, "chain.aptos: module_address must not be empty")
		}
		if c.Chain.Aptos.ModuleName == "" {
			errs = append(errs, "chain.aptos: module_name must not be empty")
		}
		if c.Chain.Aptos.PrivateKey == "" && c.Chain.KeyFile == "" {
			errs = append(errs, "chain.aptos: private_key must be set (HASHPREDICT_CHAIN_APTOS_PRIVATE_KEY) or chain.key_file configured")
		}
	case "evm":
		if c.Chain.EVM.RPCURL == "" {
			errs = append(errs, "chain.evm: rpc_url must not be empty")
		}
		if c.Chain.EVM.ContractAddress == "" {
			errs = append(errs, "chain.evm: contract_address must not be empty")
		}
		if c.Chain.EVM.PrivateKey == "" && c.Chain.KeyFile == "" {
			errs = append(errs, "chain.evm: private_key must be set (HASHPREDICT_CHAIN_EVM_PRIVATE_KEY) or chain.key_file configured")
		}
		if c.Chain.EVM.ChainID <= 0 {
			errs = append(errs, "chain.evm: chain_id must be positive")
		}
	}

	// AI: every mode that exposes or runs the judge needs both providers.
	// Judging aborts without retrieved context, so the search key is not
	// optional.
	if c.Mode == "serve" || c.Mode == "resolve" || c.Mode == "full" {
		if c.AI.OpenAI.ApiKey == "" {
			errs = append(errs, "ai.openai: api_key is required for mode "+c.Mode)
		}
		if c.AI.Perplexity.ApiKey == "" {
			errs = append(errs, "ai.perplexity: api_key is required for mode "+c.Mode)
		}
	}
	if c.AI.OpenAI.Endpoint == "" {
		errs = append(errs, "ai.openai: endpoint must not be empty")
	}
	if c.AI.OpenAI.Model == "" {
		errs = append(errs, "ai.openai: model must not be empty")
	}
	if c.AI.Perplexity.Endpoint == "" {
		errs = append(errs, "ai.perplexity: endpoint must not be empty")
	}

	// Resolution
	if c.Resolution.PendingTTL.Duration <= 0 {
		errs = append(errs, "resolution: pending_ttl must be > 0")
	}
	if c.Resolution.MinConfidence < 0 || c.Resolution.MinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("resolution: min_confidence must be in [0,1], got %v", c.Resolution.MinConfidence))
	}

	// Claims
	if !validClaimStrategies[strings.ToLower(c.Claims.Strategy)] {
		errs = append(errs, fmt.Sprintf("claims: unknown strategy %q (valid: direct, approval)", c.Claims.Strategy))
	}

	// Poller
	if c.Poller.Enabled && c.Poller.Interval.Duration < time.Second {
		errs = append(errs, "poller: interval must be >= 1s when enabled")
	}

	// Rewards
	if c.Rewards.DailyClaimWindow.Duration <= 0 {
		errs = append(errs, "rewards: daily_claim_window must be > 0")
	}

	// Supabase
	if strings.TrimSpace(c.Supabase.DSN) == "" {
		if c.Supabase.Host == "" {
			errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
		}
		if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
			errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
		}
		if c.Supabase.Database == "" {
			errs = append(errs, "supabase: database must not be empty")
		}
	}
	if c.Supabase.PoolMaxConns < 1 {
		errs = append(errs, "supabase: pool_max_conns must be >= 1")
	}
	if c.Supabase.PoolMinConns < 0 {
		errs = append(errs, "supabase: pool_min_conns must be >= 0")
	}
	if c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
		errs = append(errs, "supabase: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3: only required when transcripts are being archived.
	if c.Resolution.ArchiveTranscripts {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when resolution.archive_transcripts is on")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when resolution.archive_transcripts is on")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
