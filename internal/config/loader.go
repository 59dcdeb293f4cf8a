package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies HASHPREDICT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known HASHPREDICT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.Backend, "HASHPREDICT_CHAIN_BACKEND")
	setStr(&cfg.Chain.Aptos.NodeURL, "HASHPREDICT_CHAIN_APTOS_NODE_URL")
	setStr(&cfg.Chain.Aptos.ModuleAddress, "HASHPREDICT_CHAIN_APTOS_MODULE_ADDRESS")
	setStr(&cfg.Chain.Aptos.ModuleName, "HASHPREDICT_CHAIN_APTOS_MODULE_NAME")
	setStr(&cfg.Chain.Aptos.RewardModule, "HASHPREDICT_CHAIN_APTOS_REWARD_MODULE")
	setStr(&cfg.Chain.Aptos.PrivateKey, "HASHPREDICT_CHAIN_APTOS_PRIVATE_KEY")
	setStr(&cfg.Chain.Aptos.PrivateKey, "PRIVATE_KEY") // compatibility alias
	setStr(&cfg.Chain.EVM.RPCURL, "HASHPREDICT_CHAIN_EVM_RPC_URL")
	setStr(&cfg.Chain.EVM.ContractAddress, "HASHPREDICT_CHAIN_EVM_CONTRACT_ADDRESS")
	setStr(&cfg.Chain.EVM.PrivateKey, "HASHPREDICT_CHAIN_EVM_PRIVATE_KEY")
	setInt64(&cfg.Chain.EVM.ChainID, "HASHPREDICT_CHAIN_EVM_CHAIN_ID")

	setStr(&cfg.Chain.KeyFile, "HASHPREDICT_CHAIN_KEY_FILE")
	setStr(&cfg.Chain.KeyPassword, "HASHPREDICT_CHAIN_KEY_PASSWORD")

	// ── AI ──
	setStr(&cfg.AI.OpenAI.Endpoint, "HASHPREDICT_AI_OPENAI_ENDPOINT")
	setStr(&cfg.AI.OpenAI.ApiKey, "HASHPREDICT_AI_OPENAI_API_KEY")
	setStr(&cfg.AI.OpenAI.ApiKey, "OPENAI_API_KEY") // compatibility alias
	setStr(&cfg.AI.OpenAI.Model, "HASHPREDICT_AI_OPENAI_MODEL")
	setStr(&cfg.AI.Perplexity.Endpoint, "HASHPREDICT_AI_PERPLEXITY_ENDPOINT")
	setStr(&cfg.AI.Perplexity.ApiKey, "HASHPREDICT_AI_PERPLEXITY_API_KEY")
	setStr(&cfg.AI.Perplexity.ApiKey, "PERPLEXITY_API_KEY") // compatibility alias
	setStr(&cfg.AI.Perplexity.Model, "HASHPREDICT_AI_PERPLEXITY_MODEL")

	// ── Supabase ──
	setStr(&cfg.Supabase.DSN, "HASHPREDICT_SUPABASE_DSN")
	setStr(&cfg.Supabase.DSN, "HASHPREDICT_SUPABASE_URL") // compatibility alias
	setStr(&cfg.Supabase.Host, "HASHPREDICT_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "HASHPREDICT_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "HASHPREDICT_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "HASHPREDICT_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "HASHPREDICT_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "HASHPREDICT_SUPABASE_SSLMODE")
	setInt(&cfg.Supabase.PoolMaxConns, "HASHPREDICT_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "HASHPREDICT_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "HASHPREDICT_SUPABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "HASHPREDICT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "HASHPREDICT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "HASHPREDICT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "HASHPREDICT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "HASHPREDICT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "HASHPREDICT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "HASHPREDICT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "HASHPREDICT_S3_REGION")
	setStr(&cfg.S3.Bucket, "HASHPREDICT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "HASHPREDICT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "HASHPREDICT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "HASHPREDICT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "HASHPREDICT_S3_FORCE_PATH_STYLE")

	// ── Resolution ──
	setBool(&cfg.Resolution.AutoSubmit, "HASHPREDICT_RESOLUTION_AUTO_SUBMIT")
	setDuration(&cfg.Resolution.PendingTTL, "HASHPREDICT_RESOLUTION_PENDING_TTL")
	setBool(&cfg.Resolution.ArchiveTranscripts, "HASHPREDICT_RESOLUTION_ARCHIVE_TRANSCRIPTS")
	setFloat64(&cfg.Resolution.MinConfidence, "HASHPREDICT_RESOLUTION_MIN_CONFIDENCE")

	// ── Claims ──
	setStr(&cfg.Claims.Strategy, "HASHPREDICT_CLAIMS_STRATEGY")

	// ── Poller ──
	setBool(&cfg.Poller.Enabled, "HASHPREDICT_POLLER_ENABLED")
	setDuration(&cfg.Poller.Interval, "HASHPREDICT_POLLER_INTERVAL")

	// ── Rewards ──
	setDuration(&cfg.Rewards.DailyClaimWindow, "HASHPREDICT_REWARDS_DAILY_CLAIM_WINDOW")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "HASHPREDICT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "HASHPREDICT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "HASHPREDICT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.AdminApiKey, "HASHPREDICT_SERVER_ADMIN_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "HASHPREDICT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HASHPREDICT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "HASHPREDICT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "HASHPREDICT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "HASHPREDICT_MODE")
	setStr(&cfg.LogLevel, "HASHPREDICT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
