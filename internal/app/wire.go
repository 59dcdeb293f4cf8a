package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/hashpredict/internal/ai"
	s3blob "github.com/alanyoungcy/hashpredict/internal/blob/s3"
	"github.com/alanyoungcy/hashpredict/internal/cache/redis"
	"github.com/alanyoungcy/hashpredict/internal/chain/aptos"
	"github.com/alanyoungcy/hashpredict/internal/chain/evm"
	"github.com/alanyoungcy/hashpredict/internal/config"
	"github.com/alanyoungcy/hashpredict/internal/crypto"
	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
	"github.com/alanyoungcy/hashpredict/internal/notify"
	"github.com/alanyoungcy/hashpredict/internal/service"
	"github.com/alanyoungcy/hashpredict/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Chain adapter, selected by chain.backend.
	Chain domain.ChainClient

	// Stores (nil in modes without persistence).
	VerdictStore  domain.VerdictStore
	ProposalStore domain.ProposalStore

	// Redis-backed state.
	Cache       domain.PredictionCache
	Pending     domain.FinalizationStore
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// Transcript archival (nil when archiving is off).
	Archiver service.TranscriptArchiver

	// AI clients (nil in modes without AI work).
	Judge     *ai.Judge
	Generator *ai.Generator
	Web       ai.ContextProvider

	// Claim flow selected by claims.strategy.
	ClaimStrategy market.ClaimStrategy

	// Notifications.
	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that persist verdict and proposal
// audit trails.
func needsPostgres(mode string) bool {
	switch mode {
	case "serve", "resolve", "full":
		return true
	default:
		return false
	}
}

// needsAI returns true for modes that call the LLM providers.
func needsAI(mode string) bool {
	switch mode {
	case "serve", "resolve", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	mode := strings.ToLower(cfg.Mode)

	// --- Chain adapter ---
	switch strings.ToLower(cfg.Chain.Backend) {
	case "aptos":
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Chain.Aptos.PrivateKey,
			EncryptedKeyPath: cfg.Chain.KeyFile,
			KeyPassword:      cfg.Chain.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signing key: %w", err)
		}
		chain, err := aptos.New(aptos.Config{
			NodeURL:       cfg.Chain.Aptos.NodeURL,
			ModuleAddress: cfg.Chain.Aptos.ModuleAddress,
			ModuleName:    cfg.Chain.Aptos.ModuleName,
			RewardModule:  cfg.Chain.Aptos.RewardModule,
			PrivateKey:    key,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: aptos adapter: %w", err)
		}
		deps.Chain = chain
	case "evm":
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Chain.EVM.PrivateKey,
			EncryptedKeyPath: cfg.Chain.KeyFile,
			KeyPassword:      cfg.Chain.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signing key: %w", err)
		}
		chain, err := evm.NewClient(evm.Config{
			RPCURL:          cfg.Chain.EVM.RPCURL,
			ContractAddress: cfg.Chain.EVM.ContractAddress,
			PrivateKey:      key,
			ChainID:         cfg.Chain.EVM.ChainID,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: evm adapter: %w", err)
		}
		closers = append(closers, chain.Close)
		deps.Chain = chain
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unknown chain backend %q", cfg.Chain.Backend)
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Cache = redis.NewPredictionCache(redisClient)
	deps.Pending = redis.NewFinalizationStore(redisClient, cfg.Resolution.PendingTTL.Duration)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- PostgreSQL (only for modes that keep audit trails) ---
	if needsPostgres(mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Supabase.DSN,
			Host:     cfg.Supabase.Host,
			Port:     cfg.Supabase.Port,
			Database: cfg.Supabase.Database,
			User:     cfg.Supabase.User,
			Password: cfg.Supabase.Password,
			SSLMode:  cfg.Supabase.SSLMode,
			MaxConns: cfg.Supabase.PoolMaxConns,
			MinConns: cfg.Supabase.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Supabase.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.VerdictStore = postgres.NewVerdictStore(pool)
		deps.ProposalStore = postgres.NewProposalStore(pool)
	}

	// --- S3 transcript archival ---
	if cfg.Resolution.ArchiveTranscripts && needsAI(mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewTranscriptArchiver(s3blob.NewWriter(s3Client))
	}

	// --- AI clients ---
	if needsAI(mode) {
		judge, err := ai.NewJudge(ai.OpenAIConfig{
			Endpoint: cfg.AI.OpenAI.Endpoint,
			APIKey:   cfg.AI.OpenAI.ApiKey,
			Model:    cfg.AI.OpenAI.Model,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: judge: %w", err)
		}
		deps.Judge = judge

		generator, err := ai.NewGenerator(ai.OpenAIConfig{
			Endpoint: cfg.AI.OpenAI.Endpoint,
			APIKey:   cfg.AI.OpenAI.ApiKey,
			Model:    cfg.AI.OpenAI.Model,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: generator: %w", err)
		}
		deps.Generator = generator

		// The judge refuses to run without retrieved context, so the
		// provider is mandatory in every mode that judges.
		web, err := ai.NewPerplexityClient(ai.PerplexityConfig{
			Endpoint: cfg.AI.Perplexity.Endpoint,
			APIKey:   cfg.AI.Perplexity.ApiKey,
			Model:    cfg.AI.Perplexity.Model,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: perplexity: %w", err)
		}
		deps.Web = web
	}

	// --- Claim strategy ---
	switch strings.ToLower(cfg.Claims.Strategy) {
	case "approval":
		deps.ClaimStrategy = market.NewApprovalClaim(deps.Chain)
	default:
		deps.ClaimStrategy = market.NewDirectClaim(deps.Chain)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
