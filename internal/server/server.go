package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/server/handler"
	"github.com/alanyoungcy/hashpredict/internal/server/middleware"
	"github.com/alanyoungcy/hashpredict/internal/server/ws"
)

// aiRateLimit caps requests per client IP on the AI-backed endpoints, which
// fan out to paid provider APIs.
const (
	aiRateLimit  = 10
	aiRateWindow = time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	AdminAPIKey string // if empty, the admin surface is open
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Predictions *handler.PredictionHandler
	Resolution  *handler.ResolutionHandler
	Generation  *handler.GenerationHandler
	Rewards     *handler.RewardsHandler
}

// Server is the headless HTTP + WebSocket glue layer between the frontend and
// the chain adapter.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// The admin surface (finalization, market management, claim approval) sits
// behind API-key auth; the read surface and user relays are open. The limiter
// may be nil, which disables rate limiting on the AI endpoints.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	admin := middleware.AdminKey(cfg.AdminAPIKey)
	aiGuard := func(h http.Handler) http.Handler { return h }
	if limiter != nil {
		aiGuard = middleware.RateLimit(limiter, aiRateLimit, aiRateWindow)
	}

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Prediction read surface.
	mux.HandleFunc("GET /api/predictions", handlers.Predictions.ListPredictions)
	mux.HandleFunc("GET /api/predictions/buckets", handlers.Predictions.ListBuckets)
	mux.HandleFunc("GET /api/predictions/{id}", handlers.Predictions.GetPrediction)
	mux.HandleFunc("GET /api/predictions/{id}/payout", handlers.Predictions.EstimatePayout)
	mux.HandleFunc("GET /api/predictions/{id}/positions/{user}", handlers.Predictions.GetPosition)
	mux.HandleFunc("GET /api/tags", handlers.Predictions.ListTags)
	mux.HandleFunc("GET /api/state", handlers.Predictions.GetMarketState)

	// User relays, signed by the server-held account.
	mux.HandleFunc("POST /api/predictions/{id}/predict", handlers.Predictions.Predict)
	mux.HandleFunc("GET /api/predictions/{id}/claims", handlers.Rewards.ListPendingClaims)
	mux.HandleFunc("POST /api/predictions/{id}/claims", handlers.Rewards.Claim)
	mux.HandleFunc("POST /claim-daily-reward", handlers.Rewards.ClaimDailyReward)
	mux.HandleFunc("POST /use-referral-code", handlers.Rewards.UseReferralCode)
	mux.HandleFunc("GET /get-referrals/{userAddress}", handlers.Rewards.GetReferrals)
	mux.HandleFunc("GET /get-daily-claim-info/{userAddress}", handlers.Rewards.GetDailyClaimInfo)

	// AI resolution flow (admin + rate limited).
	mux.Handle("POST /finalize-prediction/{id}",
		admin(aiGuard(http.HandlerFunc(handlers.Resolution.FinalizePrediction))))
	mux.Handle("POST /execute-finalization/{id}",
		admin(http.HandlerFunc(handlers.Resolution.ExecuteFinalization)))
	mux.Handle("GET /api/predictions/{id}/finalization",
		admin(http.HandlerFunc(handlers.Resolution.GetPendingFinalization)))
	mux.Handle("DELETE /api/predictions/{id}/finalization",
		admin(http.HandlerFunc(handlers.Resolution.DiscardFinalization)))
	mux.Handle("GET /api/predictions/{id}/verdicts",
		admin(http.HandlerFunc(handlers.Resolution.ListVerdicts)))

	// AI market generation (rate limited; generation itself creates nothing
	// on-chain).
	mux.Handle("POST /test/generate-predictions",
		aiGuard(http.HandlerFunc(handlers.Generation.GeneratePredictions)))
	mux.HandleFunc("GET /api/proposals", handlers.Generation.ListProposals)

	// Admin market management.
	mux.Handle("POST /api/admin/predictions",
		admin(http.HandlerFunc(handlers.Predictions.CreatePrediction)))
	mux.Handle("POST /api/admin/predictions/{id}/pause",
		admin(http.HandlerFunc(handlers.Predictions.PausePrediction)))
	mux.Handle("POST /api/admin/proposals/create",
		admin(http.HandlerFunc(handlers.Generation.CreateFromProposal)))
	mux.Handle("POST /api/admin/predictions/{id}/claims/prepare",
		admin(http.HandlerFunc(handlers.Rewards.PrepareClaims)))
	mux.Handle("POST /api/admin/predictions/{id}/claims/approve",
		admin(http.HandlerFunc(handlers.Rewards.ApproveClaim)))

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
