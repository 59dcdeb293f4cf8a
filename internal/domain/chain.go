package domain

import "context"

// CreatePredictionParams are the arguments to the market program's
// create_prediction entry function.
type CreatePredictionParams struct {
	Description    string
	Duration       int64 // seconds from now until EndTime
	Tags           []string
	PredictionType uint8
	OptionsCount   uint8
}

// ChainClient is the one interface every higher layer depends on to talk to a
// market-program deployment. One concrete adapter exists per chain; the rest
// of the application is chain-agnostic.
//
// Reads return snapshots of program accounts. Writes build, sign with the
// server-held key, submit, and wait for confirmation, returning the
// transaction hash. Writes are single-attempt; the program's own guards are
// the authority on double submission.
type ChainClient interface {
	// Name identifies the backing chain, e.g. "aptos" or "evm".
	Name() string

	// Reads.
	FetchPredictions(ctx context.Context) ([]Prediction, error)
	FetchPrediction(ctx context.Context, id uint64) (Prediction, error)
	FetchUserPrediction(ctx context.Context, id uint64, user string) (UserPrediction, error)
	FetchMarketState(ctx context.Context) (MarketStateInfo, error)
	FetchPendingClaims(ctx context.Context, id uint64) ([]PendingClaim, error)
	FetchDailyClaimInfo(ctx context.Context, user string) (DailyClaimInfo, error)
	FetchReferrals(ctx context.Context, user string) ([]string, error)

	// Admin writes.
	CreatePrediction(ctx context.Context, p CreatePredictionParams) (TxResult, error)
	ResolvePrediction(ctx context.Context, id uint64, result PredictionResult) (TxResult, error)
	PausePrediction(ctx context.Context, id uint64) (TxResult, error)
	InitializeClaims(ctx context.Context, id uint64) (TxResult, error)
	DistributeRewards(ctx context.Context, id uint64) (TxResult, error)
	ApproveClaim(ctx context.Context, id uint64, user string) (TxResult, error)

	// User writes relayed through the server-held account.
	Predict(ctx context.Context, id uint64, user string, verdict bool, amount uint64) (TxResult, error)
	SubmitClaim(ctx context.Context, id uint64, user string) (TxResult, error)
	ClaimReward(ctx context.Context, id uint64, user string) (TxResult, error)
	ClaimDailyReward(ctx context.Context, user string) (TxResult, error)
	UseReferralCode(ctx context.Context, user, code string) (TxResult, error)
}
