package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrPredictionNotActive = errors.New("prediction is not active")
	ErrPredictionEnded     = errors.New("prediction has ended")
	ErrPredictionNotEnded  = errors.New("prediction has not ended yet")
	ErrAlreadyResolved     = errors.New("prediction already resolved")
	ErrNotResolved         = errors.New("prediction not resolved")
	ErrAlreadyClaimed      = errors.New("reward already claimed")
	ErrClaimNotPending     = errors.New("claim is not pending")
	ErrNotWinner           = errors.New("user is not a winner")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAIResponse   = errors.New("invalid AI response format")
	ErrRateLimited         = errors.New("rate limited")
	ErrLockHeld            = errors.New("lock already held")
	ErrInvalidSnapshot     = errors.New("inconsistent prediction snapshot")
)
