package evm

import (
	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

// ABI tuple shapes returned by the contract's view functions. Field names
// match the ABI component names so the decoder can bind them.

type abiPrediction struct {
	Id             uint64
	Description    string
	StartTime      int64
	EndTime        int64
	State          uint8
	YesVotes       uint64
	NoVotes        uint64
	TotalVotes     uint64
	YesAmount      uint64
	NoAmount       uint64
	TotalAmount    uint64
	Result         uint8
	PredictionType uint8
	OptionsCount   uint8
	Tags           []string
}

func (p abiPrediction) toDomain() domain.Prediction {
	out := domain.Prediction{
		ID:             p.Id,
		Description:    p.Description,
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		YesVotes:       p.YesVotes,
		NoVotes:        p.NoVotes,
		TotalVotes:     p.TotalVotes,
		YesAmount:      p.YesAmount,
		NoAmount:       p.NoAmount,
		TotalAmount:    p.TotalAmount,
		Tags:           p.Tags,
		PredictionType: p.PredictionType,
		OptionsCount:   p.OptionsCount,
	}

	switch p.State {
	case 1:
		out.State = domain.StatePaused
	case 2:
		out.State = domain.StateResolved
	default:
		out.State = domain.StateActive
	}

	switch p.Result {
	case 1:
		out.Result = domain.ResultTrue
	case 2:
		out.Result = domain.ResultFalse
	default:
		out.Result = domain.ResultUndefined
	}

	return out
}

type abiUserPrediction struct {
	User          common.Address
	PredictionId  uint64
	Verdict       bool
	Amount        uint64
	Shares        uint64
	RewardClaimed bool
}

func (u abiUserPrediction) toDomain() domain.UserPrediction {
	return domain.UserPrediction{
		User:          u.User.Hex(),
		PredictionID:  u.PredictionId,
		Verdict:       u.Verdict,
		Amount:        u.Amount,
		Shares:        u.Shares,
		RewardClaimed: u.RewardClaimed,
	}
}

type abiPendingClaim struct {
	User   common.Address
	Amount uint64
	Shares uint64
	State  uint8
}

func (c abiPendingClaim) toDomain() domain.PendingClaim {
	out := domain.PendingClaim{
		User:   c.User.Hex(),
		Amount: c.Amount,
		Shares: c.Shares,
	}
	switch c.State {
	case 1:
		out.State = domain.ClaimApproved
	case 2:
		out.State = domain.ClaimRejected
	default:
		out.State = domain.ClaimPending
	}
	return out
}
