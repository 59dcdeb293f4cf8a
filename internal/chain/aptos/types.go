package aptos

import (
	"fmt"
	"strconv"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// Move view functions return u64 values as decimal strings and enums as
// {"value": n} wrappers. These types mirror that wire shape.

type moveState struct {
	Value uint8 `json:"value"`
}

// state.value encoding used by the market module.
const (
	stateActive   = 0
	statePaused   = 1
	stateResolved = 2
)

// result encoding: Undefined until resolution.
const (
	resultUndefined = 0
	resultTrue      = 1
	resultFalse     = 2
)

// apiPrediction is the JSON shape of a prediction account as returned by the
// module's view functions.
type apiPrediction struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	State          moveState `json:"state"`
	YesVotes       string    `json:"yes_votes"`
	NoVotes        string    `json:"no_votes"`
	TotalVotes     string    `json:"total_votes"`
	YesAmount      string    `json:"yes_amount"`
	NoAmount       string    `json:"no_amount"`
	TotalAmount    string    `json:"total_amount"`
	Result         uint8     `json:"result"`
	Tags           []string  `json:"tags"`
	PredictionType uint8     `json:"prediction_type"`
	OptionsCount   uint8     `json:"options_count"`
}

func (p apiPrediction) toDomain() (domain.Prediction, error) {
	out := domain.Prediction{
		Description:    p.Description,
		Tags:           p.Tags,
		PredictionType: p.PredictionType,
		OptionsCount:   p.OptionsCount,
	}

	var err error
	if out.ID, err = parseU64(p.ID, "id"); err != nil {
		return out, err
	}
	if out.StartTime, err = parseI64(p.StartTime, "start_time"); err != nil {
		return out, err
	}
	if out.EndTime, err = parseI64(p.EndTime, "end_time"); err != nil {
		return out, err
	}
	if out.YesVotes, err = parseU64(p.YesVotes, "yes_votes"); err != nil {
		return out, err
	}
	if out.NoVotes, err = parseU64(p.NoVotes, "no_votes"); err != nil {
		return out, err
	}
	if out.TotalVotes, err = parseU64(p.TotalVotes, "total_votes"); err != nil {
		return out, err
	}
	if out.YesAmount, err = parseU64(p.YesAmount, "yes_amount"); err != nil {
		return out, err
	}
	if out.NoAmount, err = parseU64(p.NoAmount, "no_amount"); err != nil {
		return out, err
	}
	if out.TotalAmount, err = parseU64(p.TotalAmount, "total_amount"); err != nil {
		return out, err
	}

	switch p.State.Value {
	case statePaused:
		out.State = domain.StatePaused
	case stateResolved:
		out.State = domain.StateResolved
	default:
		out.State = domain.StateActive
	}

	switch p.Result {
	case resultTrue:
		out.Result = domain.ResultTrue
	case resultFalse:
		out.Result = domain.ResultFalse
	default:
		out.Result = domain.ResultUndefined
	}

	return out, nil
}

// apiUserPrediction is the JSON shape of a user position.
type apiUserPrediction struct {
	User          string `json:"user"`
	PredictionID  string `json:"prediction_id"`
	Verdict       bool   `json:"verdict"`
	Amount        string `json:"amount"`
	Shares        string `json:"shares"`
	RewardClaimed bool   `json:"reward_claimed"`
}

func (u apiUserPrediction) toDomain() (domain.UserPrediction, error) {
	out := domain.UserPrediction{
		User:          u.User,
		Verdict:       u.Verdict,
		RewardClaimed: u.RewardClaimed,
	}
	var err error
	if out.PredictionID, err = parseU64(u.PredictionID, "prediction_id"); err != nil {
		return out, err
	}
	if out.Amount, err = parseU64(u.Amount, "amount"); err != nil {
		return out, err
	}
	if u.Shares != "" {
		if out.Shares, err = parseU64(u.Shares, "shares"); err != nil {
			return out, err
		}
	}
	return out, nil
}

// apiPendingClaim is the JSON shape of an entry in the pending-claims queue.
type apiPendingClaim struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
	Shares string `json:"shares"`
	State  uint8  `json:"state"`
}

func (c apiPendingClaim) toDomain() (domain.PendingClaim, error) {
	out := domain.PendingClaim{User: c.User}
	var err error
	if out.Amount, err = parseU64(c.Amount, "amount"); err != nil {
		return out, err
	}
	if c.Shares != "" {
		if out.Shares, err = parseU64(c.Shares, "shares"); err != nil {
			return out, err
		}
	}
	switch c.State {
	case 1:
		out.State = domain.ClaimApproved
	case 2:
		out.State = domain.ClaimRejected
	default:
		out.State = domain.ClaimPending
	}
	return out, nil
}

func parseU64(s, field string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("aptos: parse %s %q: %w", field, s, err)
	}
	return v, nil
}

func parseI64(s, field string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("aptos: parse %s %q: %w", field, s, err)
	}
	return v, nil
}
