package domain

// PredictionState is the stored lifecycle state of a prediction account.
type PredictionState string

const (
	StateActive   PredictionState = "active"
	StatePaused   PredictionState = "paused"
	StateResolved PredictionState = "resolved"
)

// PredictionResult is the resolved outcome of a prediction. It stays
// Undefined until the admin submits resolve_prediction.
type PredictionResult string

const (
	ResultUndefined PredictionResult = "undefined"
	ResultTrue      PredictionResult = "true"
	ResultFalse     PredictionResult = "false"
)

// Prediction is a read-only snapshot of an on-chain prediction account. The
// client never mutates these fields; it reads snapshots and submits signed
// intents against the market program.
type Prediction struct {
	ID             uint64           `json:"id"`
	Description    string           `json:"description"`
	StartTime      int64            `json:"startTime"` // unix seconds
	EndTime        int64            `json:"endTime"`   // unix seconds, always > StartTime
	State          PredictionState  `json:"state"`
	YesVotes       uint64           `json:"yesVotes"`
	NoVotes        uint64           `json:"noVotes"`
	TotalVotes     uint64           `json:"totalVotes"` // == YesVotes + NoVotes
	YesAmount      uint64           `json:"yesAmount"`  // smallest-unit stake
	NoAmount       uint64           `json:"noAmount"`
	TotalAmount    uint64           `json:"totalAmount"` // == YesAmount + NoAmount
	Result         PredictionResult `json:"result"`
	Tags           []string         `json:"tags"`
	PredictionType uint8            `json:"predictionType"`
	OptionsCount   uint8            `json:"optionsCount"`
}

// UserPrediction is a per-user, per-market stake record owned by the market
// program. RewardClaimed is the program's idempotency flag; a second claim
// attempt against a claimed position must fail on-chain.
type UserPrediction struct {
	User          string `json:"user"`
	PredictionID  uint64 `json:"predictionId"`
	Verdict       bool   `json:"verdict"`
	Amount        uint64 `json:"amount"`
	Shares        uint64 `json:"shares"`
	RewardClaimed bool   `json:"rewardClaimed"`
}

// MarketStateInfo mirrors the singleton market-state account of a deployment.
type MarketStateInfo struct {
	Admin            string `json:"admin"`
	NextPredictionID uint64 `json:"nextPredictionId"`
}

// TxResult is returned by every chain write after the transaction has been
// confirmed by the node.
type TxResult struct {
	Hash string `json:"hash"`
}
