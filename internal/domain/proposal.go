package domain

// Fixed defaults applied to every generated market proposal before it is
// offered for creation.
const (
	ProposalMinVotes       = 1
	ProposalMaxVotes       = 1000
	ProposalPredictionType = 0
	ProposalOptionsCount   = 2
)

// MarketProposal is one AI-generated market candidate. Description, Duration,
// and Tags come from the model; the remaining fields are the fixed defaults.
type MarketProposal struct {
	Description    string   `json:"description"`
	Duration       int64    `json:"duration"` // seconds until resolution
	Tags           []string `json:"tags"`
	MinVotes       int      `json:"minVotes"`
	MaxVotes       int      `json:"maxVotes"`
	PredictionType int      `json:"predictionType"`
	OptionsCount   int      `json:"optionsCount"`
}
