package notify

// Event classifies an operator notification. The notify.events config list
// selects which events reach the configured channels.
type Event string

const (
	EventResolutionProposed  Event = "resolution_proposed"
	EventResolutionSubmitted Event = "resolution_submitted"
	EventMarketCreated       Event = "market_created"
	EventMarketExpired       Event = "market_expired"
	EventClaimApproved       Event = "claim_approved"
	EventError               Event = "error"
)
