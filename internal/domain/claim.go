package domain

// ClaimState is the lifecycle of a pending claim under the request/approve
// strategy.
type ClaimState string

const (
	ClaimPending  ClaimState = "pending"
	ClaimApproved ClaimState = "approved"
	ClaimRejected ClaimState = "rejected"
)

// PendingClaim is an entry in a prediction's pending-claims queue awaiting
// admin approval. The freshly re-fetched on-chain list is authoritative;
// callers must never act on locally mutated copies.
type PendingClaim struct {
	User   string     `json:"user"`
	Amount uint64     `json:"amount"`
	Shares uint64     `json:"shares"`
	State  ClaimState `json:"state"`
}
