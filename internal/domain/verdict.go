package domain

import "time"

// Verdict is the AI judge's recommendation for a prediction outcome. It is
// transient: generated per finalize request and discarded after the admin
// confirms or rejects it. A Verdict never carries signing authority on its
// own; moving chain state always requires an explicit confirmed transaction.
type Verdict struct {
	Outcome     int     `json:"outcome"`    // 0 or 1
	Confidence  float64 `json:"confidence"` // in [0, 1]
	Explanation string  `json:"explanation"`
}

// PendingFinalization is the server-side record of a proposed resolution
// awaiting admin confirmation.
type PendingFinalization struct {
	ID           string    `json:"id"` // uuid
	PredictionID uint64    `json:"prediction_id"`
	Description  string    `json:"description"`
	Context      string    `json:"context"` // retrieved factual context
	Verdict      Verdict   `json:"verdict"`
	CreatedAt    time.Time `json:"created_at"`
	// VerdictRecordID links back to the audit row so a confirmed execution
	// can be stamped with its transaction hash.
	VerdictRecordID int64 `json:"verdict_record_id"`
}
