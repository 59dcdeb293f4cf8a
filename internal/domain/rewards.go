package domain

// DailyClaimInfo reports a user's daily-reward claim status as read from the
// reward module.
type DailyClaimInfo struct {
	LastClaimTime int64  `json:"lastClaimTime"` // unix seconds, 0 if never claimed
	CurrentStreak uint64 `json:"currentStreak"`
}
