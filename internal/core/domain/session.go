package domain

// SessionState is a step of the recommendation flow.
type SessionState string

const (
	StateUnauthenticated   SessionState = "unauthenticated"
	StateAwaitingTimeRange SessionState = "awaiting_time_range"
	StateRankingInProgress SessionState = "ranking_in_progress"
	StateShowingResults    SessionState = "showing_results"
)

// AccessToken is the result of an OAuth code exchange.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
