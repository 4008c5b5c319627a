package models

type RegisterVoteRequest struct {
	VoterID      string `json:"voterId" binding:"required"`
	ContestantID string `json:"contestantId" binding:"required"`
	ClientNonce  string `json:"clientNonce" binding:"required"`
}

type RegisterVoteResponse struct {
	RemainingToday int `json:"remainingToday"`
	AcceptedVotes  int `json:"acceptedVotes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Structured policy/client error codes the UI keys its messaging on.
const (
	ErrCodeQuotaExceeded      = "QuotaExceeded"
	ErrCodeAbuseSuspected     = "AbuseSuspected"
	ErrCodeContestantNotFound = "ContestantNotFound"
	ErrCodeVoterNotFound      = "VoterNotFound"
	ErrCodeVoterInactive      = "VoterInactive"
	ErrCodeContestantEvicted  = "ContestantEvicted"
)
