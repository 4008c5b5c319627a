package models

import (
	"time"

	"github.com/kaikhaya123/RES-sub000/storage"
)

type ContestantCreateRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name" binding:"required"`
	Campus string `json:"campus"`
}

type ContestantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Campus       string    `json:"campus"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type ContestantStatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

type VoterCreateRequest struct {
	ID             string `json:"id" binding:"required"`
	DailyAllowance int    `json:"dailyAllowance"`
	Province       string `json:"province"`
	Institution    string `json:"institution"`
}

type VoterResponse struct {
	ID             string    `json:"id"`
	VerifiedAt     time.Time `json:"verifiedAt"`
	DailyAllowance int       `json:"dailyAllowance"`
	Province       string    `json:"province,omitempty"`
	Institution    string    `json:"institution,omitempty"`
	Active         bool      `json:"active"`
}

type RecomputeResponse struct {
	ContestantID string    `json:"contestantId"`
	Votes        int64     `json:"votes"`
	AsOf         time.Time `json:"asOf"`
}

func TransformContestantFromStorage(c *storage.Contestant) ContestantResponse {
	return ContestantResponse{
		ID:           c.ID,
		Name:         c.Name,
		Campus:       c.Campus,
		Status:       string(c.Status),
		RegisteredAt: c.RegisteredAt,
	}
}

func TransformVoterFromStorage(v *storage.Voter) VoterResponse {
	return VoterResponse{
		ID:             v.ID,
		VerifiedAt:     v.VerifiedAt,
		DailyAllowance: v.DailyAllowance,
		Province:       v.Province,
		Institution:    v.Institution,
		Active:         v.Active,
	}
}
