package models

import (
	"time"

	"github.com/kaikhaya123/RES-sub000/storage"
)

type LeaderboardEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Campus       string `json:"campus,omitempty"`
	Status       string `json:"status"`
	Votes        int64  `json:"votes"`
	Rank         int    `json:"rank"`
	PreviousRank int    `json:"previousRank"`
	Trend        string `json:"trend"`
}

type LeaderboardResponse struct {
	Contestants []LeaderboardEntry `json:"contestants"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int   `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
	Version    int64 `json:"version"`
}

type FullLeaderboardResponse struct {
	Contestants []LeaderboardEntry `json:"contestants"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Pagination  PaginationMeta     `json:"pagination"`
}

func TransformRankEntries(entries []storage.RankEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, LeaderboardEntry{
			ID:           e.ContestantID,
			Name:         e.Name,
			Campus:       e.Campus,
			Status:       string(e.Status),
			Votes:        e.Votes,
			Rank:         e.Rank,
			PreviousRank: e.PreviousRank,
			Trend:        string(e.Trend),
		})
	}
	return out
}
