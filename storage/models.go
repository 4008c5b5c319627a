package storage

import "time"

type ContestantStatus string

const (
	ContestantActive   ContestantStatus = "active"
	ContestantEvicted  ContestantStatus = "evicted"
	ContestantFinalist ContestantStatus = "finalist"
)

type Voter struct {
	ID             string    `dynamodbav:"PK" json:"id"`
	VerifiedAt     time.Time `dynamodbav:"VerifiedAt" json:"verifiedAt"`
	DailyAllowance int       `dynamodbav:"DailyAllowance" json:"dailyAllowance"`
	Province       string    `dynamodbav:"Province" json:"province,omitempty"`
	Institution    string    `dynamodbav:"Institution" json:"institution,omitempty"`
	Active         bool      `dynamodbav:"Active" json:"active"`
}

type Contestant struct {
	ID           string           `dynamodbav:"PK" json:"id"`
	Name         string           `dynamodbav:"Name" json:"name"`
	Campus       string           `dynamodbav:"Campus" json:"campus"`
	Status       ContestantStatus `dynamodbav:"Status" json:"status"`
	RegisteredAt time.Time        `dynamodbav:"RegisteredAt" json:"registeredAt"`
}

// QuotaRecord tracks one voter's consumption for one UTC day.
// Used + Remaining always equals the voter's daily allowance.
type QuotaRecord struct {
	VoterID   string `dynamodbav:"PK" json:"voterId"`
	DateUTC   string `dynamodbav:"SK" json:"dateUtc"` // YYYY-MM-DD
	Used      int    `dynamodbav:"Used" json:"used"`
	Remaining int    `dynamodbav:"Remaining" json:"remaining"`
}

type VoteEventKind string

const (
	EventVote     VoteEventKind = "vote"
	EventReversal VoteEventKind = "reversal"
)

// VoteEvent is an append-only ledger entry. DedupKey is the write-once
// primary key (voter#contestant#nonce); Seq gives the total order.
type VoteEvent struct {
	DedupKey     string        `dynamodbav:"PK" json:"-"`
	ID           string        `dynamodbav:"ID" json:"id"`
	Seq          int64         `dynamodbav:"Seq" json:"seq"`
	VoterID      string        `dynamodbav:"VoterID" json:"voterId"`
	ContestantID string        `dynamodbav:"ContestantID" json:"contestantId"`
	ClientNonce  string        `dynamodbav:"ClientNonce" json:"clientNonce"`
	Kind         VoteEventKind `dynamodbav:"Kind" json:"kind"`
	Accepted     bool          `dynamodbav:"Accepted" json:"accepted"`
	Timestamp    time.Time     `dynamodbav:"Timestamp" json:"timestamp"`
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

type RankEntry struct {
	ContestantID string           `dynamodbav:"ContestantID" json:"contestantId"`
	Name         string           `dynamodbav:"Name" json:"name"`
	Campus       string           `dynamodbav:"Campus" json:"campus"`
	Status       ContestantStatus `dynamodbav:"Status" json:"status"`
	Votes        int64            `dynamodbav:"Votes" json:"votes"`
	Rank         int              `dynamodbav:"Rank" json:"rank"`
	PreviousRank int              `dynamodbav:"PreviousRank" json:"previousRank"`
	Trend        Trend            `dynamodbav:"Trend" json:"trend"`
}

// RankSnapshot is immutable once published; a new version supersedes it.
type RankSnapshot struct {
	Version     int64       `dynamodbav:"PK" json:"version"`
	GeneratedAt time.Time   `dynamodbav:"GeneratedAt" json:"generatedAt"`
	Entries     []RankEntry `dynamodbav:"Entries" json:"entries"`
}
