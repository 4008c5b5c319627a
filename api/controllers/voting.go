package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kaikhaya123/RES-sub000/api/models"
	"github.com/kaikhaya123/RES-sub000/engine"
	"github.com/kaikhaya123/RES-sub000/guard"
	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
)

const (
	appendAttempts       = 3
	appendInitialBackoff = 50 * time.Millisecond
)

type VotingController struct {
	voters         storage.VoterStorage
	contestants    storage.ContestantStorage
	quota          storage.QuotaStorage
	ledger         storage.LedgerStorage
	fraudGuard     *guard.Guard
	tallies        *engine.TallyAggregator
	sequence       *snowflake.Node
	dailyAllowance int
}

func NewVotingController(
	voters storage.VoterStorage,
	contestants storage.ContestantStorage,
	quota storage.QuotaStorage,
	ledger storage.LedgerStorage,
	fraudGuard *guard.Guard,
	tallies *engine.TallyAggregator,
	sequence *snowflake.Node,
	dailyAllowance int,
) *VotingController {
	return &VotingController{
		voters:         voters,
		contestants:    contestants,
		quota:          quota,
		ledger:         ledger,
		fraudGuard:     fraudGuard,
		tallies:        tallies,
		sequence:       sequence,
		dailyAllowance: dailyAllowance,
	}
}

func (c *VotingController) RegisterRoutes(e *gin.Engine) {
	group := e.Group("/api")

	group.POST("/vote", c.registerVote)
}

// registerVote godoc
// @Summary Cast a vote for a contestant
// @Description Screens, consumes daily quota, appends to the vote ledger. Retries with the same clientNonce are safe and never double-count.
// @Tags voting
// @Accept json
// @Produce json
// @Param vote body models.RegisterVoteRequest true "Vote submission"
// @Success 200 {object} models.RegisterVoteResponse
// @Failure 400 {object} models.ErrorResponse "Malformed request"
// @Failure 403 {object} models.ErrorResponse "AbuseSuspected or VoterInactive"
// @Failure 404 {object} models.ErrorResponse "Unknown voter or contestant"
// @Failure 409 {object} models.ErrorResponse "Contestant no longer accepts votes"
// @Failure 429 {object} models.ErrorResponse "QuotaExceeded"
// @Failure 500 {object} models.ErrorResponse "Transient failure, safe to retry"
// @Router /api/vote [post]
func (c *VotingController) registerVote(g *gin.Context) {
	var req models.RegisterVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}
	ctx := g.Request.Context()

	voter, err := c.voters.Get(ctx, req.VoterID)
	if err != nil {
		if errors.Is(err, storage.ErrVoterNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: models.ErrCodeVoterNotFound})
			return
		}
		logging.Log.Errorf("VOTE: voter lookup failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote, try again"})
		return
	}
	if !voter.Active {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: models.ErrCodeVoterInactive})
		return
	}

	contestant, err := c.contestants.Get(ctx, req.ContestantID)
	if err != nil {
		if errors.Is(err, storage.ErrContestantNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: models.ErrCodeContestantNotFound})
			return
		}
		logging.Log.Errorf("VOTE: contestant lookup failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote, try again"})
		return
	}
	if contestant.Status == storage.ContestantEvicted {
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: models.ErrCodeContestantEvicted})
		return
	}

	meta := guard.RequestMeta{ClientIP: g.ClientIP(), UserAgent: g.Request.UserAgent()}
	if err := c.fraudGuard.Screen(req.VoterID, req.ContestantID, meta); err != nil {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: models.ErrCodeAbuseSuspected})
		return
	}

	allowance := voter.DailyAllowance
	if allowance <= 0 {
		allowance = c.dailyAllowance
	}
	today := time.Now().UTC().Format("2006-01-02")

	remaining, err := c.quota.TryConsume(ctx, req.VoterID, today, 1, allowance)
	if err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			g.JSON(http.StatusTooManyRequests, &models.ErrorResponse{Error: models.ErrCodeQuotaExceeded})
			return
		}
		logging.Log.Errorf("VOTE: quota consume failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote, try again"})
		return
	}

	event := &storage.VoteEvent{
		DedupKey:     storage.DedupKey(req.VoterID, req.ContestantID, req.ClientNonce),
		ID:           uuid.NewString(),
		Seq:          c.sequence.Generate().Int64(),
		VoterID:      req.VoterID,
		ContestantID: req.ContestantID,
		ClientNonce:  req.ClientNonce,
		Kind:         storage.EventVote,
		Accepted:     true,
		Timestamp:    time.Now().UTC(),
	}

	err = c.appendWithRetry(ctx, event)
	if errors.Is(err, storage.ErrDuplicateEvent) {
		// The vote was already ledgered by an earlier attempt with this
		// nonce. Hand the quota unit back and report current state.
		if rerr := c.quota.Refund(ctx, req.VoterID, today, 1); rerr == nil {
			remaining++
		}
		logging.Log.Infof("VOTE: duplicate nonce for voter %s, contestant %s", req.VoterID, req.ContestantID)
		g.JSON(http.StatusOK, &models.RegisterVoteResponse{
			RemainingToday: remaining,
			AcceptedVotes:  allowance - remaining,
		})
		return
	}
	if err != nil {
		// Quota was consumed but the vote never became durable; refund so
		// used+remaining stays truthful and the client can retry.
		if rerr := c.quota.Refund(ctx, req.VoterID, today, 1); rerr != nil {
			logging.Log.Errorf("VOTE: refund after append failure also failed: %v", rerr)
		}
		logging.Log.Errorf("VOTE: ledger append exhausted retries: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote, try again"})
		return
	}

	c.tallies.ApplyEvent(event)

	g.JSON(http.StatusOK, &models.RegisterVoteResponse{
		RemainingToday: remaining,
		AcceptedVotes:  allowance - remaining,
	})
}

// appendWithRetry retries transient ledger failures with doubling backoff.
// Duplicate events are final, not transient, and return immediately.
func (c *VotingController) appendWithRetry(ctx context.Context, event *storage.VoteEvent) error {
	backoff := appendInitialBackoff
	var err error
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		err = c.ledger.Append(ctx, event)
		if err == nil || errors.Is(err, storage.ErrDuplicateEvent) {
			return err
		}
		logging.Log.Warnf("VOTE: ledger append attempt %d failed: %v", attempt, err)

		if attempt == appendAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}
