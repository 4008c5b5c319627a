package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kaikhaya123/RES-sub000/api/models"
	"github.com/kaikhaya123/RES-sub000/api/transport"
	"github.com/kaikhaya123/RES-sub000/engine"
	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/kaikhaya123/RES-sub000/storage"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type AdminController struct {
	voters      storage.VoterStorage
	contestants storage.ContestantStorage
	snapshots   storage.SnapshotStorage
	tallies     *engine.TallyAggregator

	defaultAllowance int
}

func NewAdminController(voters storage.VoterStorage, contestants storage.ContestantStorage, snapshots storage.SnapshotStorage, tallies *engine.TallyAggregator, defaultAllowance int) *AdminController {
	return &AdminController{
		voters:           voters,
		contestants:      contestants,
		snapshots:        snapshots,
		tallies:          tallies,
		defaultAllowance: defaultAllowance,
	}
}

func (c *AdminController) RegisterRoutes(e *gin.Engine) {
	group := e.Group("/api/admin", transport.AdminAuthMiddleware())

	group.GET("/contestants", c.listContestants)
	group.POST("/contestants", c.createContestant)
	group.PUT("/contestants/:id/status", c.updateContestantStatus)
	group.GET("/voters", c.listVoters)
	group.POST("/voters", c.createVoter)
	group.PUT("/voters/:id/deactivate", c.deactivateVoter)
	group.POST("/recompute/:id", c.recomputeTally)
	group.GET("/snapshots", c.listSnapshots)
}

// @Security AdminToken
// createContestant godoc
// @Summary Onboard a contestant
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.ContestantCreateRequest true "Contestant"
// @Success 200 {object} models.ContestantResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "ID already in use"
// @Router /api/admin/contestants [post]
func (c *AdminController) createContestant(g *gin.Context) {
	var req models.ContestantCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Name == "" {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, missing name"})
		return
	}

	id := req.ID
	if id == "" {
		id = c.generateShortID()
	}

	contestant := &storage.Contestant{
		ID:           id,
		Name:         req.Name,
		Campus:       req.Campus,
		Status:       storage.ContestantActive,
		RegisteredAt: time.Now().UTC(),
	}
	if err := c.contestants.Put(g.Request.Context(), contestant); err != nil {
		if errors.Is(err, storage.ErrItemAlreadyExists) {
			g.JSON(http.StatusConflict, gin.H{"error": "contestant id already exists"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to store contestant: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: onboarded contestant %s (%s)", contestant.ID, contestant.Name)
	g.JSON(http.StatusOK, models.TransformContestantFromStorage(contestant))
}

// @Security AdminToken
// listContestants godoc
// @Summary List all contestants
// @Tags admin
// @Produce json
// @Success 200 {array} models.ContestantResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/contestants [get]
func (c *AdminController) listContestants(g *gin.Context) {
	contestants, err := c.contestants.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list contestants: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]models.ContestantResponse, 0, len(contestants))
	for _, contestant := range contestants {
		out = append(out, models.TransformContestantFromStorage(contestant))
	}
	logging.Log.Infof("ADMIN: listed %d contestants", len(out))
	g.JSON(http.StatusOK, out)
}

// @Security AdminToken
// updateContestantStatus godoc
// @Summary Transition a contestant's status
// @Description Transitions are one-directional: active -> evicted or active -> finalist. Past votes are never invalidated.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Contestant ID"
// @Param request body models.ContestantStatusUpdateRequest true "New status"
// @Success 200 {object} models.ContestantResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Illegal transition"
// @Router /api/admin/contestants/{id}/status [put]
func (c *AdminController) updateContestantStatus(g *gin.Context) {
	id := g.Param("id")
	var req models.ContestantStatusUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, missing status"})
		return
	}

	contestant, err := c.contestants.Get(g.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrContestantNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "contestant not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to load contestant %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !legalTransition(string(contestant.Status), req.Status) {
		logging.Log.Warnf("ADMIN: illegal status transition %s -> %s for %s", contestant.Status, req.Status, id)
		g.JSON(http.StatusConflict, gin.H{"error": "illegal status transition"})
		return
	}

	if err := c.contestants.UpdateStatus(g.Request.Context(), id, storage.ContestantStatus(req.Status)); err != nil {
		logging.Log.Errorf("ADMIN: failed to update status for %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contestant.Status = storage.ContestantStatus(req.Status)
	logging.Log.Infof("ADMIN: contestant %s is now %s", id, req.Status)
	g.JSON(http.StatusOK, models.TransformContestantFromStorage(contestant))
}

func legalTransition(from, to string) bool {
	for _, allowed := range models.ValidStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// @Security AdminToken
// createVoter godoc
// @Summary Register a verified voter
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.VoterCreateRequest true "Voter"
// @Success 200 {object} models.VoterResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/admin/voters [post]
func (c *AdminController) createVoter(g *gin.Context) {
	var req models.VoterCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.ID == "" {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, missing voter id"})
		return
	}

	allowance := req.DailyAllowance
	if allowance <= 0 {
		allowance = c.defaultAllowance
	}

	voter := &storage.Voter{
		ID:             req.ID,
		VerifiedAt:     time.Now().UTC(),
		DailyAllowance: allowance,
		Province:       req.Province,
		Institution:    req.Institution,
		Active:         true,
	}
	if err := c.voters.Put(g.Request.Context(), voter); err != nil {
		if errors.Is(err, storage.ErrItemAlreadyExists) {
			g.JSON(http.StatusConflict, gin.H{"error": "voter already registered"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to store voter: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: registered voter %s with allowance %d", voter.ID, voter.DailyAllowance)
	g.JSON(http.StatusOK, models.TransformVoterFromStorage(voter))
}

// @Security AdminToken
// listVoters godoc
// @Summary List all registered voters
// @Tags admin
// @Produce json
// @Success 200 {array} models.VoterResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/voters [get]
func (c *AdminController) listVoters(g *gin.Context) {
	voters, err := c.voters.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list voters: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]models.VoterResponse, 0, len(voters))
	for _, voter := range voters {
		out = append(out, models.TransformVoterFromStorage(voter))
	}
	g.JSON(http.StatusOK, out)
}

// @Security AdminToken
// deactivateVoter godoc
// @Summary Deactivate a voter
// @Description Voters are never deleted; deactivation stops new votes without touching history.
// @Tags admin
// @Produce json
// @Param id path string true "Voter ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/voters/{id}/deactivate [put]
func (c *AdminController) deactivateVoter(g *gin.Context) {
	id := g.Param("id")
	if err := c.voters.Deactivate(g.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrVoterNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "voter not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to deactivate voter %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: deactivated voter %s", id)
	g.JSON(http.StatusOK, gin.H{"deactivated": id})
}

// @Security AdminToken
// recomputeTally godoc
// @Summary Recompute one contestant's tally from the ledger
// @Description Full replay repair; the ledger is the source of truth. Logged as a repair event.
// @Tags admin
// @Produce json
// @Param id path string true "Contestant ID"
// @Success 200 {object} models.RecomputeResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/recompute/{id} [post]
func (c *AdminController) recomputeTally(g *gin.Context) {
	id := g.Param("id")
	if _, err := c.contestants.Get(g.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrContestantNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "contestant not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to load contestant %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tally, err := c.tallies.Recompute(g.Request.Context(), id)
	if err != nil {
		logging.Log.Errorf("ADMIN: recompute failed for %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": "recompute failed"})
		return
	}

	logging.Log.Infof("ADMIN: recomputed tally for %s: %d votes", id, tally.Votes)
	g.JSON(http.StatusOK, models.RecomputeResponse{
		ContestantID: tally.ContestantID,
		Votes:        tally.Votes,
		AsOf:         tally.AsOf,
	})
}

// @Security AdminToken
// listSnapshots godoc
// @Summary List retained rank snapshots
// @Tags admin
// @Produce json
// @Success 200 {array} storage.RankSnapshot
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/snapshots [get]
func (c *AdminController) listSnapshots(g *gin.Context) {
	snapshots, err := c.snapshots.List(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list snapshots: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("ADMIN: listed %d snapshots", len(snapshots))
	g.JSON(http.StatusOK, snapshots)
}

func (c *AdminController) generateShortID() string {
	id, err := gonanoid.Generate(models.Alphabet, 8)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to generate contestant id: %v", err)
		return "ERROR"
	}
	return id
}
