package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kaikhaya123/RES-sub000/api/models"
	"github.com/kaikhaya123/RES-sub000/engine"
)

type LeaderboardController struct {
	leaderboard *engine.Leaderboard
}

func NewLeaderboardController(leaderboard *engine.Leaderboard) *LeaderboardController {
	return &LeaderboardController{leaderboard: leaderboard}
}

func (c *LeaderboardController) RegisterRoutes(e *gin.Engine) {
	group := e.Group("/api")

	group.GET("/leaderboard", c.getLeaderboard)
	group.GET("/leaderboard/full", c.getFullLeaderboard)
}

// getLeaderboard godoc
// @Summary Get the current leaderboard
// @Description Serves the latest published rank snapshot. filter=rising returns only contestants whose rank improved since the previous snapshot.
// @Tags leaderboard
// @Produce json
// @Param filter query string false "all | top30 | rising" default(all)
// @Success 200 {object} models.LeaderboardResponse
// @Failure 400 {object} models.ErrorResponse "Unknown filter"
// @Router /api/leaderboard [get]
func (c *LeaderboardController) getLeaderboard(g *gin.Context) {
	filter := engine.Filter(g.DefaultQuery("filter", string(engine.FilterAll)))

	entries, snap, err := c.leaderboard.Filtered(filter)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownFilter) {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "unknown filter, expected all, top30 or rising"})
			return
		}
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load leaderboard"})
		return
	}

	g.JSON(http.StatusOK, &models.LeaderboardResponse{
		Contestants: models.TransformRankEntries(entries),
		GeneratedAt: snap.GeneratedAt,
	})
}

// getFullLeaderboard godoc
// @Summary Get the paginated full ranking
// @Description Pages are stable within one snapshot version and capped to protect rendering. Positions may shift between snapshots.
// @Tags leaderboard
// @Produce json
// @Param page query int false "1-based page number" default(1)
// @Param pageSize query int false "entries per page, capped" default(50)
// @Success 200 {object} models.FullLeaderboardResponse
// @Router /api/leaderboard/full [get]
func (c *LeaderboardController) getFullLeaderboard(g *gin.Context) {
	page, _ := strconv.Atoi(g.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(g.DefaultQuery("pageSize", "50"))

	entries, snap, pagination := c.leaderboard.Full(page, pageSize)

	g.JSON(http.StatusOK, &models.FullLeaderboardResponse{
		Contestants: models.TransformRankEntries(entries),
		GeneratedAt: snap.GeneratedAt,
		Pagination: models.PaginationMeta{
			Page:       pagination.Page,
			PageSize:   pagination.PageSize,
			TotalItems: pagination.TotalItems,
			TotalPages: pagination.TotalPages,
			Version:    pagination.Version,
		},
	})
}
