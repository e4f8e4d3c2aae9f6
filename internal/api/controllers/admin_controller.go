package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tokenarena/internal/api/dto"
	"tokenarena/internal/coordinator"
	"tokenarena/internal/models"
	"tokenarena/internal/repositories"
	"tokenarena/internal/snapshot"
)

// AdminController serves the address-allowlisted admin surface: match
// lifecycle control and winner payout bookkeeping.
type AdminController struct {
	Manager         *coordinator.Manager
	MatchRepo       *repositories.MatchRepository
	WinnerRepo      *repositories.WinnerRepository
	SnapshotGateway *snapshot.Gateway
}

func NewAdminController(mgr *coordinator.Manager, matchRepo *repositories.MatchRepository, winnerRepo *repositories.WinnerRepository, gw *snapshot.Gateway) *AdminController {
	return &AdminController{Manager: mgr, MatchRepo: matchRepo, WinnerRepo: winnerRepo, SnapshotGateway: gw}
}

// CreateMatch handles POST /admin/match.
func (ac *AdminController) CreateMatch(c *gin.Context) {
	match, err := ac.Manager.CreateMatch(c.Request.Context())
	if err != nil {
		respondMatchErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"match_id": match.ID, "start_ts": match.StartTs, "end_ts": match.EndTs})
}

// StartMatch handles POST /admin/match/{id}/start.
func (ac *AdminController) StartMatch(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	if _, err := ac.Manager.StartMatch(c.Request.Context(), uint(id)); err != nil {
		respondMatchErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match_id": id, "status": string(models.MatchRunning)})
}

// ResetMatch handles POST /admin/match/{id}/reset: wipes Coordinator state
// and restarts it from the relational roster.
func (ac *AdminController) ResetMatch(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	coord, ok := ac.Manager.Get(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live coordinator for this match"})
		return
	}

	match, err := ac.MatchRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}

	if err := coord.Reset(c.Request.Context(), match.StartTs, match.EndTs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match_id": id, "status": "reset"})
}

// SettleMatch handles POST /admin/match/{id}/settle: force-settles a live
// match ahead of its scheduled end time.
func (ac *AdminController) SettleMatch(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	coord, ok := ac.Manager.Get(uint(id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live coordinator for this match"})
		return
	}

	if err := coord.Settle(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match_id": id, "status": string(models.MatchSettled)})
}

// MarkWinnerPaid handles POST /admin/winner/{id}/mark-paid.
func (ac *AdminController) MarkWinnerPaid(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid winner id"})
		return
	}

	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ac.WinnerRepo.MarkPaid(uint(id), req.TxHash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"winner_id": id, "paid": true, "tx_hash": req.TxHash})
}

// APIUsage handles GET /admin/api-usage: cache/credit/rate stats for the
// shared snapshot gateway.
func (ac *AdminController) APIUsage(c *gin.Context) {
	stats := ac.SnapshotGateway.Usage(c.Request.Context())
	status := "NORMAL"
	if stats.MonthlyCreditCap > 0 && stats.MonthlyCreditsUsed >= int64(stats.MonthlyCreditCap) {
		status = "EXCEEDED"
	}
	c.JSON(http.StatusOK, dto.APIUsageResponse{
		RateLimitPerMinute: int(stats.RateLimitPerMinute),
		MonthlyCreditCap:   stats.MonthlyCreditCap,
		MonthlyCreditsUsed: stats.MonthlyCreditsUsed,
		Status:             status,
	})
}

func respondMatchErr(c *gin.Context, err error) {
	if errors.Is(err, coordinator.ErrConflictingMatch) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
