// Package controllers implements the admin and public HTTP surfaces over
// gin.Context, translating between dto request/response shapes and the
// coordinator/repository/compiler layers.
package controllers

import (
	"errors"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tokenarena/internal/api/dto"
	"tokenarena/internal/coordinator"
	"tokenarena/internal/models"
	"tokenarena/internal/repositories"
	"tokenarena/internal/strategy"
)

// fnvSeedFromOwner derives the uniqueness seed from the participant's
// owner address, stable across retries of the same submission.
func fnvSeedFromOwner(owner string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(owner)))
	return h.Sum64()
}

// PublicController serves the unauthenticated bot-creation and read
// surface: leaderboard, bot detail, match history, and websocket upgrade.
type PublicController struct {
	DB              *gorm.DB
	Manager         *coordinator.Manager
	Compiler        *strategy.Compiler
	MatchRepo       *repositories.MatchRepository
	ParticipantRepo *repositories.ParticipantRepository
	WinnerRepo      *repositories.WinnerRepository
	BurnRepo        *repositories.BurnRepository
	BalanceProjRepo *repositories.BalanceProjectionRepository
}

func NewPublicController(db *gorm.DB, mgr *coordinator.Manager, comp *strategy.Compiler, matchRepo *repositories.MatchRepository, participantRepo *repositories.ParticipantRepository, winnerRepo *repositories.WinnerRepository, burnRepo *repositories.BurnRepository, balanceProjRepo *repositories.BalanceProjectionRepository) *PublicController {
	return &PublicController{
		DB:              db,
		Manager:         mgr,
		Compiler:        comp,
		MatchRepo:       matchRepo,
		ParticipantRepo: participantRepo,
		WinnerRepo:      winnerRepo,
		BurnRepo:        burnRepo,
		BalanceProjRepo: balanceProjRepo,
	}
}

// CreateBot handles POST /bot: compiles the strategy, persists the
// participant, and joins a Running match's coordinator if one exists.
func (pc *PublicController) CreateBot(c *gin.Context) {
	var req dto.CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	running, err := pc.MatchRepo.GetRunning()
	var matchID uint
	var matchStartTs int64
	if err == nil && running.ID != 0 {
		matchID = running.ID
		matchStartTs = running.StartTs
	} else {
		pending, pErr := pc.latestPendingMatch()
		if pErr != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no match accepting entrants right now"})
			return
		}
		matchID = pending.ID
		matchStartTs = pending.StartTs
	}

	if pc.BurnRepo != nil {
		verified, err := pc.BurnRepo.HasVerifiedBurnSince(req.Owner, matchStartTs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !verified {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "no verified entry-fee burn on file for this owner"})
			return
		}
	}

	seed := fnvSeedFromOwner(req.Owner)
	compiled, err := pc.Compiler.Compile(c.Request.Context(), req.Prompt, seed)
	if err != nil {
		var invalid *strategy.InvalidPrompt
		var failed *strategy.ParseFailed
		switch {
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
		case errors.As(err, &failed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": failed.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	participant := &models.Participant{
		Owner:     req.Owner,
		MatchID:   matchID,
		Name:      req.Name,
		PromptRaw: req.Prompt,
		Strategy:  models.StrategyToJSONB(compiled),
	}
	if err := pc.ParticipantRepo.Create(participant); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "name already taken"})
		return
	}

	if coord, ok := pc.Manager.Get(matchID); ok {
		coord.AddParticipant(*participant)
	}

	c.JSON(http.StatusCreated, dto.CreateBotResponse{
		ParticipantID: participant.ID,
		MatchID:       matchID,
		Name:          participant.Name,
	})
}

// Leaderboard handles GET /leaderboard: merges the relational roster with
// live Coordinator state where a match is Running; participants not yet
// picked up by a tick show the starting balance and "waiting" status.
func (pc *PublicController) Leaderboard(c *gin.Context) {
	match, err := pc.MatchRepo.GetRunning()
	if err != nil || match.ID == 0 {
		c.JSON(http.StatusOK, gin.H{"match_id": 0, "entries": []dto.LeaderboardEntry{}})
		return
	}

	roster, err := pc.ParticipantRepo.ListByMatch(match.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	coord, live := pc.Manager.Get(match.ID)
	entries := make([]dto.LeaderboardEntry, 0, len(roster))
	for _, p := range roster {
		entry := dto.LeaderboardEntry{ParticipantID: p.ID, Owner: p.Owner, Name: p.Name, Balance: models.StartBalance, Status: "waiting"}
		if live {
			if value, ok := coord.LatestValue(p.ID); ok {
				entry.Balance = value
				entry.Status = "live"
			}
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, gin.H{"match_id": match.ID, "entries": entries})
}

// BotDetail handles GET /bot/{id}: live portfolio from the Coordinator when
// its match is Running, else the settlement-time projection.
func (pc *PublicController) BotDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bot id"})
		return
	}

	participant, err := pc.ParticipantRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bot not found"})
		return
	}

	resp := dto.BotDetailResponse{ParticipantID: participant.ID, Owner: participant.Owner, Name: participant.Name}

	if coord, ok := pc.Manager.Get(participant.MatchID); ok {
		if portfolio, ok := coord.PortfolioOf(participant.ID); ok {
			resp.Balance = portfolio.Balance
			resp.RealizedPnL = portfolio.RealizedPnL
			for _, pos := range portfolio.Positions {
				resp.Positions = append(resp.Positions, dto.PositionView{
					TokenAddress: pos.TokenAddress, Symbol: pos.Symbol, Quantity: pos.Quantity,
					AvgPrice: pos.AvgPrice, PnlUnrealized: pos.PnlUnrealized,
				})
			}
			for _, o := range portfolio.Orders {
				resp.Orders = append(resp.Orders, dto.OrderView{
					ID: o.ID, Ts: o.Ts, TokenAddress: o.TokenAddress, Symbol: o.Symbol,
					Side: o.Side, FillQuantity: o.FillQuantity, FillPrice: o.FillPrice, Fee: o.Fee,
				})
			}
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	if bp, err := pc.BalanceProjRepo.LatestByParticipant(participant.ID); err == nil && bp.ID != 0 {
		resp.Balance = bp.TotalValue
	} else {
		resp.Balance = models.StartBalance
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentMatch handles GET /match/current.
func (pc *PublicController) CurrentMatch(c *gin.Context) {
	match, err := pc.MatchRepo.GetRunning()
	if err != nil || match.ID == 0 {
		c.JSON(http.StatusOK, gin.H{"match": nil})
		return
	}
	c.JSON(http.StatusOK, toMatchSummary(match))
}

// MatchHistory handles GET /match/history.
func (pc *PublicController) MatchHistory(c *gin.Context) {
	var matches []models.Match
	if err := pc.DB.Order("id DESC").Limit(50).Find(&matches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summaries := make([]dto.MatchSummary, 0, len(matches))
	for i := range matches {
		summaries = append(summaries, toMatchSummary(&matches[i]))
	}
	c.JSON(http.StatusOK, gin.H{"matches": summaries})
}

// MatchResults handles GET /match/results/{id}.
func (pc *PublicController) MatchResults(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	winners, err := pc.WinnerRepo.ListByMatch(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]dto.WinnerView, 0, len(winners))
	for _, w := range winners {
		views = append(views, dto.WinnerView{
			ParticipantID: w.ParticipantID, Owner: w.Owner, EndBalance: w.EndBalance,
			GainPct: w.GainPct, Prize: w.Prize, Paid: w.Paid,
		})
	}
	c.JSON(http.StatusOK, gin.H{"match_id": id, "winners": views})
}

func (pc *PublicController) latestPendingMatch() (*models.Match, error) {
	var m models.Match
	err := pc.DB.Where("status = ?", models.MatchPending).Order("id DESC").First(&m).Error
	return &m, err
}

func toMatchSummary(m *models.Match) dto.MatchSummary {
	return dto.MatchSummary{ID: m.ID, StartTs: m.StartTs, EndTs: m.EndTs, Status: string(m.Status), ResultHash: m.ResultHash}
}
