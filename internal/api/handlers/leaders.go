package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/pkg/utils"
)

// LeadersReader serves the daily scoring enrichment rows.
type LeadersReader interface {
	LeadersForDate(ctx context.Context, leagueID, seasonID, periodDate string, limit int) ([]models.DailyLeader, error)
	RecentForPlayer(ctx context.Context, leagueID, seasonID string, playerID, lastN int) ([]models.DailyLeader, error)
}

type LeadersHandler struct {
	store    LeadersReader
	leagueID string
	seasonID string
	logger   *logrus.Logger
}

func NewLeadersHandler(store LeadersReader, leagueID, seasonID string, logger *logrus.Logger) *LeadersHandler {
	return &LeadersHandler{store: store, leagueID: leagueID, seasonID: seasonID, logger: logger}
}

// ForDate handles GET /leaders?date=YYYY-MM-DD&limit=...
func (h *LeadersHandler) ForDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.SendValidationError(c, "date is required", "format YYYY-MM-DD")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	leaders, err := h.store.LeadersForDate(c.Request.Context(), h.leagueID, h.seasonID, date, limit)
	if err != nil {
		h.logger.WithError(err).Error("Leaders lookup failed")
		utils.SendInternalError(c, "leaders lookup failed")
		return
	}
	utils.SendSuccess(c, gin.H{"date": date, "leaders": leaders})
}

// PlayerGameLog handles GET /players/:id/gamelog?lastN=...
func (h *LeadersHandler) PlayerGameLog(c *gin.Context) {
	playerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "player id must be numeric", c.Param("id"))
		return
	}
	lastN, _ := strconv.Atoi(c.DefaultQuery("lastN", "5"))

	rows, err := h.store.RecentForPlayer(c.Request.Context(), h.leagueID, h.seasonID, playerID, lastN)
	if err != nil {
		h.logger.WithError(err).Error("Game log lookup failed")
		utils.SendInternalError(c, "game log lookup failed")
		return
	}
	utils.SendSuccess(c, gin.H{"playerId": playerID, "games": rows})
}
