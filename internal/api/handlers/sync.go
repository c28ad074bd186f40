package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/services"
	"github.com/fanvise/fanvise/pkg/utils"
)

type SyncHandler struct {
	svc    *services.SyncService
	logger *logrus.Logger
}

func NewSyncHandler(svc *services.SyncService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, logger: logger}
}

// League handles POST /sync/league.
func (h *SyncHandler) League(c *gin.Context) {
	row, err := h.svc.SyncLeague(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("League sync failed")
		utils.SendUnavailable(c, "league sync failed")
		return
	}
	utils.SendSuccess(c, gin.H{
		"leagueId":  row.LeagueID,
		"seasonId":  row.SeasonID,
		"name":      row.Name,
		"updatedAt": row.LastUpdatedAt,
	})
}

// Schedule handles POST /sync/schedule.
func (h *SyncHandler) Schedule(c *gin.Context) {
	n, err := h.svc.SyncSchedule(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Schedule sync failed")
		utils.SendUnavailable(c, "schedule sync failed")
		return
	}
	utils.SendSuccess(c, gin.H{"games": n})
}

// Leaders handles POST /sync/leaders?limit=...
func (h *SyncHandler) Leaders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	n, err := h.svc.SyncLeaders(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Leaders sync failed")
		utils.SendUnavailable(c, "leaders sync failed")
		return
	}
	utils.SendSuccess(c, gin.H{"leaders": n})
}
