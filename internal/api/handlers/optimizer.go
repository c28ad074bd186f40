package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/optimizer"
	"github.com/fanvise/fanvise/pkg/utils"
)

type optimizeRequest struct {
	TeamID      int    `json:"teamId" binding:"required"`
	LeagueID    string `json:"leagueId"`
	WindowStart string `json:"windowStart"`
	WindowEnd   string `json:"windowEnd"`
}

type OptimizerHandler struct {
	engine          *optimizer.Engine
	defaultLeagueID string
	logger          *logrus.Logger
}

func NewOptimizerHandler(engine *optimizer.Engine, defaultLeagueID string, logger *logrus.Logger) *OptimizerHandler {
	return &OptimizerHandler{engine: engine, defaultLeagueID: defaultLeagueID, logger: logger}
}

// Run handles POST /optimizer/run. An omitted window defaults to
// now-through-Sunday.
func (h *OptimizerHandler) Run(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid optimizer request", err.Error())
		return
	}

	leagueID := req.LeagueID
	if leagueID == "" {
		leagueID = h.defaultLeagueID
	}

	var window optimizer.Window
	if req.WindowStart != "" && req.WindowEnd != "" {
		start, err := time.Parse(time.RFC3339, req.WindowStart)
		if err != nil {
			utils.SendValidationError(c, "windowStart must be RFC3339", err.Error())
			return
		}
		end, err := time.Parse(time.RFC3339, req.WindowEnd)
		if err != nil {
			utils.SendValidationError(c, "windowEnd must be RFC3339", err.Error())
			return
		}
		window = optimizer.Window{Start: start, End: end}
	}

	result, err := h.engine.Run(c.Request.Context(), leagueID, req.TeamID, window)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrLeagueNotFound), errors.Is(err, models.ErrTeamNotFound):
			utils.SendNotFound(c, err.Error())
		case errors.Is(err, models.ErrRosterUnavailable):
			utils.SendUnavailable(c, err.Error())
		default:
			h.logger.WithError(err).Error("Optimizer run failed")
			utils.SendInternalError(c, "optimizer run failed")
		}
		return
	}
	utils.SendSuccess(c, result)
}
