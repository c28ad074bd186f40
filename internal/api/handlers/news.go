package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/news"
	"github.com/fanvise/fanvise/pkg/utils"
)

// NewsSearcher is the query surface the news endpoints expose.
type NewsSearcher interface {
	Search(ctx context.Context, query string, limit, daysBack int) ([]models.NewsMatch, error)
	SearchPlayer(ctx context.Context, playerName string, limit int) ([]models.NewsMatch, error)
}

// NewsIngestor refreshes the index from the configured feeds.
type NewsIngestor interface {
	IngestAll(ctx context.Context) (int, error)
	FetchPlayerSpecificNews(ctx context.Context, playerName string) (*news.RefreshResult, error)
}

type NewsHandler struct {
	search   NewsSearcher
	ingestor NewsIngestor
	logger   *logrus.Logger
}

func NewNewsHandler(search NewsSearcher, ingestor NewsIngestor, logger *logrus.Logger) *NewsHandler {
	return &NewsHandler{search: search, ingestor: ingestor, logger: logger}
}

// Search handles GET /news/search?q=...&limit=...&daysBack=...
func (h *NewsHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.SendValidationError(c, "q is required", "")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	daysBack, _ := strconv.Atoi(c.DefaultQuery("daysBack", "0"))

	matches, err := h.search.Search(c.Request.Context(), query, limit, daysBack)
	if err != nil {
		h.logger.WithError(err).Error("News search failed")
		utils.SendInternalError(c, "news search failed")
		return
	}
	utils.SendSuccess(c, gin.H{"query": query, "matches": matches})
}

// PlayerNews handles GET /news/player/:name
func (h *NewsHandler) PlayerNews(c *gin.Context) {
	name := c.Param("name")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	matches, err := h.search.SearchPlayer(c.Request.Context(), name, limit)
	if err != nil {
		h.logger.WithError(err).Error("Player news search failed")
		utils.SendInternalError(c, "news search failed")
		return
	}
	utils.SendSuccess(c, gin.H{"playerName": name, "matches": matches})
}

// Refresh handles POST /news/refresh with {"playerName": "..."}. Without
// a player name it re-polls every feed.
func (h *NewsHandler) Refresh(c *gin.Context) {
	var body struct {
		PlayerName string `json:"playerName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		utils.SendValidationError(c, "invalid refresh request", err.Error())
		return
	}

	if body.PlayerName != "" {
		result, err := h.ingestor.FetchPlayerSpecificNews(c.Request.Context(), body.PlayerName)
		if err != nil {
			h.logger.WithError(err).Error("Player news refresh failed")
			utils.SendUnavailable(c, "news refresh failed")
			return
		}
		utils.SendSuccess(c, result)
		return
	}

	n, err := h.ingestor.IngestAll(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Feed ingestion failed")
		utils.SendUnavailable(c, "feed ingestion failed")
		return
	}
	utils.SendSuccess(c, gin.H{"ingested": n})
}
