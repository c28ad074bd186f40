package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/agent"
	"github.com/fanvise/fanvise/internal/api/handlers"
	"github.com/fanvise/fanvise/internal/optimizer"
	"github.com/fanvise/fanvise/internal/services"
	"github.com/fanvise/fanvise/pkg/config"
)

// Deps carries everything the route handlers need.
type Deps struct {
	Config    *config.Config
	Registry  *agent.Registry
	Engine    *optimizer.Engine
	News      handlers.NewsSearcher
	Ingestor  handlers.NewsIngestor
	Sync      *services.SyncService
	Leaders   handlers.LeadersReader
	Logger    *logrus.Logger
}

// SetupRoutes registers the API surface on the given group.
func SetupRoutes(group *gin.RouterGroup, deps Deps) {
	chatHandler := handlers.NewChatHandler(deps.Config, deps.Registry, deps.Engine, deps.Logger)
	newsHandler := handlers.NewNewsHandler(deps.News, deps.Ingestor, deps.Logger)
	optimizerHandler := handlers.NewOptimizerHandler(deps.Engine, deps.Config.ESPNLeagueID, deps.Logger)
	syncHandler := handlers.NewSyncHandler(deps.Sync, deps.Logger)
	leadersHandler := handlers.NewLeadersHandler(deps.Leaders, deps.Config.ESPNLeagueID, deps.Config.ESPNSeasonID, deps.Logger)

	group.POST("/chat", chatHandler.Chat)

	group.GET("/news/search", newsHandler.Search)
	group.GET("/news/player/:name", newsHandler.PlayerNews)
	group.POST("/news/refresh", newsHandler.Refresh)

	group.POST("/optimizer/run", optimizerHandler.Run)

	group.POST("/sync/league", syncHandler.League)
	group.POST("/sync/schedule", syncHandler.Schedule)
	group.POST("/sync/leaders", syncHandler.Leaders)

	group.GET("/leaders", leadersHandler.ForDate)
	group.GET("/players/:id/gamelog", leadersHandler.PlayerGameLog)
}
