package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/agent"
	"github.com/fanvise/fanvise/internal/api"
	"github.com/fanvise/fanvise/internal/api/middleware"
	"github.com/fanvise/fanvise/internal/llm"
	"github.com/fanvise/fanvise/internal/news"
	"github.com/fanvise/fanvise/internal/optimizer"
	"github.com/fanvise/fanvise/internal/providers"
	"github.com/fanvise/fanvise/internal/services"
	"github.com/fanvise/fanvise/internal/snapshot"
	"github.com/fanvise/fanvise/internal/store"
	"github.com/fanvise/fanvise/pkg/config"
	"github.com/fanvise/fanvise/pkg/database"
)

const embeddingDimensions = 768

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.StandardLogger()
	if cfg.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Stores and upstream clients.
	cache := services.NewCacheService(redisClient)
	leagueStore := store.NewLeagueStore(db.DB)
	scheduleStore := store.NewScheduleStore(db.DB)
	newsStore := store.NewNewsStore(db.DB, embeddingDimensions)
	statusStore := store.NewStatusStore(db.DB)
	leadersStore := store.NewLeadersStore(db.DB)
	espn := providers.NewESPNClient(cfg.ESPNSport, cfg.ESPNLeagueID, cfg.ESPNSeasonID, cfg.ESPNSwid, cfg.ESPNS2, logger)

	// LLM surface.
	provider := llm.NewProvider(cfg, logger)
	embedder := llm.NewEmbedder(cfg, logger)

	// News pipeline.
	feeds := news.ParseFeedSpecs(cfg.RSSFeeds)
	extractor := news.NewExtractor(provider)
	ingestor := news.NewIngestor(feeds, newsStore, extractor, embedder, logger)
	searchService := news.NewSearchService(newsStore, embedder)
	statusSyncer := news.NewStatusSyncer(espn, statusStore, logger)

	// Decision core.
	builder := snapshot.NewBuilder(leagueStore, scheduleStore, espn, cache, logger)
	recommender := agent.NewMovesRecommender(provider)
	engine := optimizer.NewEngine(builder, scheduleStore, recommender, logger)
	syncService := services.NewSyncService(espn, leagueStore, scheduleStore, leadersStore, cache, logger)

	registry := agent.NewToolset(agent.ToolDeps{
		Snapshots:   builder,
		Schedule:    scheduleStore,
		ESPN:        espn,
		Status:      statusStore,
		NewsSearch:  searchService,
		NewsRefresh: ingestor,
		GameLog:     leadersStore,
		LeagueID:    cfg.ESPNLeagueID,
		SeasonID:    cfg.ESPNSeasonID,
		Logger:      logger,
	})

	if cfg.EnableBackgroundJobs {
		jobs := cron.New()
		mustSchedule(jobs, cfg.RSSPollSchedule, "rss poll", func(ctx context.Context) {
			if n, err := ingestor.IngestAll(ctx); err != nil {
				logger.WithError(err).Warn("Scheduled feed ingestion failed")
			} else {
				logger.WithField("ingested", n).Info("Scheduled feed ingestion done")
			}
		})
		mustSchedule(jobs, cfg.StatusSyncSchedule, "status sync", func(ctx context.Context) {
			if n, err := statusSyncer.Sync(ctx); err != nil {
				logger.WithError(err).Warn("Scheduled status sync failed")
			} else {
				logger.WithField("synced", n).Info("Scheduled status sync done")
			}
		})
		mustSchedule(jobs, cfg.LeadersSyncSchedule, "leaders sync", func(ctx context.Context) {
			if n, err := syncService.SyncLeaders(ctx, 50); err != nil {
				logger.WithError(err).Warn("Scheduled leaders sync failed")
			} else {
				logger.WithField("leaders", n).Info("Scheduled leaders sync done")
			}
		})
		jobs.Start()
		defer jobs.Stop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, api.Deps{
		Config:   cfg,
		Registry: registry,
		Engine:   engine,
		News:     searchService,
		Ingestor: ingestor,
		Sync:     syncService,
		Leaders:  leadersStore,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// Chat streams can outlive a normal request while tools run.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	logrus.Info("Server exited")
}

// mustSchedule registers one cron job with a bounded context per run.
func mustSchedule(jobs *cron.Cron, spec, name string, run func(ctx context.Context)) {
	_, err := jobs.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		run(ctx)
	})
	if err != nil {
		logrus.Fatalf("Invalid %s schedule %q: %v", name, spec, err)
	}
}
