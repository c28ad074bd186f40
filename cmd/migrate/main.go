package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/pkg/config"
	"github.com/fanvise/fanvise/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db, cfg); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func runMigrations(db *database.DB) error {
	// News embeddings live in a pgvector column.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.LeagueRow{},
		&models.NBAGame{},
		&models.NewsItem{},
		&models.PlayerStatusSnapshot{},
		&models.DailyLeader{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Indexes gorm's tags don't cover.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_news_items_embedding ON news_items USING hnsw (embedding vector_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_news_items_category ON news_items(category)",
		"CREATE INDEX IF NOT EXISTS idx_daily_leaders_player ON daily_leaders(league_id, season_id, player_id, period_date DESC)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	tables := []string{
		"daily_leaders",
		"player_status_snapshots",
		"news_items",
		"nba_schedule",
		"leagues",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

// seedData inserts a synthetic week of schedule and status rows so the
// optimizer and status tools have something to chew on before the first
// real sync.
func seedData(db *database.DB, cfg *config.Config) error {
	leagueID := cfg.ESPNLeagueID
	if leagueID == "" {
		leagueID = "demo"
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	var games []models.NBAGame
	for day := 0; day < 7; day++ {
		tip := today.Add(time.Duration(day)*24*time.Hour + 19*time.Hour)
		for g := 0; g < 3; g++ {
			home := (day*6+g*2)%30 + 1
			away := (day*6+g*2+1)%30 + 1
			games = append(games, models.NBAGame{
				ID:         fmt.Sprintf("seed-%s-%d", tip.Format("20060102"), g),
				Date:       tip,
				HomeTeamID: home,
				AwayTeamID: away,
				SeasonID:   cfg.ESPNSeasonID,
			})
		}
	}
	if err := db.Create(&games).Error; err != nil {
		return fmt.Errorf("failed to seed schedule: %w", err)
	}
	logrus.Infof("Seeded %d schedule games", len(games))

	dtd := models.InjuryDTD
	out := models.InjuryOut
	snapshots := []models.PlayerStatusSnapshot{
		{PlayerID: 3945274, PlayerName: "Luka Doncic", ProTeamID: 25, Source: "seed", LastSyncedAt: time.Now().UTC()},
		{PlayerID: 3112335, PlayerName: "Nikola Jokic", ProTeamID: 7, Injured: true, InjuryStatus: &dtd, Source: "seed", LastSyncedAt: time.Now().UTC()},
		{PlayerID: 4396971, PlayerName: "Cade Cunningham", ProTeamID: 8, Injured: true, InjuryStatus: &out, OutForSeason: true, Source: "seed", LastSyncedAt: time.Now().UTC()},
	}
	if err := db.Create(&snapshots).Error; err != nil {
		logrus.Warnf("Failed to seed status snapshots (may already exist): %v", err)
	}

	yesterday := today.Add(-24 * time.Hour).Format("2006-01-02")
	fpts := func(v float64) *float64 { return &v }
	leaders := []models.DailyLeader{
		{LeagueID: leagueID, SeasonID: cfg.ESPNSeasonID, ScoringPeriodID: 1, PlayerID: 3945274, PeriodDate: yesterday, PlayerName: "Luka Doncic", FantasyPoints: fpts(61.5), Stats: models.StringMap{"PTS": 38, "REB": 11, "AST": 9}, Source: "seed", LastSyncedAt: time.Now().UTC()},
		{LeagueID: leagueID, SeasonID: cfg.ESPNSeasonID, ScoringPeriodID: 1, PlayerID: 3112335, PeriodDate: yesterday, PlayerName: "Nikola Jokic", FantasyPoints: fpts(58.0), Stats: models.StringMap{"PTS": 26, "REB": 14, "AST": 12}, Source: "seed", LastSyncedAt: time.Now().UTC()},
	}
	if err := db.Create(&leaders).Error; err != nil {
		logrus.Warnf("Failed to seed daily leaders (may already exist): %v", err)
	}

	return nil
}
