package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/fanvise/fanvise/internal/models"
	"github.com/fanvise/fanvise/internal/providers"
)

// SyncESPN is the upstream surface the sync jobs pull from.
type SyncESPN interface {
	GetLeague(ctx context.Context) (*providers.LeagueData, error)
	GetProSchedule(ctx context.Context) ([]models.NBAGame, error)
	GetDailyLeaders(ctx context.Context, scoringPeriodID, limit int) ([]models.DailyLeader, error)
}

// LeagueWriter persists synced league rows.
type LeagueWriter interface {
	UpsertLeague(ctx context.Context, row *models.LeagueRow) error
}

// ScheduleWriter persists synced NBA games.
type ScheduleWriter interface {
	UpsertGames(ctx context.Context, games []models.NBAGame) error
}

// LeadersWriter persists daily scoring leaders.
type LeadersWriter interface {
	UpsertLeaders(ctx context.Context, leaders []models.DailyLeader) error
}

// SyncService pulls ESPN data into the local stores. It backs both the
// manual sync endpoints and the cron jobs.
type SyncService struct {
	espn     SyncESPN
	leagues  LeagueWriter
	schedule ScheduleWriter
	leaders  LeadersWriter
	cache    *CacheService
	logger   *logrus.Logger
	now      func() time.Time
}

func NewSyncService(espn SyncESPN, leagues LeagueWriter, schedule ScheduleWriter, leaders LeadersWriter, cache *CacheService, logger *logrus.Logger) *SyncService {
	return &SyncService{
		espn:     espn,
		leagues:  leagues,
		schedule: schedule,
		leaders:  leaders,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNow overrides the clock for tests.
func (s *SyncService) SetNow(now func() time.Time) { s.now = now }

// SyncLeague refreshes the league row from ESPN and invalidates its cache
// entry so the next snapshot sees the new settings.
func (s *SyncService) SyncLeague(ctx context.Context) (*models.LeagueRow, error) {
	data, err := s.espn.GetLeague(ctx)
	if err != nil {
		return nil, fmt.Errorf("league sync fetch failed: %w", err)
	}

	teams, err := json.Marshal(data.League.Teams)
	if err != nil {
		return nil, fmt.Errorf("failed to encode league teams: %w", err)
	}

	row := &models.LeagueRow{
		LeagueID:        data.League.ID,
		SeasonID:        data.League.SeasonID,
		Name:            data.League.Name,
		ScoringSettings: data.League.ScoringSettings,
		RosterSettings:  data.League.RosterSlots,
		Teams:           datatypes.JSON(teams),
		LastUpdatedAt:   s.now().UTC(),
	}
	if err := s.leagues.UpsertLeague(ctx, row); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, LeagueCacheKey(row.LeagueID)); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate league cache after sync")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"league": row.LeagueID,
		"teams":  len(data.League.Teams),
	}).Info("League synced")
	return row, nil
}

// SyncSchedule refreshes the full NBA schedule.
func (s *SyncService) SyncSchedule(ctx context.Context) (int, error) {
	games, err := s.espn.GetProSchedule(ctx)
	if err != nil {
		return 0, fmt.Errorf("schedule sync fetch failed: %w", err)
	}
	if err := s.schedule.UpsertGames(ctx, games); err != nil {
		return 0, err
	}
	s.logger.WithField("games", len(games)).Info("NBA schedule synced")
	return len(games), nil
}

// SyncLeaders pulls the top scorers for the latest scoring period.
func (s *SyncService) SyncLeaders(ctx context.Context, limit int) (int, error) {
	data, err := s.espn.GetLeague(ctx)
	if err != nil {
		return 0, fmt.Errorf("leaders sync fetch failed: %w", err)
	}
	period := data.LatestScoringPeriod
	if period <= 0 {
		return 0, nil
	}

	leaders, err := s.espn.GetDailyLeaders(ctx, period, limit)
	if err != nil {
		return 0, err
	}

	syncedAt := s.now().UTC()
	for i := range leaders {
		leaders[i].LeagueID = data.League.ID
		leaders[i].SeasonID = data.League.SeasonID
		leaders[i].PeriodDate = syncedAt.Format("2006-01-02")
		leaders[i].Source = "ESPN"
		leaders[i].LastSyncedAt = syncedAt
	}
	if err := s.leaders.UpsertLeaders(ctx, leaders); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"period":  period,
		"leaders": len(leaders),
	}).Info("Daily leaders synced")
	return len(leaders), nil
}
