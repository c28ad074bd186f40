package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fanvise/fanvise/internal/models"
)

// ScheduleStore persists the NBA game schedule and serves range queries.
type ScheduleStore struct {
	db *gorm.DB
}

func NewScheduleStore(db *gorm.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// GamesInRange returns all games with start <= date <= end, ordered by date.
func (s *ScheduleStore) GamesInRange(ctx context.Context, start, end time.Time) ([]models.NBAGame, error) {
	var games []models.NBAGame
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule range: %w", err)
	}
	return games, nil
}

// GamesForTeam returns the games a pro team plays inside the window.
func (s *ScheduleStore) GamesForTeam(ctx context.Context, proTeamID int, start, end time.Time) ([]models.NBAGame, error) {
	var games []models.NBAGame
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Where("home_team_id = ? OR away_team_id = ?", proTeamID, proTeamID).
		Order("date ASC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query team schedule: %w", err)
	}
	return games, nil
}

// UpsertGames inserts or replaces schedule rows keyed by game ID.
func (s *ScheduleStore) UpsertGames(ctx context.Context, games []models.NBAGame) error {
	if len(games) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&games).Error
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}
	return nil
}
