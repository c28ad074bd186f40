package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fanvise/fanvise/internal/models"
)

// LeadersStore persists the optional daily-leaders enrichment rows,
// composite-keyed on (league, season, scoring period, player).
type LeadersStore struct {
	db *gorm.DB
}

func NewLeadersStore(db *gorm.DB) *LeadersStore {
	return &LeadersStore{db: db}
}

func (s *LeadersStore) UpsertLeaders(ctx context.Context, leaders []models.DailyLeader) error {
	if len(leaders) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "league_id"}, {Name: "season_id"},
				{Name: "scoring_period_id"}, {Name: "player_id"},
			},
			UpdateAll: true,
		}).
		Create(&leaders).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily leaders: %w", err)
	}
	return nil
}

// RecentForPlayer returns a player's last N scored periods, newest first.
func (s *LeadersStore) RecentForPlayer(ctx context.Context, leagueID, seasonID string, playerID, lastN int) ([]models.DailyLeader, error) {
	var rows []models.DailyLeader
	err := s.db.WithContext(ctx).
		Where("league_id = ? AND season_id = ? AND player_id = ?", leagueID, seasonID, playerID).
		Order("scoring_period_id DESC").
		Limit(lastN).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load player game log: %w", err)
	}
	return rows, nil
}

// LeadersForDate returns the leaders for a period date, highest points first.
func (s *LeadersStore) LeadersForDate(ctx context.Context, leagueID, seasonID, periodDate string, limit int) ([]models.DailyLeader, error) {
	var leaders []models.DailyLeader
	err := s.db.WithContext(ctx).
		Where("league_id = ? AND season_id = ? AND period_date = ?", leagueID, seasonID, periodDate).
		Order("fantasy_points DESC").
		Limit(limit).
		Find(&leaders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily leaders: %w", err)
	}
	return leaders, nil
}
