package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fanvise/fanvise/internal/models"
)

// LeagueStore persists league settings with teams stored inline.
type LeagueStore struct {
	db *gorm.DB
}

func NewLeagueStore(db *gorm.DB) *LeagueStore {
	return &LeagueStore{db: db}
}

// GetLeague loads the league row. Returns models.ErrLeagueNotFound when
// the league has never been synced.
func (s *LeagueStore) GetLeague(ctx context.Context, leagueID string) (*models.LeagueRow, error) {
	var row models.LeagueRow
	err := s.db.WithContext(ctx).First(&row, "league_id = ?", leagueID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to load league %s: %w", leagueID, err)
	}
	return &row, nil
}

// UpsertLeague inserts or replaces the league row.
func (s *LeagueStore) UpsertLeague(ctx context.Context, row *models.LeagueRow) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "league_id"}},
			UpdateAll: true,
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert league %s: %w", row.LeagueID, err)
	}
	return nil
}
