package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fanvise/fanvise/internal/models"
)

// StatusStore persists per-player availability snapshots keyed by player ID.
type StatusStore struct {
	db *gorm.DB
}

func NewStatusStore(db *gorm.DB) *StatusStore {
	return &StatusStore{db: db}
}

func (s *StatusStore) Upsert(ctx context.Context, snapshot *models.PlayerStatusSnapshot) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}},
			UpdateAll: true,
		}).
		Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to upsert status for player %d: %w", snapshot.PlayerID, err)
	}
	return nil
}

// GetByName looks a player up by display name, case-insensitively. Returns
// (nil, nil) when no snapshot exists; the tool layer reports UNKNOWN.
func (s *StatusStore) GetByName(ctx context.Context, playerName string) (*models.PlayerStatusSnapshot, error) {
	var snapshot models.PlayerStatusSnapshot
	err := s.db.WithContext(ctx).
		Where("LOWER(player_name) = LOWER(?)", playerName).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load status for %s: %w", playerName, err)
	}
	return &snapshot, nil
}

func (s *StatusStore) GetByID(ctx context.Context, playerID int) (*models.PlayerStatusSnapshot, error) {
	var snapshot models.PlayerStatusSnapshot
	err := s.db.WithContext(ctx).First(&snapshot, "player_id = ?", playerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load status for player %d: %w", playerID, err)
	}
	return &snapshot, nil
}
