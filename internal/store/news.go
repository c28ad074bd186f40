package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fanvise/fanvise/internal/models"
)

// ErrDimensionMismatch is a programmer error: the embedding provider
// produced a vector that disagrees with the index width. Ingestion must
// fail loudly rather than store a truncated vector.
var ErrDimensionMismatch = errors.New("embedding dimension does not match the vector index")

// NewsStore persists news items with vector embeddings and serves
// similarity search.
type NewsStore struct {
	db *gorm.DB

	// Index width, pinned at bootstrap from the first stored vector.
	dimensions int
}

func NewNewsStore(db *gorm.DB, dimensions int) *NewsStore {
	return &NewsStore{db: db, dimensions: dimensions}
}

// Upsert inserts the item or updates the existing row with the same URL.
// A second call with the same URL is a no-op on ID.
func (s *NewsStore) Upsert(ctx context.Context, item *models.NewsItem) error {
	if s.dimensions > 0 && len(item.Embedding.Slice()) != s.dimensions {
		return fmt.Errorf("%w: got %d, index is %d", ErrDimensionMismatch, len(item.Embedding.Slice()), s.dimensions)
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "content", "summary", "published_at", "source", "trust_level",
				"embedding", "player_name", "sentiment", "category", "impact_backup",
				"is_injury_report", "injury_status", "expected_return_date", "impacted_player_ids",
			}),
		}).
		Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert news item: %w", err)
	}
	return nil
}

// ExistsByURL is the dedupe check used during ingestion.
func (s *NewsStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.NewsItem{}).
		Where("url = ?", url).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check news url: %w", err)
	}
	return count > 0, nil
}

// MatchDocuments runs the semantic search RPC: cosine similarity against
// the vector index, restricted to items published within daysBack days,
// ordered by similarity descending.
func (s *NewsStore) MatchDocuments(ctx context.Context, queryEmbedding []float32, threshold float64, count int, daysBack int) ([]models.NewsMatch, error) {
	if s.dimensions > 0 && len(queryEmbedding) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d, index is %d", ErrDimensionMismatch, len(queryEmbedding), s.dimensions)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -daysBack)
	vec := pgvector.NewVector(queryEmbedding)

	var matches []models.NewsMatch
	err := s.db.WithContext(ctx).
		Raw(`SELECT *, 1 - (embedding <=> ?) AS similarity
		     FROM news_items
		     WHERE published_at >= ?
		       AND 1 - (embedding <=> ?) >= ?
		     ORDER BY similarity DESC
		     LIMIT ?`, vec, cutoff, vec, threshold, count).
		Scan(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to match news documents: %w", err)
	}
	return matches, nil
}

// RecentByPlayer returns the newest items tagged with the player name.
func (s *NewsStore) RecentByPlayer(ctx context.Context, playerName string, limit int) ([]models.NewsItem, error) {
	var items []models.NewsItem
	err := s.db.WithContext(ctx).
		Where("player_name ILIKE ?", playerName).
		Order("published_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load player news: %w", err)
	}
	return items, nil
}

// Dimensions returns the pinned index width (0 = not yet pinned).
func (s *NewsStore) Dimensions() int {
	return s.dimensions
}
