package news

import (
	"context"
	"fmt"

	"github.com/fanvise/fanvise/internal/models"
)

const (
	// Cosine similarity floor for semantic matches.
	similarityThreshold = 0.25
	defaultDaysBack     = 14
	defaultSearchLimit  = 5
)

// SearchService runs semantic queries over the news index.
type SearchService struct {
	store    NewsStore
	embedder Embedder
}

func NewSearchService(store NewsStore, embedder Embedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// Search embeds the query and returns matches above the similarity
// threshold, newest-window first.
func (s *SearchService) Search(ctx context.Context, query string, limit, daysBack int) ([]models.NewsMatch, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.MatchDocuments(ctx, vec, similarityThreshold, limit, daysBack)
}

// SearchPlayer scopes a semantic search to one player.
func (s *SearchService) SearchPlayer(ctx context.Context, playerName string, limit int) ([]models.NewsMatch, error) {
	return s.Search(ctx, fmt.Sprintf("%s NBA fantasy basketball news", playerName), limit, defaultDaysBack)
}
