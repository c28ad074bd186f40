// Package news ingests RSS feeds, enriches items with LLM-extracted
// intelligence and embeddings, and serves semantic search over them.
package news

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fanvise/fanvise/internal/models"
)

const (
	ingestConcurrency = 5
	feedTimeout       = 15 * time.Second
)

// Feed is one configured RSS source.
type Feed struct {
	Source     string
	URL        string
	TrustLevel int
	// Whitelisted feeds skip the NBA keyword pre-filter.
	Whitelisted bool
}

// ParseFeedSpecs parses "source|url|trustLevel" entries from config.
func ParseFeedSpecs(specs []string) []Feed {
	feeds := make([]Feed, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(strings.TrimSpace(spec), "|")
		if len(parts) < 2 {
			continue
		}
		feed := Feed{Source: parts[0], URL: parts[1], TrustLevel: 3}
		if len(parts) >= 3 {
			if lvl, err := strconv.Atoi(parts[2]); err == nil && lvl >= 1 && lvl <= 5 {
				feed.TrustLevel = lvl
			}
		}
		feeds = append(feeds, feed)
	}
	return feeds
}

// nbaKeywords gate obviously off-topic items before spending an LLM call.
var nbaKeywords = []string{
	"nba", "basketball", "lakers", "celtics", "warriors", "bucks", "nuggets",
	"suns", "knicks", "heat", "76ers", "sixers", "mavericks", "thunder",
	"timberwolves", "cavaliers", "clippers", "kings", "pelicans", "grizzlies",
	"rockets", "spurs", "hawks", "nets", "raptors", "bulls", "pistons",
	"pacers", "hornets", "wizards", "magic", "jazz", "trail blazers", "blazers",
	"triple-double", "double-double", "point guard", "power forward",
}

func matchesNBAKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range nbaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// NewsStore is the persistence surface ingestion needs.
type NewsStore interface {
	Upsert(ctx context.Context, item *models.NewsItem) error
	ExistsByURL(ctx context.Context, url string) (bool, error)
	MatchDocuments(ctx context.Context, queryEmbedding []float32, threshold float64, count int, daysBack int) ([]models.NewsMatch, error)
	RecentByPlayer(ctx context.Context, playerName string, limit int) ([]models.NewsItem, error)
}

// Embedder computes one embedding per article.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FeedParser fetches and parses one RSS URL.
type FeedParser interface {
	ParseURLWithContext(url string, ctx context.Context) (*gofeed.Feed, error)
}

// Ingestor runs the RSS ingestion pipeline.
type Ingestor struct {
	feeds     []Feed
	parser    FeedParser
	store     NewsStore
	extractor *Extractor
	embedder  Embedder
	logger    *logrus.Logger
}

func NewIngestor(feeds []Feed, store NewsStore, extractor *Extractor, embedder Embedder, logger *logrus.Logger) *Ingestor {
	return &Ingestor{
		feeds:     feeds,
		parser:    gofeed.NewParser(),
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		logger:    logger,
	}
}

// SetParser swaps the feed parser. Used by tests.
func (in *Ingestor) SetParser(parser FeedParser) { in.parser = parser }

// IngestAll pulls every configured feed and returns how many new items
// were stored. Per-feed failures are logged and skipped.
func (in *Ingestor) IngestAll(ctx context.Context) (int, error) {
	total := 0
	for _, feed := range in.feeds {
		n, err := in.ingestFeed(ctx, feed, nil)
		if err != nil {
			in.logger.WithError(err).WithField("source", feed.Source).Warn("Feed ingestion failed")
			continue
		}
		total += n
	}
	return total, nil
}

// ingestFeed processes one feed. keep, when non-nil, further restricts
// which items are ingested (used by the player-specific refresh).
func (in *Ingestor) ingestFeed(ctx context.Context, feed Feed, keep func(item *gofeed.Item) bool) (int, error) {
	feedCtx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()

	parsed, err := in.parser.ParseURLWithContext(feed.URL, feedCtx)
	if err != nil {
		return 0, fmt.Errorf("failed to parse feed %s: %w", feed.Source, err)
	}

	var candidates []*gofeed.Item
	for _, item := range parsed.Items {
		if item.Link == "" || item.Title == "" {
			continue
		}
		matched := matchesNBAKeyword(item.Title + " " + item.Description)
		if !matched && !feed.Whitelisted {
			continue
		}
		if keep != nil && !keep(item) {
			continue
		}
		exists, err := in.store.ExistsByURL(ctx, item.Link)
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		candidates = append(candidates, item)
	}

	// Extraction and embedding are the slow part; fan out with bounded
	// parallelism.
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)
	sem := make(chan struct{}, ingestConcurrency)
	for _, item := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(item *gofeed.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			stored, err := in.ingestItem(ctx, feed, item)
			if err != nil {
				in.logger.WithError(err).WithField("url", item.Link).Warn("Item ingestion failed")
				return
			}
			if stored {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	return count, nil
}

func (in *Ingestor) ingestItem(ctx context.Context, feed Feed, item *gofeed.Item) (bool, error) {
	content := item.Content
	if content == "" {
		content = item.Description
	}

	extraction, err := in.extractor.Extract(ctx, item.Title, content)
	if err != nil {
		return false, err
	}

	// Items the extractor cannot place are only worth storing when the
	// keyword gate already confirmed NBA relevance.
	if extraction.Category == models.CategoryOther && !matchesNBAKeyword(item.Title+" "+item.Description) {
		return false, nil
	}

	vec, err := in.embedder.Embed(ctx, item.Title+"\n"+content)
	if err != nil {
		return false, err
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}

	entry := &models.NewsItem{
		URL:            item.Link,
		Title:          item.Title,
		Content:        content,
		Summary:        item.Description,
		PublishedAt:    published,
		Source:         feed.Source,
		TrustLevel:     feed.TrustLevel,
		Embedding:      pgvector.NewVector(vec),
		Sentiment:      extraction.Sentiment,
		Category:       extraction.Category,
		IsInjuryReport: extraction.IsInjuryReport,
	}
	if extraction.PlayerName != "" {
		entry.PlayerName = &extraction.PlayerName
	}
	if extraction.ImpactBackup != "" {
		entry.ImpactBackup = &extraction.ImpactBackup
	}
	if extraction.InjuryStatus != "" {
		entry.InjuryStatus = &extraction.InjuryStatus
	}
	if extraction.ExpectedReturnDate != "" {
		entry.ExpectedReturnDate = &extraction.ExpectedReturnDate
	}
	if len(extraction.ImpactedPlayerIDs) > 0 {
		entry.ImpactedPlayerIDs = models.StringList(extraction.ImpactedPlayerIDs)
	}

	if err := in.store.Upsert(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

// RefreshResult is the outcome of a player-specific live pull.
type RefreshResult struct {
	Refreshed int               `json:"refreshed"`
	Items     []models.NewsItem `json:"items"`
}

// FetchPlayerSpecificNews pulls all feeds now, ingesting only items that
// fuzzy-match the player name, then returns the player's recent items.
func (in *Ingestor) FetchPlayerSpecificNews(ctx context.Context, playerName string) (*RefreshResult, error) {
	needle := stripDiacritics(strings.ToLower(playerName))
	tokens := strings.Fields(needle)

	// Headlines often use only the surname, so full-name and surname
	// matches both count.
	keep := func(item *gofeed.Item) bool {
		haystack := stripDiacritics(strings.ToLower(item.Title + " " + item.Description))
		if strings.Contains(haystack, needle) {
			return true
		}
		if len(tokens) > 0 && strings.Contains(haystack, tokens[len(tokens)-1]) {
			return true
		}
		return false
	}

	refreshed := 0
	for _, feed := range in.feeds {
		n, err := in.ingestFeed(ctx, feed, keep)
		if err != nil {
			in.logger.WithError(err).WithField("source", feed.Source).Warn("Player refresh feed failed")
			continue
		}
		refreshed += n
	}

	items, err := in.store.RecentByPlayer(ctx, playerName, 10)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Refreshed: refreshed, Items: items}, nil
}

// stripDiacritics folds accented characters so "Dončić" matches "Doncic".
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
