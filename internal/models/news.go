package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Sentiment and category labels produced by the intelligence extractor.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"

	CategoryInjury      = "Injury"
	CategoryTrade       = "Trade"
	CategoryLineup      = "Lineup"
	CategoryPerformance = "Performance"
	CategoryOther       = "Other"
)

// StringList stores a JSON string array in a jsonb column.
type StringList []string

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(bytes, l)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// NewsItem is an ingested news article with extracted intelligence and a
// vector embedding for semantic search. Unique by URL.
type NewsItem struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	URL                string          `gorm:"uniqueIndex;not null" json:"url"`
	Title              string          `gorm:"not null" json:"title"`
	Content            string          `json:"content"`
	Summary            string          `json:"summary"`
	PublishedAt        time.Time       `gorm:"index" json:"published_at"`
	Source             string          `json:"source"`
	TrustLevel         int             `gorm:"column:trust_level;default:3" json:"trust_level"` // 1..5
	Embedding          pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	PlayerName         *string         `gorm:"column:player_name;index" json:"player_name,omitempty"`
	Sentiment          string          `json:"sentiment"`
	Category           string          `json:"category"`
	ImpactBackup       *string         `gorm:"column:impact_backup" json:"impact_backup,omitempty"`
	IsInjuryReport     bool            `gorm:"column:is_injury_report" json:"is_injury_report"`
	InjuryStatus       *string         `gorm:"column:injury_status" json:"injury_status,omitempty"`
	ExpectedReturnDate *string         `gorm:"column:expected_return_date" json:"expected_return_date,omitempty"`
	ImpactedPlayerIDs  StringList      `gorm:"column:impacted_player_ids;type:jsonb" json:"impacted_player_ids,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (NewsItem) TableName() string {
	return "news_items"
}

// NewsMatch is a semantic search hit with its cosine similarity.
type NewsMatch struct {
	NewsItem
	Similarity float64 `json:"similarity"`
}

// PlayerStatusSnapshot is the per-player availability record kept in sync
// from ESPN player cards. Keyed by player ID.
type PlayerStatusSnapshot struct {
	PlayerID           int        `gorm:"primaryKey;column:player_id" json:"player_id"`
	PlayerName         string     `gorm:"not null" json:"player_name"`
	ProTeamID          int        `gorm:"column:pro_team_id" json:"pro_team_id"`
	FantasyTeamID      *string    `gorm:"column:fantasy_team_id" json:"fantasy_team_id,omitempty"`
	Injured            bool       `json:"injured"`
	InjuryStatus       *string    `gorm:"column:injury_status" json:"injury_status,omitempty"`
	InjuryType         *string    `gorm:"column:injury_type" json:"injury_type,omitempty"`
	OutForSeason       bool       `gorm:"column:out_for_season" json:"out_for_season"`
	ExpectedReturnDate *string    `gorm:"column:expected_return_date" json:"expected_return_date,omitempty"`
	LastNewsDate       *time.Time `gorm:"column:last_news_date" json:"last_news_date,omitempty"`
	Droppable          *bool      `json:"droppable,omitempty"`
	LineupLocked       *bool      `gorm:"column:lineup_locked" json:"lineup_locked,omitempty"`
	TradeLocked        *bool      `gorm:"column:trade_locked" json:"trade_locked,omitempty"`
	Source             string     `json:"source"`
	LastSyncedAt       time.Time  `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (PlayerStatusSnapshot) TableName() string {
	return "player_status_snapshots"
}

// DailyLeader is the optional daily scoring enrichment row.
type DailyLeader struct {
	LeagueID        string    `gorm:"primaryKey;column:league_id" json:"league_id"`
	SeasonID        string    `gorm:"primaryKey;column:season_id" json:"season_id"`
	ScoringPeriodID int       `gorm:"primaryKey;column:scoring_period_id" json:"scoring_period_id"`
	PlayerID        int       `gorm:"primaryKey;column:player_id" json:"player_id"`
	PeriodDate      string    `gorm:"column:period_date" json:"period_date"`
	PlayerName      string    `json:"player_name"`
	PositionID      *int      `gorm:"column:position_id" json:"position_id,omitempty"`
	ProTeamID       *int      `gorm:"column:pro_team_id" json:"pro_team_id,omitempty"`
	FantasyPoints   *float64  `gorm:"column:fantasy_points" json:"fantasy_points,omitempty"`
	Stats           StringMap `gorm:"type:jsonb" json:"stats,omitempty"`
	OwnershipPct    *float64  `gorm:"column:ownership_percent" json:"ownership_percent,omitempty"`
	Source          string    `json:"source"`
	LastSyncedAt    time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (DailyLeader) TableName() string {
	return "daily_leaders"
}

// StringMap stores a JSON object of stat values in a jsonb column.
type StringMap map[string]float64

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringMap", value)
	}
	return json.Unmarshal(bytes, m)
}

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
