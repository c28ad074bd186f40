package models

import "time"

// NBAGame is one scheduled NBA game. Unique by ID.
type NBAGame struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	Date            time.Time `gorm:"index;not null" json:"date"`
	HomeTeamID      int       `gorm:"column:home_team_id;not null" json:"home_team_id"`
	AwayTeamID      int       `gorm:"column:away_team_id;not null" json:"away_team_id"`
	SeasonID        string    `gorm:"column:season_id" json:"season_id"`
	ScoringPeriodID *int      `gorm:"column:scoring_period_id" json:"scoring_period_id,omitempty"`
}

func (NBAGame) TableName() string {
	return "nba_schedule"
}

// DateKey returns the UTC day key (YYYY-MM-DD) the optimizer groups games by.
func (g NBAGame) DateKey() string {
	return g.Date.UTC().Format("2006-01-02")
}

// Involves reports whether proTeamID plays in this game.
func (g NBAGame) Involves(proTeamID int) bool {
	return g.HomeTeamID == proTeamID || g.AwayTeamID == proTeamID
}
