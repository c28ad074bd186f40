package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// League is the typed view of a fantasy league used across the decision core.
type League struct {
	ID              string             `json:"id"`
	SeasonID        string             `json:"season_id"`
	Name            string             `json:"name"`
	ScoringSettings ScoringSettings    `json:"scoring_settings"`
	RosterSlots     RosterSlots        `json:"roster_slots"`
	Teams           []Team             `json:"teams"`
}

// Team within a league. Roster is only populated on snapshot builds.
type Team struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Abbrev  string        `json:"abbrev"`
	Manager string        `json:"manager"`
	Record  *TeamRecord   `json:"record,omitempty"`
	Roster  []RosterPlayer `json:"roster,omitempty"`
}

type TeamRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// ScoringSettings maps stat keys to point weights.
type ScoringSettings map[string]float64

func (s *ScoringSettings) Scan(value interface{}) error {
	if value == nil {
		*s = make(ScoringSettings)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ScoringSettings", value)
	}
	return json.Unmarshal(bytes, s)
}

func (s ScoringSettings) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// RosterSlots maps slot labels (PG, SG, ..., UTIL, BE, IR) to counts.
type RosterSlots map[string]int

func (r *RosterSlots) Scan(value interface{}) error {
	if value == nil {
		*r = make(RosterSlots)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into RosterSlots", value)
	}
	return json.Unmarshal(bytes, r)
}

func (r RosterSlots) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// LeagueRow is the persisted league record. Teams are stored inline because
// they are always read atomically with the league row.
type LeagueRow struct {
	LeagueID          string          `gorm:"primaryKey;column:league_id" json:"league_id"`
	SeasonID          string          `gorm:"not null" json:"season_id"`
	Name              string          `json:"name"`
	ScoringSettings   ScoringSettings `gorm:"type:jsonb" json:"scoring_settings"`
	RosterSettings    RosterSlots     `gorm:"type:jsonb" json:"roster_settings"`
	Teams             datatypes.JSON  `gorm:"type:jsonb" json:"teams"`
	DraftDetail       datatypes.JSON  `gorm:"type:jsonb" json:"draft_detail,omitempty"`
	PositionalRatings datatypes.JSON  `gorm:"type:jsonb" json:"positional_ratings,omitempty"`
	LiveScoring       datatypes.JSON  `gorm:"type:jsonb" json:"live_scoring,omitempty"`
	LastUpdatedAt     time.Time       `json:"last_updated_at"`
}

func (LeagueRow) TableName() string {
	return "leagues"
}

// ToLeague inflates the inline teams JSON into the typed League view.
func (lr *LeagueRow) ToLeague() (*League, error) {
	league := &League{
		ID:              lr.LeagueID,
		SeasonID:        lr.SeasonID,
		Name:            lr.Name,
		ScoringSettings: lr.ScoringSettings,
		RosterSlots:     lr.RosterSettings,
	}
	if len(lr.Teams) > 0 {
		if err := json.Unmarshal(lr.Teams, &league.Teams); err != nil {
			return nil, fmt.Errorf("failed to decode league teams: %w", err)
		}
	}
	return league, nil
}
