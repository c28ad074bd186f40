package providers

import "github.com/fanvise/fanvise/internal/models"

// ESPN fantasy views used by the client.
const (
	ViewSettings          = "mSettings"
	ViewTeam              = "mTeam"
	ViewRoster            = "mRoster"
	ViewMatchup           = "mMatchup"
	ViewMatchupScore      = "mMatchupScore"
	ViewScoreboard        = "mScoreboard"
	ViewTransactions      = "mTransactions2"
	ViewKonaPlayerInfo    = "kona_player_info"
	ViewPositionalRatings = "mPositionalRatings"
	ViewLiveScoring       = "mLiveScoring"
	ViewCurrentRoster     = "rosterForCurrentScoringPeriod"
)

// lineupSlotNames maps ESPN lineup slot IDs to roster slot labels.
var lineupSlotNames = map[int]string{
	0:  models.SlotPG,
	1:  models.SlotSG,
	2:  models.SlotSF,
	3:  models.SlotPF,
	4:  models.SlotC,
	5:  models.SlotG,
	6:  models.SlotF,
	8:  models.SlotGF,
	10: models.SlotFC,
	11: models.SlotUtil,
	12: models.SlotBE,
	13: models.SlotIR,
}

// positionNames maps ESPN default position IDs to display positions.
var positionNames = map[int]string{
	1: models.SlotPG,
	2: models.SlotSG,
	3: models.SlotSF,
	4: models.SlotPF,
	5: models.SlotC,
}

// proTeamNames maps ESPN pro team IDs to NBA abbreviations.
var proTeamNames = map[int]string{
	0: "FA", 1: "ATL", 2: "BOS", 3: "NOP", 4: "CHI", 5: "CLE",
	6: "DAL", 7: "DEN", 8: "DET", 9: "GSW", 10: "HOU", 11: "IND",
	12: "LAC", 13: "LAL", 14: "MIA", 15: "MIL", 16: "MIN", 17: "BKN",
	18: "NYK", 19: "ORL", 20: "PHL", 21: "PHO", 22: "POR", 23: "SAC",
	24: "SAS", 25: "OKC", 26: "UTA", 27: "WSH", 28: "TOR", 29: "MEM", 30: "CHA",
}

// ProTeamName returns the NBA abbreviation for an ESPN pro team ID.
func ProTeamName(id int) string {
	if name, ok := proTeamNames[id]; ok {
		return name
	}
	return "UNK"
}

// SlotName returns the roster slot label for an ESPN lineup slot ID.
func SlotName(id int) string {
	if name, ok := lineupSlotNames[id]; ok {
		return name
	}
	return ""
}

// PositionName returns the display position for an ESPN position ID.
func PositionName(id int) string {
	if name, ok := positionNames[id]; ok {
		return name
	}
	return models.SlotUtil
}

// espnPlayer is the player object shared by rosters, free agents, and
// player cards. The client tolerates extra fields.
type espnPlayer struct {
	ID               int     `json:"id"`
	FullName         string  `json:"fullName"`
	DefaultPositionID int    `json:"defaultPositionId"`
	ProTeamID        int     `json:"proTeamId"`
	InjuryStatus     string  `json:"injuryStatus"`
	Injured          bool    `json:"injured"`
	EligibleSlots    []int   `json:"eligibleSlots"`
	Droppable        *bool   `json:"droppable,omitempty"`
	Ownership        struct {
		PercentOwned float64 `json:"percentOwned"`
	} `json:"ownership"`
	Stats []espnStatLine `json:"stats"`
}

type espnStatLine struct {
	SeasonID        int                `json:"seasonId"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	StatSourceID    int                `json:"statSourceId"`
	StatSplitTypeID int                `json:"statSplitTypeId"`
	AppliedTotal    float64            `json:"appliedTotal"`
	AppliedAverage  float64            `json:"appliedAverage"`
	Stats           map[string]float64 `json:"stats"`
}

type espnPoolEntry struct {
	PlayerPoolEntry struct {
		Player espnPlayer `json:"player"`
	} `json:"playerPoolEntry"`
	LineupSlotID int `json:"lineupSlotId"`
}

type espnRoster struct {
	Entries []espnPoolEntry `json:"entries"`
}

type espnTeam struct {
	ID       int    `json:"id"`
	Abbrev   string `json:"abbrev"`
	Location string `json:"location"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Owners   []string `json:"owners"`
	Record   struct {
		Overall struct {
			Wins   int     `json:"wins"`
			Losses int     `json:"losses"`
			Ties   int     `json:"ties"`
			PointsFor     float64 `json:"pointsFor"`
			PointsAgainst float64 `json:"pointsAgainst"`
		} `json:"overall"`
	} `json:"record"`
	Roster espnRoster `json:"roster"`
}

// DisplayName prefers the live (location, nickname) pair over cached names.
func (t espnTeam) DisplayName() string {
	if t.Location != "" || t.Nickname != "" {
		name := t.Location
		if t.Nickname != "" {
			if name != "" {
				name += " "
			}
			name += t.Nickname
		}
		return name
	}
	return t.Name
}

type espnMatchupSide struct {
	TeamID         int     `json:"teamId"`
	TotalPoints    float64 `json:"totalPoints"`
	TotalPointsLive float64 `json:"totalPointsLive"`
	RosterForCurrentScoringPeriod espnRoster `json:"rosterForCurrentScoringPeriod"`
}

type espnScheduleEntry struct {
	ID              int             `json:"id"`
	MatchupPeriodID int             `json:"matchupPeriodId"`
	Winner          string          `json:"winner"`
	Home            espnMatchupSide `json:"home"`
	Away            espnMatchupSide `json:"away"`
}

// ESPNLeagueResponse is the combined league payload across views.
type ESPNLeagueResponse struct {
	ID       int `json:"id"`
	SeasonID int `json:"seasonId"`
	Status   struct {
		CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
		LatestScoringPeriod  int `json:"latestScoringPeriod"`
	} `json:"status"`
	Settings struct {
		Name            string `json:"name"`
		ScoringSettings struct {
			ScoringItems []struct {
				StatID int     `json:"statId"`
				Points float64 `json:"points"`
			} `json:"scoringItems"`
		} `json:"scoringSettings"`
		RosterSettings struct {
			LineupSlotCounts map[string]int `json:"lineupSlotCounts"`
		} `json:"rosterSettings"`
	} `json:"settings"`
	Teams    []espnTeam          `json:"teams"`
	Schedule []espnScheduleEntry `json:"schedule"`
	Members  []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"members"`
}

type espnPlayersResponse struct {
	Players []struct {
		Player       espnPlayer `json:"player"`
		OnTeamID     int        `json:"onTeamId"`
		Status       string     `json:"status"`
	} `json:"players"`
}

// espnProScheduleResponse is the season-level pro schedule payload. Each
// game appears once per participating team.
type espnProScheduleResponse struct {
	Settings struct {
		ProTeams []struct {
			ID                      int                      `json:"id"`
			ProGamesByScoringPeriod map[string][]espnProGame `json:"proGamesByScoringPeriod"`
		} `json:"proTeams"`
	} `json:"settings"`
}

type espnProGame struct {
	ID              int64 `json:"id"`
	Date            int64 `json:"date"`
	HomeProTeamID   int   `json:"homeProTeamId"`
	AwayProTeamID   int   `json:"awayProTeamId"`
	ScoringPeriodID int   `json:"scoringPeriodId"`
}

type espnTransactionsResponse struct {
	Transactions []struct {
		ID              string `json:"id"`
		Type            string `json:"type"`
		Status          string `json:"status"`
		TeamID          int    `json:"teamId"`
		ProposedDate    int64  `json:"proposedDate"`
		ProcessDate     int64  `json:"processDate"`
		Items           []struct {
			PlayerID   int    `json:"playerId"`
			Type       string `json:"type"` // "ADD", "DROP", "TRADE"
			FromTeamID int    `json:"fromTeamId"`
			ToTeamID   int    `json:"toTeamId"`
		} `json:"items"`
	} `json:"transactions"`
}
