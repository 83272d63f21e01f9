package model

import (
	"time"
)

type Player struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Club       string  `json:"club"`
	Country    string  `json:"country"`
	Category   string  `json:"category"`
	Weight     float64 `json:"weight,omitempty"`
	Age        int     `json:"age,omitempty"`
	Gender     string  `json:"gender,omitempty"`
	Belt       string  `json:"belt,omitempty"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Eliminated bool    `json:"eliminated"`
	Order      int     `json:"order"`

	PointsScored   int `json:"points_scored"`
	PointsReceived int `json:"points_received"`
}

type Match struct {
	ID          string    `json:"match_id"`
	Category    string    `json:"category"`
	Round       int       `json:"round"`
	Number      int       `json:"match_number"`
	BlueID      string    `json:"blue_player"`
	RedID       string    `json:"red_player"`
	BlueScore   int       `json:"blue_score"`
	RedScore    int       `json:"red_score"`
	BlueGamJeom int       `json:"blue_gam_jeom"`
	RedGamJeom  int       `json:"red_gam_jeom"`
	Outcomes    []string  `json:"round_outcomes,omitempty"`
	Winner      string    `json:"winner,omitempty"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at"`
}

// Bye records the contestant that skipped a round of a category.
type Bye struct {
	Round    int    `json:"round"`
	PlayerID string `json:"player_id"`
}

// Snapshot is the persisted form of a whole tournament.
type Snapshot struct {
	Name          string              `json:"name"`
	Date          string              `json:"date"`
	Location      string              `json:"location"`
	ID            string              `json:"tournament_id"`
	CurrentRound  map[string]int      `json:"current_round"`
	Players       map[string]Player   `json:"players"`
	Matches       map[string]Match    `json:"matches"`
	Categories    map[string][]string `json:"categories"`
	Rounds        map[int][]string    `json:"rounds"`
	Byes          map[string]Bye      `json:"byes"`
	Champions     map[string]string   `json:"champions"`
	CategoryOrder map[string]int      `json:"category_order"`
	SavedAt       time.Time           `json:"saved_at"`
}

type Summary struct {
	ID       string    `json:"tournament_id"`
	Name     string    `json:"name"`
	Date     string    `json:"date"`
	Location string    `json:"location"`
	Players  int       `json:"players"`
	Matches  int       `json:"matches"`
	SavedAt  time.Time `json:"saved_at"`
}

func (s Snapshot) Summary() Summary {
	return Summary{
		ID:       s.ID,
		Name:     s.Name,
		Date:     s.Date,
		Location: s.Location,
		Players:  len(s.Players),
		Matches:  len(s.Matches),
		SavedAt:  s.SavedAt,
	}
}
