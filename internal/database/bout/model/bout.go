package model

import (
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeFree       Mode = "free"
	ModeTournament Mode = "tournament"
)

func NewBout(mode Mode) Bout {
	return Bout{ID: uuid.New(), Mode: mode, CreatedAt: time.Now()}
}

// Bout is the archived record of one finished bout.
type Bout struct {
	ID           uuid.UUID `json:"-"`
	EngineID     uuid.UUID `json:"engineID"`
	Mode         Mode      `json:"mode"`
	TournamentID string    `json:"tournamentID,omitempty"`
	MatchID      string    `json:"matchID,omitempty"`
	Category     string    `json:"category,omitempty"`

	BlueName    string   `json:"blueName"`
	RedName     string   `json:"redName"`
	BlueScore   int      `json:"blueScore"`
	RedScore    int      `json:"redScore"`
	BlueGamJeom int      `json:"blueGamJeom"`
	RedGamJeom  int      `json:"redGamJeom"`
	Outcomes    []string `json:"outcomes"`
	Winner      string   `json:"winner"`

	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}
