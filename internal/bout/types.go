package bout

import (
	"fmt"
	"strconv"
)

type Side string

const (
	SideBlue Side = "blue"
	SideRed  Side = "red"
)

func (s Side) Valid() bool {
	return s == SideBlue || s == SideRed
}

func (s Side) Opponent() Side {
	if s == SideBlue {
		return SideRed
	}
	return SideBlue
}

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBlue, SideRed:
		return Side(s), nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// Outcome is the result of a single round.
type Outcome string

const (
	OutcomeBlue Outcome = "blue"
	OutcomeRed  Outcome = "red"
	OutcomeDraw Outcome = "draw"
)

type StateKind uint8

const (
	StateReady StateKind = iota + 1
	StateRunning
	StatePaused
	StateRoundEnded
	StateBreak
	StateMatchEnded
)

var stateNames = map[StateKind]string{
	StateReady:      "ready",
	StateRunning:    "running",
	StatePaused:     "paused",
	StateRoundEnded: "round_ended",
	StateBreak:      "break",
	StateMatchEnded: "match_ended",
}

func (s StateKind) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s StateKind) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *StateKind) UnmarshalText(text []byte) error {
	if string(text) == "unknown" {
		*s = 0
		return nil
	}
	for kind, name := range stateNames {
		if name == string(text) {
			*s = kind
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Action is a judge or operator scoring action: 1 to 5 points, or a gam-jeom.
type Action struct {
	Points  int  `json:"points,omitempty"`
	Penalty bool `json:"penalty,omitempty"`
}

var ActionGamJeom = Action{Penalty: true}

func ActionPoints(n int) Action {
	return Action{Points: n}
}

func (a Action) Valid() bool {
	if a.Penalty {
		return a.Points == 0
	}
	return a.Points >= 1 && a.Points <= 5
}

func (a Action) String() string {
	if a.Penalty {
		return "Gam-jeom"
	}
	return "+" + strconv.Itoa(a.Points)
}

// ParseAction accepts "1".."5" or "p"/"gamjeom".
func ParseAction(s string) (Action, error) {
	switch s {
	case "p", "gamjeom", "gam-jeom":
		return ActionGamJeom, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Action{}, fmt.Errorf("parse action %q: %w", s, err)
	}
	a := ActionPoints(n)
	if !a.Valid() {
		return Action{}, fmt.Errorf("points out of range: %d", n)
	}
	return a, nil
}

type PenaltyKind uint8

const (
	PenaltyGamJeom PenaltyKind = iota + 1
)

// Modifications are the pending manual corrections collected while paused.
type Modifications struct {
	BlueScore   int `json:"blue_score"`
	RedScore    int `json:"red_score"`
	BlueGamJeom int `json:"blue_gam_jeom"`
	RedGamJeom  int `json:"red_gam_jeom"`
}

func (m Modifications) IsZero() bool {
	return m == Modifications{}
}
