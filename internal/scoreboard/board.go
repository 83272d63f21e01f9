package scoreboard

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tkwin-games/tkwin/internal/bout"
)

type JudgeDisplay struct {
	Judge     int       `json:"judge"`
	Side      bout.Side `json:"side"`
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Corner is the identity shown for one side of the mat.
type Corner struct {
	Name    string `json:"name"`
	Club    string `json:"club,omitempty"`
	Country string `json:"country,omitempty"`
}

type View struct {
	BoutID         uuid.UUID      `json:"bout_id"`
	MatchID        string         `json:"match_id,omitempty"`
	Category       string         `json:"category,omitempty"`
	Blue           Corner         `json:"blue"`
	Red            Corner         `json:"red"`
	State          bout.StateKind `json:"state"`
	Round          int            `json:"round"`
	TimeRemaining  int            `json:"time_remaining"`
	BreakRemaining int            `json:"break_remaining"`
	BlueScore      int            `json:"blue_score"`
	RedScore       int            `json:"red_score"`
	BlueGamJeom    int            `json:"blue_gam_jeom"`
	RedGamJeom     int            `json:"red_gam_jeom"`
	Outcomes       []bout.Outcome `json:"outcomes"`
	Winner         bout.Side      `json:"winner,omitempty"`
	Judges         []JudgeDisplay `json:"judges"`
}

func NewBoard() *Board {
	return &Board{judges: map[int]JudgeDisplay{}}
}

var _ bout.Notifier = (*Board)(nil)

// Board keeps the latest displayable state of the bout on the mat.
type Board struct {
	mtx    sync.RWMutex
	view   View
	judges map[int]JudgeDisplay
}

// Reset shows a new bout, starting from the engine snapshot.
func (b *Board) Reset(blue, red Corner, matchID, category string, s bout.Snapshot) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	b.view = View{
		BoutID:         s.ID,
		MatchID:        matchID,
		Category:       category,
		Blue:           blue,
		Red:            red,
		State:          s.State,
		Round:          s.Round,
		TimeRemaining:  s.TimeRemaining,
		BreakRemaining: s.BreakRemaining,
		BlueScore:      s.BlueScore,
		RedScore:       s.RedScore,
		BlueGamJeom:    s.BlueGamJeom,
		RedGamJeom:     s.RedGamJeom,
		Outcomes:       append([]bout.Outcome(nil), s.Outcomes...),
		Winner:         s.Winner,
	}
	b.judges = map[int]JudgeDisplay{}
}

func (b *Board) Notify(evt bout.Event) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.view.BoutID != uuid.Nil && evt.BoutID != b.view.BoutID {
		return
	}

	switch evt.Kind {
	case bout.EventScoreChanged:
		if evt.Side == bout.SideBlue {
			b.view.BlueScore = evt.Value
		} else {
			b.view.RedScore = evt.Value
		}
	case bout.EventPenaltyChanged:
		if evt.Side == bout.SideBlue {
			b.view.BlueGamJeom = evt.Value
		} else {
			b.view.RedGamJeom = evt.Value
		}
	case bout.EventTimeTick:
		b.view.TimeRemaining = evt.Value
	case bout.EventBreakTick:
		b.view.BreakRemaining = evt.Value
	case bout.EventStateChanged:
		b.view.State = evt.State
		b.view.Round = evt.Round
	case bout.EventRoundEnded:
		b.view.Outcomes = append(b.view.Outcomes, evt.Outcome)
	case bout.EventMatchEnded:
		b.view.Winner = evt.Side
	case bout.EventJudgeInput:
		b.judges[evt.Judge] = JudgeDisplay{
			Judge:     evt.Judge,
			Side:      evt.Side,
			Text:      evt.Text,
			ExpiresAt: evt.ExpiresAt,
		}
	}
}

// View returns the board as of now, judge inputs past their expiry are
// dropped.
func (b *Board) View(now time.Time) View {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	v := b.view
	v.Outcomes = append([]bout.Outcome(nil), b.view.Outcomes...)
	for judge, d := range b.judges {
		if !now.Before(d.ExpiresAt) {
			delete(b.judges, judge)
			continue
		}
		v.Judges = append(v.Judges, d)
	}
	sort.Slice(v.Judges, func(i, j int) bool {
		return v.Judges[i].Judge < v.Judges[j].Judge
	})
	return v
}
