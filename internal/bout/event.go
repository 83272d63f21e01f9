package bout

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventScoreChanged   EventKind = "score_changed"
	EventPenaltyChanged EventKind = "penalty_changed"
	EventTimeTick       EventKind = "time_tick"
	EventBreakTick      EventKind = "break_tick"
	EventStateChanged   EventKind = "state_changed"
	EventRoundEnded     EventKind = "round_ended"
	EventMatchEnded     EventKind = "match_ended"
	EventJudgeInput     EventKind = "judge_input"
)

// JudgeDisplayTTL is how long a judge input stays on the board.
const JudgeDisplayTTL = 2 * time.Second

type Event struct {
	Kind      EventKind `json:"kind"`
	BoutID    uuid.UUID `json:"bout_id"`
	Side      Side      `json:"side,omitempty"`
	Value     int       `json:"value"`
	Round     int       `json:"round,omitempty"`
	State     StateKind `json:"state,omitempty"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	Judge     int       `json:"judge"`
	Text      string    `json:"text,omitempty"`
	At        time.Time `json:"at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier receives engine notifications. Notify is called while the engine
// lock is held, so implementations must not call back into the engine.
type Notifier interface {
	Notify(evt Event)
}

type NotifierFunc func(evt Event)

func (fn NotifierFunc) Notify(evt Event) {
	fn(evt)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
