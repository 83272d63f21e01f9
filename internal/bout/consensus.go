package bout

import (
	"sort"
	"time"
)

const (
	ConsensusWindow = 2 * time.Second
	ConsensusQuorum = 2
)

type JudgeEvent struct {
	Judge  int
	Side   Side
	Action Action
	At     time.Time
}

// Decision is an action agreed by enough judges to be applied once.
type Decision struct {
	Side   Side
	Action Action
	Judges []int
}

type consensusKey struct {
	side   Side
	action Action
}

type agreement struct {
	last   time.Time
	judges map[int]struct{}
}

func NewTable(window time.Duration, quorum int) *Table {
	return &Table{window: window, quorum: quorum, pending: map[consensusKey]*agreement{}}
}

// Table tracks pending judge agreements keyed by side and action. An
// agreement lapses when no judge contributes to it for longer than window.
type Table struct {
	window  time.Duration
	quorum  int
	pending map[consensusKey]*agreement
}

// Reconcile feeds events in order and returns the decisions they complete.
func (t *Table) Reconcile(events []JudgeEvent) []Decision {
	var decisions []Decision
	for _, evt := range events {
		if evt.Judge < 0 || !evt.Side.Valid() || !evt.Action.Valid() {
			continue
		}

		key := consensusKey{side: evt.Side, action: evt.Action}
		a, ok := t.pending[key]
		if !ok || evt.At.Sub(a.last) > t.window {
			a = &agreement{judges: map[int]struct{}{}}
			t.pending[key] = a
		}

		a.last = evt.At
		a.judges[evt.Judge] = struct{}{}
		if len(a.judges) < t.quorum {
			continue
		}

		judges := make([]int, 0, len(a.judges))
		for j := range a.judges {
			judges = append(judges, j)
		}
		sort.Ints(judges)
		decisions = append(decisions, Decision{Side: evt.Side, Action: evt.Action, Judges: judges})
		delete(t.pending, key)
	}

	return decisions
}

// Pending returns the number of open agreements.
func (t *Table) Pending() int {
	return len(t.pending)
}

func (t *Table) Reset() {
	t.pending = map[consensusKey]*agreement{}
}
