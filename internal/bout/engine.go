package bout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tkwin-games/tkwin/internal/clock"
	"github.com/tkwin-games/tkwin/internal/logging"
	"go.uber.org/zap"
)

type Config struct {
	Rules    Rules
	Clock    clock.Clock
	Notifier Notifier
	// number of physical controllers, a single controller skips consensus
	Controllers int
	// called once after the bout ends, outside of the engine lock
	DoneFn func(result Result)
}

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	ID             uuid.UUID     `json:"id"`
	State          StateKind     `json:"state"`
	Round          int           `json:"round"`
	MaxRounds      int           `json:"max_rounds"`
	TimeRemaining  int           `json:"time_remaining"`
	BreakRemaining int           `json:"break_remaining"`
	BlueScore      int           `json:"blue_score"`
	RedScore       int           `json:"red_score"`
	BlueGamJeom    int           `json:"blue_gam_jeom"`
	RedGamJeom     int           `json:"red_gam_jeom"`
	Pending        Modifications `json:"pending"`
	Outcomes       []Outcome     `json:"outcomes"`
	Winner         Side          `json:"winner,omitempty"`
	SuddenDeath    bool          `json:"sudden_death"`
}

// Result is the final record of a finished bout. Points and penalties are
// summed over every round.
type Result struct {
	BoutID      uuid.UUID `json:"bout_id"`
	BlueScore   int       `json:"blue_score"`
	RedScore    int       `json:"red_score"`
	BlueGamJeom int       `json:"blue_gam_jeom"`
	RedGamJeom  int       `json:"red_gam_jeom"`
	Outcomes    []Outcome `json:"outcomes"`
	Winner      Side      `json:"winner"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

func NewEngine(ctx context.Context, config Config) (*Engine, error) {
	if err := config.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}

	if config.Clock == nil {
		config.Clock = clock.NewReal()
	}

	if config.Notifier == nil {
		config.Notifier = nopNotifier{}
	}

	return &Engine{
		ID:          uuid.New(),
		rules:       config.Rules,
		clock:       config.Clock,
		notifier:    config.Notifier,
		doneFn:      config.DoneFn,
		controllers: config.Controllers,
		logger:      logging.FromContext(ctx).Named("bout.Engine"),
		state:       StateReady,
		roundNumber: 1,
		maxRounds:   config.Rules.MaxRounds,
		currentTime: config.Rules.RoundTime,
		consensus:   NewTable(ConsensusWindow, ConsensusQuorum),
	}, nil
}

// Engine is the scoring state machine of a single bout. Every operation is
// serialized by one lock, operations that are not valid in the current state
// return false and change nothing.
type Engine struct {
	mtx sync.Mutex

	ID          uuid.UUID
	rules       Rules
	clock       clock.Clock
	notifier    Notifier
	doneFn      func(result Result)
	controllers int
	logger      *zap.SugaredLogger

	state       StateKind
	roundNumber int
	maxRounds   int
	currentTime int
	breakTime   int

	blueScore   int
	redScore    int
	blueGamJeom int
	redGamJeom  int

	blueTotal   int
	redTotal    int
	blueGJTotal int
	redGJTotal  int

	pending   Modifications
	outcomes  []Outcome
	winner    Side
	consensus *Table

	timer    clock.Task
	timerGen uint64
	closed   bool
	after    []func()

	startedAt  time.Time
	finishedAt time.Time
}

// unlock releases the engine lock and then runs deferred callbacks.
func (e *Engine) unlock() {
	fns := e.after
	e.after = nil
	e.mtx.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (e *Engine) SetControllers(n int) {
	e.mtx.Lock()
	defer e.unlock()
	e.controllers = n
}

// StartRound starts the clock from READY or resumes it from PAUSED,
// discarding pending corrections.
func (e *Engine) StartRound() bool {
	e.mtx.Lock()
	defer e.unlock()

	switch e.state {
	case StateReady:
		if e.startedAt.IsZero() {
			e.startedAt = e.clock.Now()
		}
	case StatePaused:
		e.pending = Modifications{}
	default:
		return false
	}

	e.resumeLocked()
	return true
}

func (e *Engine) PauseRound() bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StateRunning {
		return false
	}

	e.stopTimer()
	e.pending = Modifications{}
	e.setState(StatePaused)
	return true
}

func (e *Engine) EndRound() bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StateRunning {
		return false
	}

	e.endRoundLocked()
	return true
}

// NextRound skips the remainder of a break.
func (e *Engine) NextRound() bool {
	e.mtx.Lock()
	defer e.unlock()

	return e.nextRoundLocked()
}

// AddScore adds signed points to the current round. A negative value takes
// points back, the score never drops below zero.
func (e *Engine) AddScore(side Side, points int) bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StateRunning || !side.Valid() || points == 0 {
		return false
	}

	e.addPoints(side, points)
	e.checkInstantWin()
	return true
}

// ApplyGamJeom records a penalty against side and awards one point to the
// opponent.
func (e *Engine) ApplyGamJeom(side Side) bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StateRunning || !side.Valid() {
		return false
	}

	e.applyGamJeom(side)
	e.checkInstantWin()
	return true
}

// JudgeInput processes one judge action. Inputs outside of RUNNING and
// malformed inputs are dropped.
func (e *Engine) JudgeInput(evt JudgeEvent) bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StateRunning {
		return false
	}

	if evt.Judge < 0 || evt.Judge >= e.rules.JudgesCount || !evt.Side.Valid() || !evt.Action.Valid() {
		e.logger.Debugf("drop malformed judge input %+v", evt)
		return false
	}

	if evt.At.IsZero() {
		evt.At = e.clock.Now()
	}

	e.emit(Event{
		Kind:      EventJudgeInput,
		Side:      evt.Side,
		Judge:     evt.Judge,
		Text:      evt.Action.String(),
		At:        evt.At,
		ExpiresAt: evt.At.Add(JudgeDisplayTTL),
	})

	var decisions []Decision
	if e.controllers == 1 {
		decisions = []Decision{{Side: evt.Side, Action: evt.Action, Judges: []int{evt.Judge}}}
	} else {
		decisions = e.consensus.Reconcile([]JudgeEvent{evt})
	}

	for _, d := range decisions {
		if e.state != StateRunning {
			break
		}
		e.logger.Debugf("judges %v agreed on %s for %s", d.Judges, d.Action, d.Side)
		if d.Action.Penalty {
			e.applyGamJeom(d.Side)
		} else {
			e.addPoints(d.Side, d.Action.Points)
		}
		e.checkInstantWin()
	}

	return true
}

// ModifyScore adds delta to the pending score correction of side.
func (e *Engine) ModifyScore(side Side, delta int) bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StatePaused || !side.Valid() {
		return false
	}

	if side == SideBlue {
		e.pending.BlueScore += delta
	} else {
		e.pending.RedScore += delta
	}
	return true
}

// ModifyPenalty adds delta to the pending penalty correction of side. Unlike
// ApplyGamJeom it never changes the opponent's score.
func (e *Engine) ModifyPenalty(side Side, kind PenaltyKind, delta int) bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StatePaused || !side.Valid() || kind != PenaltyGamJeom {
		return false
	}

	if side == SideBlue {
		e.pending.BlueGamJeom += delta
	} else {
		e.pending.RedGamJeom += delta
	}
	return true
}

// ApplyModifications commits pending corrections and resumes the round.
func (e *Engine) ApplyModifications() bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StatePaused {
		return false
	}

	p := e.pending
	e.pending = Modifications{}
	if p.BlueScore != 0 {
		e.blueScore = nonNegative(e.blueScore + p.BlueScore)
		e.emit(Event{Kind: EventScoreChanged, Side: SideBlue, Value: e.blueScore})
	}
	if p.RedScore != 0 {
		e.redScore = nonNegative(e.redScore + p.RedScore)
		e.emit(Event{Kind: EventScoreChanged, Side: SideRed, Value: e.redScore})
	}
	if p.BlueGamJeom != 0 {
		e.blueGamJeom = nonNegative(e.blueGamJeom + p.BlueGamJeom)
		e.emit(Event{Kind: EventPenaltyChanged, Side: SideBlue, Value: e.blueGamJeom})
	}
	if p.RedGamJeom != 0 {
		e.redGamJeom = nonNegative(e.redGamJeom + p.RedGamJeom)
		e.emit(Event{Kind: EventPenaltyChanged, Side: SideRed, Value: e.redGamJeom})
	}

	e.resumeLocked()
	e.checkInstantWin()
	return true
}

// CancelModifications discards pending corrections, the round stays paused.
func (e *Engine) CancelModifications() bool {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StatePaused {
		return false
	}

	e.pending = Modifications{}
	return true
}

func (e *Engine) State() StateKind {
	e.mtx.Lock()
	defer e.unlock()
	return e.state
}

func (e *Engine) Snapshot() Snapshot {
	e.mtx.Lock()
	defer e.unlock()

	outcomes := make([]Outcome, len(e.outcomes))
	copy(outcomes, e.outcomes)
	return Snapshot{
		ID:             e.ID,
		State:          e.state,
		Round:          e.roundNumber,
		MaxRounds:      e.maxRounds,
		TimeRemaining:  e.currentTime,
		BreakRemaining: e.breakTime,
		BlueScore:      e.blueScore,
		RedScore:       e.redScore,
		BlueGamJeom:    e.blueGamJeom,
		RedGamJeom:     e.redGamJeom,
		Pending:        e.pending,
		Outcomes:       outcomes,
		Winner:         e.winner,
		SuddenDeath:    e.isSuddenDeath(),
	}
}

// Result returns the final record once the bout has ended.
func (e *Engine) Result() (Result, bool) {
	e.mtx.Lock()
	defer e.unlock()

	if e.state != StateMatchEnded {
		return Result{}, false
	}
	return e.result(), true
}

// Close stops the running timer and waits for timer goroutines to exit.
func (e *Engine) Close() {
	e.mtx.Lock()
	e.closed = true
	e.stopTimer()
	e.unlock()

	if w, ok := e.clock.(interface{ Wait() }); ok {
		w.Wait()
	}
}

func (e *Engine) resumeLocked() {
	e.setState(StateRunning)
	e.startTimer(e.roundTick)
}

func (e *Engine) roundTick() {
	if e.state != StateRunning {
		return
	}

	e.currentTime--
	if e.currentTime < 0 {
		e.currentTime = 0
	}
	e.emit(Event{Kind: EventTimeTick, Value: e.currentTime})

	if e.currentTime == 0 {
		e.endRoundLocked()
	}
}

func (e *Engine) breakTick() {
	if e.state != StateBreak {
		return
	}

	e.breakTime--
	if e.breakTime < 0 {
		e.breakTime = 0
	}
	e.emit(Event{Kind: EventBreakTick, Value: e.breakTime})

	if e.breakTime == 0 {
		e.nextRoundLocked()
	}
}

func (e *Engine) startTimer(fn func()) {
	e.stopTimer()
	if e.closed {
		return
	}
	gen := e.timerGen
	e.timer = e.clock.Every(time.Second, func() {
		e.mtx.Lock()
		defer e.unlock()
		if e.closed || e.timerGen != gen {
			return
		}
		fn()
	})
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
}

func (e *Engine) endRoundLocked() {
	e.stopTimer()

	outcome := OutcomeDraw
	switch {
	case e.blueScore > e.redScore:
		outcome = OutcomeBlue
	case e.redScore > e.blueScore:
		outcome = OutcomeRed
	}

	e.outcomes = append(e.outcomes, outcome)
	e.blueTotal += e.blueScore
	e.redTotal += e.redScore
	e.blueGJTotal += e.blueGamJeom
	e.redGJTotal += e.redGamJeom
	e.consensus.Reset()

	e.setState(StateRoundEnded)
	e.emit(Event{Kind: EventRoundEnded, Round: e.roundNumber, Outcome: outcome})

	if len(e.outcomes) >= e.maxRounds {
		var blueWins, redWins int
		for _, o := range e.outcomes {
			switch o {
			case OutcomeBlue:
				blueWins++
			case OutcomeRed:
				redWins++
			}
		}

		switch {
		case blueWins > redWins:
			e.endMatchLocked(SideBlue)
			return
		case redWins > blueWins:
			e.endMatchLocked(SideRed)
			return
		}

		e.maxRounds++
		e.logger.Infof("rounds tied %d-%d, sudden death round %d added", blueWins, redWins, e.maxRounds)
	}

	e.startBreakLocked()
}

func (e *Engine) endMatchLocked(winner Side) {
	e.winner = winner
	e.finishedAt = e.clock.Now()
	e.setState(StateMatchEnded)
	e.emit(Event{Kind: EventMatchEnded, Side: winner, Round: e.roundNumber})
	e.logger.Infof("bout %s won by %s after %d rounds", e.ID, winner, e.roundNumber)

	if e.doneFn != nil {
		result := e.result()
		done := e.doneFn
		e.after = append(e.after, func() { done(result) })
	}
}

func (e *Engine) startBreakLocked() {
	e.breakTime = e.rules.BreakTime
	e.setState(StateBreak)
	e.emit(Event{Kind: EventBreakTick, Value: e.breakTime})
	e.startTimer(e.breakTick)
}

func (e *Engine) nextRoundLocked() bool {
	if e.state != StateBreak || e.roundNumber >= e.maxRounds {
		return false
	}

	e.stopTimer()
	e.roundNumber++
	e.currentTime = e.rules.RoundTime
	e.breakTime = 0
	e.blueScore, e.redScore = 0, 0
	e.blueGamJeom, e.redGamJeom = 0, 0
	e.pending = Modifications{}

	e.emit(Event{Kind: EventScoreChanged, Side: SideBlue})
	e.emit(Event{Kind: EventScoreChanged, Side: SideRed})
	e.emit(Event{Kind: EventPenaltyChanged, Side: SideBlue})
	e.emit(Event{Kind: EventPenaltyChanged, Side: SideRed})
	e.emit(Event{Kind: EventTimeTick, Value: e.currentTime})

	if e.rules.AutoStartNextRound {
		e.resumeLocked()
	} else {
		e.setState(StateReady)
	}
	return true
}

func (e *Engine) addPoints(side Side, points int) {
	if side == SideBlue {
		e.blueScore = nonNegative(e.blueScore + points)
		e.emit(Event{Kind: EventScoreChanged, Side: side, Value: e.blueScore})
		return
	}
	e.redScore = nonNegative(e.redScore + points)
	e.emit(Event{Kind: EventScoreChanged, Side: side, Value: e.redScore})
}

func (e *Engine) applyGamJeom(side Side) {
	if side == SideBlue {
		e.blueGamJeom++
		e.emit(Event{Kind: EventPenaltyChanged, Side: side, Value: e.blueGamJeom})
	} else {
		e.redGamJeom++
		e.emit(Event{Kind: EventPenaltyChanged, Side: side, Value: e.redGamJeom})
	}
	e.addPoints(side.Opponent(), 1)
}

// checkInstantWin ends the round on the penalty threshold, or on the
// sudden-death point target.
func (e *Engine) checkInstantWin() {
	if e.state != StateRunning {
		return
	}

	if th := e.rules.InstantWinGamJeom; th > 0 && (e.blueGamJeom >= th || e.redGamJeom >= th) {
		e.logger.Infof("gam-jeom limit reached, blue %d red %d", e.blueGamJeom, e.redGamJeom)
		e.endRoundLocked()
		return
	}

	if sd := e.rules.SuddenDeathPoints; e.isSuddenDeath() && (e.blueScore >= sd || e.redScore >= sd) {
		e.endRoundLocked()
	}
}

func (e *Engine) isSuddenDeath() bool {
	return e.roundNumber > e.rules.MaxRounds
}

func (e *Engine) result() Result {
	outcomes := make([]Outcome, len(e.outcomes))
	copy(outcomes, e.outcomes)
	return Result{
		BoutID:      e.ID,
		BlueScore:   e.blueTotal,
		RedScore:    e.redTotal,
		BlueGamJeom: e.blueGJTotal,
		RedGamJeom:  e.redGJTotal,
		Outcomes:    outcomes,
		Winner:      e.winner,
		StartedAt:   e.startedAt,
		FinishedAt:  e.finishedAt,
	}
}

func (e *Engine) setState(kind StateKind) {
	e.state = kind
	e.emit(Event{Kind: EventStateChanged, State: kind, Round: e.roundNumber})
}

func (e *Engine) emit(evt Event) {
	evt.BoutID = e.ID
	if evt.At.IsZero() {
		evt.At = e.clock.Now()
	}
	e.notifier.Notify(evt)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
