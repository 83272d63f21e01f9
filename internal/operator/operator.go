package operator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/clock"
	boutmodel "github.com/tkwin-games/tkwin/internal/database/bout/model"
	"github.com/tkwin-games/tkwin/internal/logging"
	"github.com/tkwin-games/tkwin/internal/scoreboard"
	"github.com/tkwin-games/tkwin/internal/tournament"
	"go.uber.org/zap"
)

var (
	ErrNoBout          = fmt.Errorf("no bout on the mat")
	ErrBoutInProgress  = fmt.Errorf("bout in progress")
	ErrNoPendingMatch  = fmt.Errorf("no pending match")
	ErrNotAllowed      = fmt.Errorf("not allowed")
	ErrTournamentMoved = fmt.Errorf("active tournament changed")
)

// Archive stores finished bouts.
type Archive interface {
	Add(b boutmodel.Bout) error
	FetchAll() ([]boutmodel.Bout, error)
	FetchByMatch(matchID string) ([]boutmodel.Bout, error)
}

type announcer interface {
	SetBout(title, blue, red string)
}

type viewPublisher interface {
	PublishView(v scoreboard.View)
}

type Params struct {
	Rules       bout.Rules
	Tournaments *tournament.Manager
	Archive     Archive
	Board       *scoreboard.Board
	// receives every engine notification, the board included
	Notifier  bout.Notifier
	Announcer announcer
	Displays  viewPublisher
	// nil gives every engine its own wall clock
	Clock clock.Clock
}

func New(ctx context.Context, params Params) (*Operator, error) {
	if err := params.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}
	if params.Tournaments == nil || params.Archive == nil || params.Board == nil {
		return nil, fmt.Errorf("tournaments, archive and board are required")
	}
	if params.Notifier == nil {
		params.Notifier = params.Board
	}

	return &Operator{
		ctx:    ctx,
		params: params,
		logger: logging.FromContext(ctx).Named("operator.Operator"),
	}, nil
}

// Operator drives the mat: it puts bouts on it, forwards commands and judge
// input to the engine and records results.
type Operator struct {
	mtx         sync.Mutex
	ctx         context.Context
	params      Params
	controllers int
	current     *activeBout
	last        *bout.Result
	logger      *zap.SugaredLogger
}

type activeBout struct {
	engine       *bout.Engine
	mode         boutmodel.Mode
	tournamentID string
	matchID      string
	category     string
	blue         scoreboard.Corner
	red          scoreboard.Corner
}

func (o *Operator) now() time.Time {
	if o.params.Clock != nil {
		return o.params.Clock.Now()
	}
	return time.Now()
}

// SetControllers records how many judge controllers are attached.
func (o *Operator) SetControllers(n int) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.controllers = n
	if o.current != nil {
		o.current.engine.SetControllers(n)
	}
}

// Engine returns the engine of the bout on the mat.
func (o *Operator) Engine() (*bout.Engine, error) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if o.current == nil {
		return nil, ErrNoBout
	}
	return o.current.engine, nil
}

// LastResult returns the result of the most recently finished bout.
func (o *Operator) LastResult() (bout.Result, bool) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if o.last == nil {
		return bout.Result{}, false
	}
	return *o.last, true
}

// JudgeInput forwards controller input to the bout on the mat.
func (o *Operator) JudgeInput(evt bout.JudgeEvent) {
	engine, err := o.Engine()
	if err != nil {
		o.logger.Debugf("drop judge input, %v", err)
		return
	}
	engine.JudgeInput(evt)
}

// StartFreeBout puts a bout outside of any tournament on the mat.
func (o *Operator) StartFreeBout(blue, red string) error {
	if blue == "" || red == "" {
		return fmt.Errorf("%w: both corners need a name", tournament.ErrMissingField)
	}

	return o.load(&activeBout{
		mode: boutmodel.ModeFree,
		blue: scoreboard.Corner{Name: blue},
		red:  scoreboard.Corner{Name: red},
	})
}

// LoadNextMatch puts the next pending match of category on the mat, any
// category when empty.
func (o *Operator) LoadNextMatch(category string) (tournament.Match, error) {
	var a activeBout
	var match tournament.Match
	err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		m, ok := t.NextMatch(category)
		if !ok {
			if category == "" {
				return ErrNoPendingMatch
			}
			return fmt.Errorf("%w in %s", ErrNoPendingMatch, category)
		}

		blue, ok := t.Player(m.BlueID)
		if !ok {
			return fmt.Errorf("%w: match %s references unknown player %s", tournament.ErrInvariant, m.ID, m.BlueID)
		}
		red, ok := t.Player(m.RedID)
		if !ok {
			return fmt.Errorf("%w: match %s references unknown player %s", tournament.ErrInvariant, m.ID, m.RedID)
		}

		match = m
		a = activeBout{
			mode:         boutmodel.ModeTournament,
			tournamentID: t.ID,
			matchID:      m.ID,
			category:     m.Category,
			blue:         corner(blue),
			red:          corner(red),
		}
		return nil
	})
	if err != nil {
		return tournament.Match{}, err
	}

	if err := o.load(&a); err != nil {
		return tournament.Match{}, err
	}
	return match, nil
}

// Abort removes the bout from the mat without recording a result.
func (o *Operator) Abort() error {
	o.mtx.Lock()
	prev := o.current
	o.current = nil
	o.mtx.Unlock()

	if prev == nil {
		return ErrNoBout
	}
	prev.engine.Close()
	o.logger.Warnf("bout %s aborted", prev.engine.ID)
	return nil
}

// Close stops the engine of the bout on the mat.
func (o *Operator) Close() {
	o.mtx.Lock()
	prev := o.current
	o.current = nil
	o.mtx.Unlock()

	if prev != nil {
		prev.engine.Close()
	}
}

func (o *Operator) load(a *activeBout) error {
	o.mtx.Lock()
	prev := o.current
	if prev != nil {
		if _, done := prev.engine.Result(); !done {
			o.mtx.Unlock()
			return fmt.Errorf("%w: %s", ErrBoutInProgress, prev.engine.ID)
		}
	}
	// the previous engine may still be finishing, which needs the lock
	defer func() {
		if prev != nil {
			prev.engine.Close()
		}
	}()
	defer o.mtx.Unlock()

	engine, err := bout.NewEngine(o.ctx, bout.Config{
		Rules:       o.params.Rules,
		Clock:       o.params.Clock,
		Notifier:    o.params.Notifier,
		Controllers: o.controllers,
		DoneFn: func(result bout.Result) {
			o.finish(a, result)
		},
	})
	if err != nil {
		return fmt.Errorf("new engine: %w", err)
	}
	a.engine = engine
	o.current = a

	o.params.Board.Reset(a.blue, a.red, a.matchID, a.category, engine.Snapshot())
	if o.params.Displays != nil {
		o.params.Displays.PublishView(o.params.Board.View(o.now()))
	}
	if o.params.Announcer != nil {
		title := "Free bout"
		if a.matchID != "" {
			title = a.matchID
		}
		o.params.Announcer.SetBout(title, a.blue.Name, a.red.Name)
	}

	o.logger.Infof("bout %s on the mat: %s vs %s", engine.ID, a.blue.Name, a.red.Name)
	return nil
}

// finish runs once per bout, outside of the engine lock. Tournament results
// are saved right away, every bout is archived.
func (o *Operator) finish(a *activeBout, result bout.Result) {
	o.mtx.Lock()
	o.last = &result
	o.mtx.Unlock()

	if a.mode == boutmodel.ModeTournament {
		err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
			if t.ID != a.tournamentID {
				return fmt.Errorf("%w: bout belongs to %s", ErrTournamentMoved, a.tournamentID)
			}
			return t.UpdateMatchResult(a.matchID, result)
		})
		if err != nil {
			o.logger.Errorf("record match %s: %v", a.matchID, err)
		} else if err := o.params.Tournaments.Save(o.ctx); err != nil && !errors.Is(err, tournament.ErrNoTournament) {
			o.logger.Errorf("save after match %s: %v", a.matchID, err)
		}
	}

	rec := boutmodel.NewBout(a.mode)
	rec.EngineID = result.BoutID
	rec.TournamentID = a.tournamentID
	rec.MatchID = a.matchID
	rec.Category = a.category
	rec.BlueName = a.blue.Name
	rec.RedName = a.red.Name
	rec.BlueScore = result.BlueScore
	rec.RedScore = result.RedScore
	rec.BlueGamJeom = result.BlueGamJeom
	rec.RedGamJeom = result.RedGamJeom
	rec.Winner = string(result.Winner)
	rec.Duration = result.FinishedAt.Sub(result.StartedAt)
	for _, outcome := range result.Outcomes {
		rec.Outcomes = append(rec.Outcomes, string(outcome))
	}

	if err := o.params.Archive.Add(rec); err != nil {
		o.logger.Errorf("archive bout %s: %v", result.BoutID, err)
	}

	o.logger.Infof("bout %s won by %s %d:%d", result.BoutID, result.Winner, result.BlueScore, result.RedScore)
}

func corner(p tournament.Player) scoreboard.Corner {
	return scoreboard.Corner{Name: p.Name, Club: p.Club, Country: p.Country}
}
