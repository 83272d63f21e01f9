package tournament

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/logging"
	"github.com/valyala/fastrand"
	"go.uber.org/zap"
)

type Match struct {
	ID       string
	Category string
	Round    int
	Number   int
	BlueID   string
	RedID    string

	BlueScore   int
	RedScore    int
	BlueGamJeom int
	RedGamJeom  int
	Outcomes    []bout.Outcome
	Winner      bout.Side
	Completed   bool
	CompletedAt time.Time
}

// WinnerID returns the id of the winning contestant of a completed match.
func (m Match) WinnerID() (string, bool) {
	switch m.Winner {
	case bout.SideBlue:
		return m.BlueID, true
	case bout.SideRed:
		return m.RedID, true
	}
	return "", false
}

func (m Match) LoserID() (string, bool) {
	switch m.Winner {
	case bout.SideBlue:
		return m.RedID, true
	case bout.SideRed:
		return m.BlueID, true
	}
	return "", false
}

type bye struct {
	round    int
	playerID string
}

// ID derives the tournament id from its name and date.
func ID(name, date string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_") + "_" + strings.ReplaceAll(strings.TrimSpace(date), "/", "_")
}

func New(ctx context.Context, name, date, location string) (*Tournament, error) {
	name, date = strings.TrimSpace(name), strings.TrimSpace(date)
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if date == "" {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}

	t := newEmpty(ctx)
	t.Name = name
	t.Date = date
	t.Location = strings.TrimSpace(location)
	t.ID = ID(name, date)
	return t, nil
}

func newEmpty(ctx context.Context) *Tournament {
	return &Tournament{
		players:       map[string]*Player{},
		matches:       map[string]*Match{},
		categories:    map[string][]string{},
		rounds:        map[int][]string{},
		currentRound:  map[string]int{},
		byes:          map[string]bye{},
		champions:     map[string]string{},
		categoryOrder: map[string]int{},
		rand:          fastrand.Uint32n,
		logger:        logging.FromContext(ctx).Named("tournament.Tournament"),
	}
}

// Tournament is the single-elimination aggregate. It is not safe for
// concurrent use, Manager serializes access.
type Tournament struct {
	Name     string
	Date     string
	Location string
	ID       string

	players       map[string]*Player
	matches       map[string]*Match
	categories    map[string][]string
	rounds        map[int][]string
	currentRound  map[string]int
	byes          map[string]bye
	champions     map[string]string
	categoryOrder map[string]int
	nextOrder     int

	rand   func(n uint32) uint32
	logger *zap.SugaredLogger
}

func (t *Tournament) AddPlayer(p Player) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate player: %w", err)
	}
	if _, ok := t.players[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
	}

	t.nextOrder++
	p.order = t.nextOrder
	t.players[p.ID] = &p
	t.categories[p.Category] = append(t.categories[p.Category], p.ID)
	return nil
}

// ImportPlayers adds every valid record. A record missing a required field
// or repeating an id already seen is rejected on its own, the rest of the
// batch is still imported.
func (t *Tournament) ImportPlayers(records []Record) ImportReport {
	var report ImportReport
	seen := map[string]bool{}
	for i, rec := range records {
		line := i + 2
		p, err := parseRecord(rec)
		if err != nil {
			report.Errors = append(report.Errors, ImportError{Line: line, ID: rec["id"], Err: err})
			continue
		}

		if seen[p.ID] {
			report.Errors = append(report.Errors, ImportError{Line: line, ID: p.ID, Err: ErrDuplicatePlayer})
			continue
		}
		seen[p.ID] = true

		if err := t.AddPlayer(p); err != nil {
			report.Errors = append(report.Errors, ImportError{Line: line, ID: p.ID, Err: err})
			continue
		}
		report.Accepted++
	}

	t.logger.Infof("imported %d players, rejected %d", report.Accepted, len(report.Errors))
	return report
}

func (t *Tournament) Player(id string) (Player, bool) {
	p, ok := t.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players lists a category in registration order, all players when category is empty.
func (t *Tournament) Players(category string) []Player {
	var list []Player
	for _, p := range t.players {
		if category == "" || p.Category == category {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].order < list[j].order
	})
	return list
}

func (t *Tournament) Categories() []string {
	list := make([]string, 0, len(t.categories))
	for c := range t.categories {
		list = append(list, c)
	}
	t.sortCategories(list)
	return list
}

func (t *Tournament) Match(id string) (Match, bool) {
	m, ok := t.matches[id]
	if !ok {
		return Match{}, false
	}
	return *m, true
}

func (t *Tournament) Champion(category string) (Player, bool) {
	id, ok := t.champions[category]
	if !ok {
		return Player{}, false
	}
	return t.Player(id)
}

// SetCategoryOrder sets the order in which categories are called to the mat.
// Categories without a rank come last.
func (t *Tournament) SetCategoryOrder(order map[string]int) {
	t.categoryOrder = map[string]int{}
	for c, rank := range order {
		t.categoryOrder[c] = rank
	}
}

// UpdateMatchResult records the final result of a match and adds its scores
// to both contestants' career totals. A match accepts a single result.
func (t *Tournament) UpdateMatchResult(matchID string, result bout.Result) error {
	m, ok := t.matches[matchID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if m.Completed {
		return fmt.Errorf("%w: %s", ErrMatchCompleted, matchID)
	}
	if !result.Winner.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWinner, result.Winner)
	}

	m.BlueScore = result.BlueScore
	m.RedScore = result.RedScore
	m.BlueGamJeom = result.BlueGamJeom
	m.RedGamJeom = result.RedGamJeom
	m.Outcomes = append([]bout.Outcome(nil), result.Outcomes...)
	m.Winner = result.Winner
	m.Completed = true
	m.CompletedAt = result.FinishedAt
	if m.CompletedAt.IsZero() {
		m.CompletedAt = time.Now()
	}

	if p, ok := t.players[m.BlueID]; ok {
		p.PointsScored += m.BlueScore
		p.PointsReceived += m.RedScore
	}
	if p, ok := t.players[m.RedID]; ok {
		p.PointsScored += m.RedScore
		p.PointsReceived += m.BlueScore
	}

	t.logger.Infof("match %s won by %s %d:%d", m.ID, m.Winner, m.BlueScore, m.RedScore)
	return nil
}

// NextMatch returns the first unfinished match, scanning rounds in ascending
// order and each round in the order its matches were created. An empty
// category matches any.
func (t *Tournament) NextMatch(category string) (Match, bool) {
	rounds := make([]int, 0, len(t.rounds))
	for r := range t.rounds {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)

	for _, r := range rounds {
		for _, id := range t.rounds[r] {
			m, ok := t.matches[id]
			if !ok || m.Completed || (category != "" && m.Category != category) {
				continue
			}
			return *m, true
		}
	}
	return Match{}, false
}

type CategoryMatches struct {
	Category string
	Matches  []Match
}

// PendingByCategory groups unfinished matches per category, categories in
// call order and matches by round then number.
func (t *Tournament) PendingByCategory() []CategoryMatches {
	grouped := map[string][]Match{}
	for _, m := range t.matches {
		if !m.Completed {
			grouped[m.Category] = append(grouped[m.Category], *m)
		}
	}

	categories := make([]string, 0, len(grouped))
	for c := range grouped {
		categories = append(categories, c)
	}
	t.sortCategories(categories)

	list := make([]CategoryMatches, 0, len(categories))
	for _, c := range categories {
		matches := grouped[c]
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].Round != matches[j].Round {
				return matches[i].Round < matches[j].Round
			}
			return matches[i].Number < matches[j].Number
		})
		list = append(list, CategoryMatches{Category: c, Matches: matches})
	}
	return list
}

// Progress reports finished and total match counts.
func (t *Tournament) Progress() (completed, total int) {
	for _, m := range t.matches {
		total++
		if m.Completed {
			completed++
		}
	}
	return completed, total
}

func (t *Tournament) sortCategories(list []string) {
	sort.Slice(list, func(i, j int) bool {
		return t.categoryLess(list[i], list[j])
	})
}

func (t *Tournament) categoryLess(a, b string) bool {
	ra, okA := t.categoryOrder[a]
	rb, okB := t.categoryOrder[b]
	switch {
	case okA && okB && ra != rb:
		return ra < rb
	case okA != okB:
		return okA
	}
	return a < b
}
