package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/database/tournament/model"
)

func (t *Tournament) Snapshot() model.Snapshot {
	s := model.Snapshot{
		Name:          t.Name,
		Date:          t.Date,
		Location:      t.Location,
		ID:            t.ID,
		CurrentRound:  map[string]int{},
		Players:       map[string]model.Player{},
		Matches:       map[string]model.Match{},
		Categories:    map[string][]string{},
		Rounds:        map[int][]string{},
		Byes:          map[string]model.Bye{},
		Champions:     map[string]string{},
		CategoryOrder: map[string]int{},
		SavedAt:       time.Now(),
	}

	for c, r := range t.currentRound {
		s.CurrentRound[c] = r
	}
	for id, p := range t.players {
		s.Players[id] = model.Player{
			ID:         p.ID,
			Name:       p.Name,
			Club:       p.Club,
			Country:    p.Country,
			Category:   p.Category,
			Weight:     p.Weight,
			Age:        p.Age,
			Gender:     p.Gender,
			Belt:       p.Belt,
			Wins:       p.Wins,
			Losses:     p.Losses,
			Eliminated: p.Eliminated,
			Order:      p.order,

			PointsScored:   p.PointsScored,
			PointsReceived: p.PointsReceived,
		}
	}
	for id, m := range t.matches {
		outcomes := make([]string, len(m.Outcomes))
		for i, o := range m.Outcomes {
			outcomes[i] = string(o)
		}
		s.Matches[id] = model.Match{
			ID:          m.ID,
			Category:    m.Category,
			Round:       m.Round,
			Number:      m.Number,
			BlueID:      m.BlueID,
			RedID:       m.RedID,
			BlueScore:   m.BlueScore,
			RedScore:    m.RedScore,
			BlueGamJeom: m.BlueGamJeom,
			RedGamJeom:  m.RedGamJeom,
			Outcomes:    outcomes,
			Winner:      string(m.Winner),
			Completed:   m.Completed,
			CompletedAt: m.CompletedAt,
		}
	}
	for c, ids := range t.categories {
		s.Categories[c] = append([]string(nil), ids...)
	}
	for r, ids := range t.rounds {
		s.Rounds[r] = append([]string(nil), ids...)
	}
	for c, b := range t.byes {
		s.Byes[c] = model.Bye{Round: b.round, PlayerID: b.playerID}
	}
	for c, id := range t.champions {
		s.Champions[c] = id
	}
	for c, rank := range t.categoryOrder {
		s.CategoryOrder[c] = rank
	}

	return s
}

// FromSnapshot rebuilds a tournament. Every reference is checked before the
// tournament is returned, a snapshot that fails any check yields nothing.
func FromSnapshot(ctx context.Context, s model.Snapshot) (*Tournament, error) {
	if s.Name == "" || s.ID == "" {
		return nil, fmt.Errorf("%w: snapshot without name or id", ErrInvariant)
	}

	t := newEmpty(ctx)
	t.Name = s.Name
	t.Date = s.Date
	t.Location = s.Location
	t.ID = s.ID

	for id, p := range s.Players {
		player := Player{
			ID:         p.ID,
			Name:       p.Name,
			Club:       p.Club,
			Country:    p.Country,
			Category:   p.Category,
			Weight:     p.Weight,
			Age:        p.Age,
			Gender:     p.Gender,
			Belt:       p.Belt,
			Wins:       p.Wins,
			Losses:     p.Losses,
			Eliminated: p.Eliminated,
			order:      p.Order,

			PointsScored:   p.PointsScored,
			PointsReceived: p.PointsReceived,
		}
		if id != p.ID {
			return nil, fmt.Errorf("%w: player key %s holds id %s", ErrInvariant, id, p.ID)
		}
		if err := player.Validate(); err != nil {
			return nil, fmt.Errorf("%w: player %s: %v", ErrInvariant, id, err)
		}
		t.players[id] = &player
		if p.Order > t.nextOrder {
			t.nextOrder = p.Order
		}
	}

	for c, ids := range s.Categories {
		for _, id := range ids {
			p, ok := t.players[id]
			if !ok {
				return nil, fmt.Errorf("%w: category %s references unknown player %s", ErrInvariant, c, id)
			}
			if p.Category != c {
				return nil, fmt.Errorf("%w: player %s listed under %s", ErrInvariant, id, c)
			}
		}
		t.categories[c] = append([]string(nil), ids...)
	}

	for id, m := range s.Matches {
		if id != m.ID {
			return nil, fmt.Errorf("%w: match key %s holds id %s", ErrInvariant, id, m.ID)
		}
		for _, pid := range []string{m.BlueID, m.RedID} {
			if _, ok := t.players[pid]; !ok {
				return nil, fmt.Errorf("%w: match %s references unknown player %s", ErrInvariant, id, pid)
			}
		}
		if m.BlueID == m.RedID {
			return nil, fmt.Errorf("%w: match %s pairs %s with itself", ErrInvariant, id, m.BlueID)
		}

		match := Match{
			ID:          m.ID,
			Category:    m.Category,
			Round:       m.Round,
			Number:      m.Number,
			BlueID:      m.BlueID,
			RedID:       m.RedID,
			BlueScore:   m.BlueScore,
			RedScore:    m.RedScore,
			BlueGamJeom: m.BlueGamJeom,
			RedGamJeom:  m.RedGamJeom,
			Winner:      bout.Side(m.Winner),
			Completed:   m.Completed,
			CompletedAt: m.CompletedAt,
		}
		for _, o := range m.Outcomes {
			match.Outcomes = append(match.Outcomes, bout.Outcome(o))
		}
		if match.Completed && !match.Winner.Valid() {
			return nil, fmt.Errorf("%w: completed match %s has winner %q", ErrInvariant, id, m.Winner)
		}
		t.matches[id] = &match
	}

	for r, ids := range s.Rounds {
		for _, id := range ids {
			if _, ok := t.matches[id]; !ok {
				return nil, fmt.Errorf("%w: round %d references unknown match %s", ErrInvariant, r, id)
			}
		}
		t.rounds[r] = append([]string(nil), ids...)
	}

	for c, r := range s.CurrentRound {
		t.currentRound[c] = r
	}
	for c, b := range s.Byes {
		if _, ok := t.players[b.PlayerID]; !ok {
			return nil, fmt.Errorf("%w: bye in %s references unknown player %s", ErrInvariant, c, b.PlayerID)
		}
		t.byes[c] = bye{round: b.Round, playerID: b.PlayerID}
	}
	for c, id := range s.Champions {
		if _, ok := t.players[id]; !ok {
			return nil, fmt.Errorf("%w: champion of %s is unknown player %s", ErrInvariant, c, id)
		}
		t.champions[c] = id
	}
	for c, rank := range s.CategoryOrder {
		t.categoryOrder[c] = rank
	}

	return t, nil
}
