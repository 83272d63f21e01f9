package tournament

import (
	"fmt"
)

// Report describes the outcome of a generation request. When no match could
// be generated Reason says why.
type Report struct {
	Category string
	Round    int
	Matches  []Match
	Bye      *Player
	Champion *Player
	Skipped  []string
	Reason   string
}

// MatchID formats a bracket match id, e.g. "cadet-54_R2_M1".
func MatchID(category string, round, number int) string {
	return fmt.Sprintf("%s_R%d_M%d", category, round, number)
}

// UniqueContestants lists the contestants of a category still in play, in
// registration order, without repeated ids or repeated names. The ids of
// skipped duplicates are returned separately.
func (t *Tournament) UniqueContestants(category string) ([]Player, []string) {
	var unique []Player
	var skipped []string
	ids := map[string]bool{}
	names := map[string]string{}
	for _, p := range t.Players(category) {
		if p.Eliminated {
			continue
		}
		name := normalizeName(p.Name)
		if ids[p.ID] {
			skipped = append(skipped, p.ID)
			t.logger.Warnf("skipping repeated id %s in %s", p.ID, category)
			continue
		}
		if other, ok := names[name]; ok {
			skipped = append(skipped, p.ID)
			t.logger.Warnf("skipping %s, same name as %s in %s", p.ID, other, category)
			continue
		}
		ids[p.ID] = true
		names[name] = p.ID
		unique = append(unique, p)
	}
	return unique, skipped
}

// GenerateRound creates the first round of a category, or the next one once
// the current round is finished.
func (t *Tournament) GenerateRound(category string) (Report, error) {
	if t.currentRound[category] == 0 {
		return t.GenerateFirstRound(category)
	}
	return t.GenerateNextRound(category)
}

func (t *Tournament) GenerateFirstRound(category string) (Report, error) {
	report := Report{Category: category, Round: 1}
	if _, ok := t.categories[category]; !ok {
		return report, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	if t.currentRound[category] != 0 {
		report.Reason = fmt.Sprintf("first round of %s already generated", category)
		return report, nil
	}

	contestants, skipped := t.UniqueContestants(category)
	report.Skipped = skipped
	if len(contestants) < 2 {
		report.Reason = fmt.Sprintf("%s needs at least 2 distinct contestants, has %d", category, len(contestants))
		t.logger.Warnf("generate first round: %s", report.Reason)
		return report, nil
	}

	ids := make([]string, len(contestants))
	for i, p := range contestants {
		ids[i] = p.ID
	}
	t.shuffle(ids)

	if len(ids)%2 == 1 {
		byeID := ids[len(ids)-1]
		ids = ids[:len(ids)-1]
		t.awardBye(category, 1, byeID)
		p := *t.players[byeID]
		report.Bye = &p
	}

	report.Matches = t.pair(category, 1, ids)
	t.currentRound[category] = 1
	return report, nil
}

// GenerateNextRound advances the winners of the finished current round of a
// category. Losers are eliminated, a bye from the previous round rejoins the
// field, and a lone remaining contestant becomes the category champion.
func (t *Tournament) GenerateNextRound(category string) (Report, error) {
	report := Report{Category: category}
	if _, ok := t.categories[category]; !ok {
		return report, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	if id, ok := t.champions[category]; ok {
		report.Reason = fmt.Sprintf("%s is complete, champion %s", category, id)
		return report, nil
	}

	current := t.currentRound[category]
	if current == 0 {
		report.Reason = fmt.Sprintf("first round of %s not generated", category)
		return report, nil
	}
	report.Round = current + 1

	var finished []*Match
	var unfinished int
	for _, id := range t.rounds[current] {
		m, ok := t.matches[id]
		if !ok {
			return report, fmt.Errorf("%w: round %d references unknown match %s", ErrInvariant, current, id)
		}
		if m.Category != category {
			continue
		}
		if !m.Completed {
			unfinished++
			continue
		}
		finished = append(finished, m)
	}

	if unfinished > 0 {
		report.Reason = fmt.Sprintf("round %d of %s has %d unfinished matches", current, category, unfinished)
		return report, nil
	}
	if len(finished) == 0 {
		report.Reason = fmt.Sprintf("round %d of %s has no matches", current, category)
		return report, nil
	}

	var advancing, losers []string
	for _, m := range finished {
		winner, ok := m.WinnerID()
		if !ok {
			return report, fmt.Errorf("%w: match %s completed without a winner", ErrInvariant, m.ID)
		}
		loser, _ := m.LoserID()
		if _, ok := t.players[winner]; !ok {
			return report, fmt.Errorf("%w: match %s references unknown player %s", ErrInvariant, m.ID, winner)
		}
		if _, ok := t.players[loser]; !ok {
			return report, fmt.Errorf("%w: match %s references unknown player %s", ErrInvariant, m.ID, loser)
		}
		advancing = append(advancing, winner)
		losers = append(losers, loser)
	}

	prevBye, hadBye := t.byes[category]
	if hadBye && prevBye.round == current {
		if _, ok := t.players[prevBye.playerID]; !ok {
			return report, fmt.Errorf("%w: bye references unknown player %s", ErrInvariant, prevBye.playerID)
		}
		advancing = append(advancing, prevBye.playerID)
	}

	for i, winner := range advancing[:len(finished)] {
		t.players[winner].Wins++
		t.players[losers[i]].Losses++
		t.players[losers[i]].Eliminated = true
	}

	if len(advancing) == 1 {
		t.champions[category] = advancing[0]
		p := *t.players[advancing[0]]
		report.Champion = &p
		report.Reason = fmt.Sprintf("%s is complete, champion %s", category, p.ID)
		t.logger.Infof("champion of %s: %s", category, p.DisplayName())
		return report, nil
	}

	next := current + 1
	if len(advancing)%2 == 1 {
		idx := len(advancing) - 1
		for i := len(advancing) - 1; i >= 0; i-- {
			if !hadBye || advancing[i] != prevBye.playerID {
				idx = i
				break
			}
		}
		byeID := advancing[idx]
		advancing = append(advancing[:idx], advancing[idx+1:]...)
		t.awardBye(category, next, byeID)
		p := *t.players[byeID]
		report.Bye = &p
	}

	report.Matches = t.pair(category, next, advancing)
	t.currentRound[category] = next
	return report, nil
}

func (t *Tournament) awardBye(category string, round int, playerID string) {
	t.players[playerID].Wins++
	t.byes[category] = bye{round: round, playerID: playerID}
	t.logger.Infof("bye in %s round %d for %s", category, round, playerID)
}

// pair creates matches from consecutive ids.
func (t *Tournament) pair(category string, round int, ids []string) []Match {
	var created []Match
	number := 0
	for i := 0; i+1 < len(ids); i += 2 {
		blue, red := ids[i], ids[i+1]
		if blue == red {
			t.logger.Errorf("refusing to pair %s with itself in %s round %d", blue, category, round)
			continue
		}
		if sameName(t.players[blue], t.players[red]) {
			t.logger.Errorf("refusing to pair %s with %s in %s round %d, same name", blue, red, category, round)
			continue
		}

		number++
		m := &Match{
			ID:       MatchID(category, round, number),
			Category: category,
			Round:    round,
			Number:   number,
			BlueID:   blue,
			RedID:    red,
		}
		t.matches[m.ID] = m
		t.rounds[round] = append(t.rounds[round], m.ID)
		created = append(created, *m)
	}
	return created
}

// shuffle is an unbiased Fisher-Yates shuffle.
func (t *Tournament) shuffle(ids []string) {
	for i := len(ids) - 1; i > 0; i-- {
		j := int(t.rand(uint32(i + 1)))
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func sameName(a, b *Player) bool {
	return a != nil && b != nil && normalizeName(a.Name) == normalizeName(b.Name)
}
