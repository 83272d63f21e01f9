package bout

import (
	"fmt"
)

// MaxJudges is the upper bound on judge slots.
const MaxJudges = 10

var ErrInvalidConfig = fmt.Errorf("invalid bout config")

// Rules are the competition settings of a bout. They are copied into the
// engine on construction, changing them later affects only new bouts.
type Rules struct {
	// seconds per round
	RoundTime int `envconfig:"TKWIN_ROUND_TIME" default:"120"`
	// seconds between rounds
	BreakTime int `envconfig:"TKWIN_BREAK_TIME" default:"30"`
	// regulation rounds before sudden death
	MaxRounds   int `envconfig:"TKWIN_MAX_ROUNDS" default:"2"`
	JudgesCount int `envconfig:"TKWIN_JUDGES" default:"2"`
	// 0 disables the penalty instant win
	InstantWinGamJeom int  `envconfig:"TKWIN_INSTANT_WIN_GAMJEOM" default:"5"`
	SuddenDeathPoints int  `envconfig:"TKWIN_SUDDEN_DEATH_POINTS" default:"2"`
	AutoStartNextRound bool `envconfig:"TKWIN_AUTO_START" default:"false"`
}

func DefaultRules() Rules {
	return Rules{
		RoundTime:         120,
		BreakTime:         30,
		MaxRounds:         2,
		JudgesCount:       2,
		InstantWinGamJeom: 5,
		SuddenDeathPoints: 2,
	}
}

func (r Rules) Validate() error {
	switch {
	case r.RoundTime <= 0:
		return fmt.Errorf("%w: round time must be positive, got %d", ErrInvalidConfig, r.RoundTime)
	case r.BreakTime <= 0:
		return fmt.Errorf("%w: break time must be positive, got %d", ErrInvalidConfig, r.BreakTime)
	case r.MaxRounds <= 0:
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfig, r.MaxRounds)
	case r.JudgesCount <= 0 || r.JudgesCount > MaxJudges:
		return fmt.Errorf("%w: judges must be between 1 and %d, got %d", ErrInvalidConfig, MaxJudges, r.JudgesCount)
	case r.InstantWinGamJeom < 0:
		return fmt.Errorf("%w: gam-jeom threshold cannot be negative, got %d", ErrInvalidConfig, r.InstantWinGamJeom)
	case r.SuddenDeathPoints <= 0:
		return fmt.Errorf("%w: sudden death points must be positive, got %d", ErrInvalidConfig, r.SuddenDeathPoints)
	}

	return nil
}
