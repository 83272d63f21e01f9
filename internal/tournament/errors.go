package tournament

import (
	"fmt"
)

var (
	ErrMissingField     = fmt.Errorf("missing required field")
	ErrInvalidField     = fmt.Errorf("invalid field")
	ErrDuplicatePlayer  = fmt.Errorf("duplicate player id")
	ErrCategoryNotFound = fmt.Errorf("category not found")
	ErrMatchNotFound    = fmt.Errorf("match not found")
	ErrMatchCompleted   = fmt.Errorf("match already completed")
	ErrInvalidWinner    = fmt.Errorf("winner must be blue or red")
	ErrInvariant        = fmt.Errorf("tournament invariant violated")
	ErrNoTournament     = fmt.Errorf("no active tournament")
)
