package tournament

import (
	"fmt"
	"strings"

	"github.com/tkwin-games/tkwin/internal/strpool"
)

type Player struct {
	ID       string
	Name     string
	Club     string
	Country  string
	Category string

	Weight float64
	Age    int
	Gender string
	Belt   string

	Wins       int
	Losses     int
	Eliminated bool

	// career totals over every recorded match
	PointsScored   int
	PointsReceived int

	order int
}

func (p Player) Validate() error {
	fields := []struct{ name, value string }{
		{"id", p.ID},
		{"name", p.Name},
		{"club", p.Club},
		{"country", p.Country},
		{"category", p.Category},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	if p.Weight < 0 {
		return fmt.Errorf("%w: negative weight %v", ErrInvalidField, p.Weight)
	}
	return nil
}

// DisplayName renders "Name (Club, Country)".
func (p Player) DisplayName() string {
	b := strpool.Get()
	defer func() {
		b.Reset()
		strpool.Put(b)
	}()

	b.WriteString(p.Name)
	if p.Club != "" || p.Country != "" {
		b.WriteString(" (")
		b.WriteString(p.Club)
		if p.Club != "" && p.Country != "" {
			b.WriteString(", ")
		}
		b.WriteString(p.Country)
		b.WriteString(")")
	}
	return b.String()
}

// normalizeName folds case and whitespace so that "Kim  Min" and "kim min"
// are treated as the same person.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
