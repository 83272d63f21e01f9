package tournament

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var requiredColumns = []string{"id", "name", "club", "country", "category"}

// Record is one imported row keyed by lower-case column name.
type Record map[string]string

type ImportError struct {
	Line int
	ID   string
	Err  error
}

func (e ImportError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("line %d (%s): %v", e.Line, e.ID, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e ImportError) Unwrap() error {
	return e.Err
}

type ImportReport struct {
	Accepted int
	Errors   []ImportError
}

// ReadCSV parses a header row followed by player rows. Line numbers in the
// returned records start at 2, the first data row.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: %w", ErrMissingField)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	for _, required := range requiredColumns {
		var found bool
		for _, c := range columns {
			if c == required {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: column %s", ErrMissingField, required)
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec := Record{}
		for i, value := range row {
			if i < len(columns) {
				rec[columns[i]] = strings.TrimSpace(value)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRecord(rec Record) (Player, error) {
	p := Player{
		ID:       strings.TrimSpace(rec["id"]),
		Name:     strings.TrimSpace(rec["name"]),
		Club:     strings.TrimSpace(rec["club"]),
		Country:  strings.TrimSpace(rec["country"]),
		Category: strings.TrimSpace(rec["category"]),
		Gender:   strings.TrimSpace(rec["gender"]),
		Belt:     strings.TrimSpace(rec["belt"]),
	}

	if w := strings.TrimSpace(rec["weight"]); w != "" {
		weight, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return Player{}, fmt.Errorf("%w: weight %q", ErrInvalidField, w)
		}
		p.Weight = weight
	}

	if a := strings.TrimSpace(rec["age"]); a != "" {
		age, err := strconv.Atoi(a)
		if err != nil || age < 0 {
			return Player{}, fmt.Errorf("%w: age %q", ErrInvalidField, a)
		}
		p.Age = age
	}

	if err := p.Validate(); err != nil {
		return Player{}, err
	}
	return p, nil
}
