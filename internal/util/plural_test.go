package util

import "testing"

func TestPlural(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "matches"},
		{1, "match"},
		{-1, "match"},
		{2, "matches"},
		{21, "matches"},
	}
	for _, tc := range tests {
		if got := Plural(tc.n, "match", "matches"); got != tc.want {
			t.Errorf("%d: expected %s got %s", tc.n, tc.want, got)
		}
	}
}
