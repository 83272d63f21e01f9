package strpool

import "testing"

func TestGetReturnsEmptyBuilder(t *testing.T) {
	t.Parallel()

	b := Get()
	b.WriteString("round 1")
	b.Reset()
	Put(b)

	if got := Get(); got.Len() != 0 {
		t.Errorf("expected empty builder got %q", got.String())
	}
}
