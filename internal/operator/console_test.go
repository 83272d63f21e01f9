package operator

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestServe(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	in := strings.NewReader("new Open Cup|12/05/2024\nbogus\nquit\nsave\n")
	var out bytes.Buffer

	if err := f.op.Serve(context.Background(), in, &out); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "created tournament Open_Cup_12_05_2024") {
		t.Errorf("missing create output in %q", got)
	}
	if !strings.Contains(got, "error: unknown command: bogus") {
		t.Errorf("missing error output in %q", got)
	}
	if strings.Contains(got, "saved") {
		t.Errorf("commands after quit must not run: %q", got)
	}
}

func TestServeStopsAtEOF(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var out bytes.Buffer
	if err := f.op.Serve(context.Background(), strings.NewReader("help"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "commands:") {
		t.Errorf("unexpected output %q", out.String())
	}
}
