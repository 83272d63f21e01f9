package autosave

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tkwin-games/tkwin/internal/tournament"
)

type saverFunc func(ctx context.Context) error

func (fn saverFunc) Save(ctx context.Context) error {
	return fn(ctx)
}

func TestRunNow(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "saved"},
		{name: "no_tournament", err: tournament.ErrNoTournament},
		{name: "failure", err: boom, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := New(context.Background(), "", saverFunc(func(context.Context) error { return tc.err }))
			err := s.RunNow()
			if tc.wantErr != (err != nil) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), "every now and then", saverFunc(func(context.Context) error { return nil }))
	if err := s.Start(); err == nil {
		t.Fatal("expected error for bad spec")
	}
}

func TestScheduledSave(t *testing.T) {
	t.Parallel()

	var calls int32
	s := New(context.Background(), "@every 1s", saverFunc(func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if atomic.LoadInt32(&calls) == 0 {
		t.Error("scheduled save never ran")
	}
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), "", saverFunc(func(context.Context) error { return nil }))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}
