package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkwin-games/tkwin/internal/database"
	"github.com/tkwin-games/tkwin/internal/database/bout/model"
)

func TestAddFetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	raw, err := database.NewFromEnv(ctx, &database.Config{FilePath: filepath.Join(t.TempDir(), "bouts.db"), OpenTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close(ctx)

	db := New(raw)
	if list, err := db.FetchAll(); err != nil || len(list) != 0 {
		t.Fatalf("expected empty archive got %v %v", list, err)
	}

	free := model.NewBout(model.ModeFree)
	free.BlueName, free.RedName, free.Winner = "Kim", "Lee", "blue"
	free.CreatedAt = time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)

	final := model.NewBout(model.ModeTournament)
	final.MatchID = "-54_R2_M1"
	final.Outcomes = []string{"red", "red"}
	final.CreatedAt = free.CreatedAt.Add(time.Hour)

	for _, b := range []model.Bout{final, free} {
		if err := db.Add(b); err != nil {
			t.Fatal(err)
		}
	}

	list, err := db.FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != free.ID || list[0].BlueName != "Kim" {
		t.Fatalf("unexpected archive %+v", list)
	}

	byMatch, err := db.FetchByMatch("-54_R2_M1")
	if err != nil {
		t.Fatal(err)
	}
	if len(byMatch) != 1 || byMatch[0].ID != final.ID || len(byMatch[0].Outcomes) != 2 {
		t.Errorf("unexpected match bouts %+v", byMatch)
	}

	if _, err := db.FetchByMatch("nope"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound got %v", err)
	}
}
