package operator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/cache"
	"github.com/tkwin-games/tkwin/internal/clock"
	"github.com/tkwin-games/tkwin/internal/database"
	boutdb "github.com/tkwin-games/tkwin/internal/database/bout/database"
	tournamentdb "github.com/tkwin-games/tkwin/internal/database/tournament/database"
	"github.com/tkwin-games/tkwin/internal/scoreboard"
	"github.com/tkwin-games/tkwin/internal/tournament"
)

type fixture struct {
	op      *Operator
	clock   *clock.Fake
	board   *scoreboard.Board
	manager *tournament.Manager
	archive *boutdb.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath:    filepath.Join(t.TempDir(), "test.db"),
		OpenTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close(ctx) })

	arc, err := cache.NewARC(8)
	if err != nil {
		t.Fatal(err)
	}

	rules := bout.DefaultRules()
	rules.RoundTime = 3
	rules.BreakTime = 2

	f := &fixture{
		clock:   clock.NewFake(time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)),
		board:   scoreboard.NewBoard(),
		manager: tournament.NewManager(tournamentdb.New(db, arc)),
		archive: boutdb.New(db),
	}
	f.op, err = New(ctx, Params{
		Rules:       rules,
		Tournaments: f.manager,
		Archive:     f.archive,
		Board:       f.board,
		Clock:       f.clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(f.op.Close)
	return f
}

func (f *fixture) exec(t *testing.T, line string) string {
	t.Helper()

	out, err := f.op.Execute(context.Background(), line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return out
}

// winForBlue plays a two round bout that blue wins on rounds.
func (f *fixture) winForBlue(t *testing.T) {
	t.Helper()

	f.exec(t, "start")
	f.exec(t, "score blue 3")
	f.exec(t, "end")
	f.exec(t, "nextround")
	f.exec(t, "start")
	f.exec(t, "score blue 1")
	f.exec(t, "end")
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "players.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTournamentFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.exec(t, "new Open Cup|12/05/2024|Seoul")

	csv := writeCSV(t, "id,name,club,country,category\n1,Kim,Tiger,KR,-54\n2,Lee,Dragon,KR,-54\n3,,Dragon,KR,-54\n")
	out := f.exec(t, "import "+csv)
	if !strings.Contains(out, "imported 2 players, rejected 1") {
		t.Errorf("unexpected import output %q", out)
	}

	out = f.exec(t, "generate -54")
	if !strings.Contains(out, "-54_R1_M1") {
		t.Errorf("unexpected generate output %q", out)
	}

	f.exec(t, "next")
	view := f.board.View(f.clock.Now())
	if view.MatchID != "-54_R1_M1" || view.Category != "-54" {
		t.Fatalf("unexpected board %+v", view)
	}

	f.winForBlue(t)

	result, ok := f.op.LastResult()
	if !ok || result.Winner != bout.SideBlue {
		t.Fatalf("unexpected result %+v", result)
	}

	var match tournament.Match
	if err := f.manager.Do(func(tr *tournament.Tournament) error {
		match, _ = tr.Match("-54_R1_M1")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !match.Completed || match.Winner != bout.SideBlue || match.BlueScore != 4 {
		t.Errorf("unexpected match %+v", match)
	}

	bouts, err := f.archive.FetchByMatch("-54_R1_M1")
	if err != nil {
		t.Fatal(err)
	}
	if len(bouts) != 1 || bouts[0].Winner != "blue" || bouts[0].TournamentID != "Open_Cup_12_05_2024" {
		t.Errorf("unexpected archive %+v", bouts)
	}

	// the finished result was saved without an explicit save command
	list, err := f.manager.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Matches != 1 {
		t.Errorf("unexpected saved tournaments %+v", list)
	}

	out = f.exec(t, "generate -54")
	if !strings.Contains(out, "champion of -54") {
		t.Errorf("unexpected generate output %q", out)
	}

	if _, err := f.op.Execute(context.Background(), "next"); !errors.Is(err, ErrNoPendingMatch) {
		t.Errorf("expected %v got %v", ErrNoPendingMatch, err)
	}
}

func TestFreeBout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.exec(t, "free Kim | Lee")

	if _, err := f.op.Execute(context.Background(), "free A|B"); !errors.Is(err, ErrBoutInProgress) {
		t.Errorf("expected %v got %v", ErrBoutInProgress, err)
	}

	f.winForBlue(t)

	bouts, err := f.archive.FetchAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(bouts) != 1 || bouts[0].BlueName != "Kim" || bouts[0].MatchID != "" {
		t.Errorf("unexpected archive %+v", bouts)
	}

	// a finished bout can be replaced
	f.exec(t, "free A|B")
	if got := f.board.View(f.clock.Now()).Blue.Name; got != "A" {
		t.Errorf("expected A got %s", got)
	}
}

func TestEngineCommandsRequireBout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, line := range []string{"start", "score blue 1", "status", "abort"} {
		if _, err := f.op.Execute(context.Background(), line); !errors.Is(err, ErrNoBout) {
			t.Errorf("%s: expected %v got %v", line, ErrNoBout, err)
		}
	}
}

func TestRoundTimerEndsRound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.exec(t, "free Kim|Lee")
	f.exec(t, "start")
	f.exec(t, "score red 2")

	for i := 0; i < 3; i++ {
		f.clock.Tick()
	}

	view := f.board.View(f.clock.Now())
	if view.State != bout.StateBreak {
		t.Fatalf("expected %s got %s", bout.StateBreak, view.State)
	}
	if len(view.Outcomes) != 1 || view.Outcomes[0] != bout.OutcomeRed {
		t.Errorf("unexpected outcomes %v", view.Outcomes)
	}
}

func TestJudgeInputReachesEngine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.op.SetControllers(2)
	f.exec(t, "free Kim|Lee")
	f.exec(t, "start")

	f.op.JudgeInput(bout.JudgeEvent{Judge: 0, Side: bout.SideBlue, Action: bout.ActionPoints(2), At: f.clock.Now()})
	f.exec(t, "judge 2 blue 2")

	engine, err := f.op.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if got := engine.Snapshot().BlueScore; got != 2 {
		t.Errorf("expected 2 got %d", got)
	}
}

func TestCorrections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.exec(t, "free Kim|Lee")
	f.exec(t, "start")
	f.exec(t, "score red 3")

	if _, err := f.op.Execute(context.Background(), "mod red -1"); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("expected %v got %v", ErrNotAllowed, err)
	}

	f.exec(t, "pause")
	f.exec(t, "mod red -1")
	f.exec(t, "modpen blue 1")
	f.exec(t, "apply")

	engine, err := f.op.Engine()
	if err != nil {
		t.Fatal(err)
	}
	s := engine.Snapshot()
	if s.State != bout.StateRunning || s.RedScore != 2 || s.BlueGamJeom != 1 {
		t.Errorf("unexpected snapshot %+v", s)
	}
}

func TestExecuteErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		line string
		err  error
	}{
		{line: "dance", err: ErrUnknownCommand},
		{line: "new OnlyName", err: ErrUsage},
		{line: "save", err: tournament.ErrNoTournament},
		{line: "generate -54", err: tournament.ErrNoTournament},
		{line: "judge 0 blue 1", err: ErrUsage},
		{line: "quit", err: ErrQuit},
	}

	for _, tc := range tests {
		if _, err := f.op.Execute(context.Background(), tc.line); !errors.Is(err, tc.err) {
			t.Errorf("%s: expected %v got %v", tc.line, tc.err, err)
		}
	}

	if out, err := f.op.Execute(context.Background(), "  "); err != nil || out != "" {
		t.Errorf("expected no output got %q %v", out, err)
	}
}

func TestHelpListsCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out := f.exec(t, "HELP")
	for _, name := range []string{"generate <category>", "judge <n>", "free <blue>|<red>"} {
		if !strings.Contains(out, name) {
			t.Errorf("help misses %q", name)
		}
	}
}
