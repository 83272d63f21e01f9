package operator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/scoreboard"
	"github.com/tkwin-games/tkwin/internal/strpool"
	"github.com/tkwin-games/tkwin/internal/tournament"
	"github.com/tkwin-games/tkwin/internal/util"
)

var (
	ErrUnknownCommand = fmt.Errorf("unknown command")
	ErrUsage          = fmt.Errorf("usage")
	// ErrQuit is returned by the quit command, the console loop stops on it.
	ErrQuit = fmt.Errorf("quit")
)

type command struct {
	name  string
	usage string
	run   func(o *Operator, ctx context.Context, args string) (string, error)
}

var (
	commandList []command
	commands    map[string]command
)

func init() {
	commandList = []command{
		{"new", "new <name>|<date>|<location>", cmdNew},
		{"load", "load <tournament id>", cmdLoad},
		{"save", "save", cmdSave},
		{"list", "list", cmdList},
		{"import", "import <csv file>", cmdImport},
		{"order", "order <category>=<rank>,...", cmdOrder},
		{"generate", "generate <category>", cmdGenerate},
		{"next", "next [category]", cmdNext},
		{"free", "free <blue>|<red>", cmdFree},
		{"abort", "abort", cmdAbort},
		{"start", "start", engineCmd("start", (*bout.Engine).StartRound)},
		{"pause", "pause", engineCmd("pause", (*bout.Engine).PauseRound)},
		{"end", "end", engineCmd("end", (*bout.Engine).EndRound)},
		{"nextround", "nextround", engineCmd("nextround", (*bout.Engine).NextRound)},
		{"score", "score <blue|red> <points>", cmdScore},
		{"gamjeom", "gamjeom <blue|red>", cmdGamJeom},
		{"judge", "judge <n> <blue|red> <1-5|p>", cmdJudge},
		{"mod", "mod <blue|red> <delta>", cmdModScore},
		{"modpen", "modpen <blue|red> <delta>", cmdModPenalty},
		{"apply", "apply", engineCmd("apply", (*bout.Engine).ApplyModifications)},
		{"cancel", "cancel", engineCmd("cancel", (*bout.Engine).CancelModifications)},
		{"status", "status", cmdStatus},
		{"progress", "progress", cmdProgress},
		{"history", "history", cmdHistory},
		{"help", "help", cmdHelp},
		{"quit", "quit", cmdQuit},
	}

	commands = make(map[string]command, len(commandList))
	for _, c := range commandList {
		commands[c.name] = c
	}
}

// Execute runs one operator command line and returns its printable output.
func (o *Operator) Execute(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}

	name, args := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		name, args = line[:i], strings.TrimSpace(line[i+1:])
	}

	c, ok := commands[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	out, err := c.run(o, ctx, args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	return out, nil
}

func usage(name string) error {
	return fmt.Errorf("%w: %s", ErrUsage, commands[name].usage)
}

func splitArgs(args string, sep string) []string {
	parts := strings.Split(args, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func cmdNew(o *Operator, ctx context.Context, args string) (string, error) {
	parts := splitArgs(args, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return "", usage("new")
	}
	var location string
	if len(parts) == 3 {
		location = parts[2]
	}

	id, err := o.params.Tournaments.Create(ctx, parts[0], parts[1], location)
	if err != nil {
		return "", err
	}
	return "created tournament " + id, nil
}

func cmdLoad(o *Operator, ctx context.Context, args string) (string, error) {
	if args == "" {
		return "", usage("load")
	}
	if err := o.params.Tournaments.Load(ctx, args); err != nil {
		return "", err
	}
	return "loaded tournament " + args, nil
}

func cmdSave(o *Operator, ctx context.Context, _ string) (string, error) {
	if err := o.params.Tournaments.Save(ctx); err != nil {
		return "", err
	}
	return "saved", nil
}

func cmdList(o *Operator, ctx context.Context, _ string) (string, error) {
	list, err := o.params.Tournaments.List(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "no saved tournaments", nil
	}

	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, fmt.Sprintf("%s  %s %s %s  players:%d matches:%d  saved %s",
			s.ID, s.Name, s.Date, s.Location, s.Players, s.Matches, s.SavedAt.Format("2006-01-02 15:04")))
	}
	return strings.Join(lines, "\n"), nil
}

func cmdImport(o *Operator, _ context.Context, args string) (string, error) {
	if args == "" {
		return "", usage("import")
	}

	f, err := os.Open(args)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", args, err)
	}
	defer f.Close()

	records, err := tournament.ReadCSV(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args, err)
	}

	var report tournament.ImportReport
	if err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		report = t.ImportPlayers(records)
		return nil
	}); err != nil {
		return "", err
	}

	lines := []string{fmt.Sprintf("imported %d %s, rejected %d",
		report.Accepted, util.Plural(report.Accepted, "player", "players"), len(report.Errors))}
	for _, e := range report.Errors {
		lines = append(lines, "  "+e.Error())
	}
	return strings.Join(lines, "\n"), nil
}

func cmdOrder(o *Operator, _ context.Context, args string) (string, error) {
	if args == "" {
		return "", usage("order")
	}

	order := map[string]int{}
	for _, part := range splitArgs(args, ",") {
		kv := splitArgs(part, "=")
		if len(kv) != 2 || kv[0] == "" {
			return "", usage("order")
		}
		rank, err := strconv.Atoi(kv[1])
		if err != nil {
			return "", fmt.Errorf("%w: rank %q", tournament.ErrInvalidField, kv[1])
		}
		order[kv[0]] = rank
	}

	var categories []string
	if err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		t.SetCategoryOrder(order)
		categories = t.Categories()
		return nil
	}); err != nil {
		return "", err
	}
	return "category order: " + strings.Join(categories, ", "), nil
}

func cmdGenerate(o *Operator, _ context.Context, args string) (string, error) {
	if args == "" {
		return "", usage("generate")
	}

	var out string
	err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		report, err := t.GenerateRound(args)
		if err != nil {
			return err
		}
		out = renderReport(t, report)
		return nil
	})
	return out, err
}

func renderReport(t *tournament.Tournament, r tournament.Report) string {
	b := strpool.Get()
	defer func() {
		b.Reset()
		strpool.Put(b)
	}()

	name := func(id string) string {
		if p, ok := t.Player(id); ok {
			return p.DisplayName()
		}
		return id
	}

	if len(r.Matches) > 0 {
		fmt.Fprintf(b, "%s round %d: %d %s\n", r.Category, r.Round, len(r.Matches), util.Plural(len(r.Matches), "match", "matches"))
		for _, m := range r.Matches {
			fmt.Fprintf(b, "  %s  %s vs %s\n", m.ID, name(m.BlueID), name(m.RedID))
		}
	}
	if r.Bye != nil {
		fmt.Fprintf(b, "  bye: %s\n", r.Bye.DisplayName())
	}
	if r.Champion != nil {
		fmt.Fprintf(b, "champion of %s: %s\n", r.Category, r.Champion.DisplayName())
	} else if r.Reason != "" {
		b.WriteString(r.Reason)
		b.WriteString("\n")
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(b, "  skipped duplicates: %s\n", strings.Join(r.Skipped, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func cmdNext(o *Operator, _ context.Context, args string) (string, error) {
	m, err := o.LoadNextMatch(args)
	if err != nil {
		return "", err
	}
	return o.status(fmt.Sprintf("loaded %s", m.ID)), nil
}

func cmdFree(o *Operator, _ context.Context, args string) (string, error) {
	parts := splitArgs(args, "|")
	if len(parts) != 2 {
		return "", usage("free")
	}
	if err := o.StartFreeBout(parts[0], parts[1]); err != nil {
		return "", err
	}
	return o.status("free bout loaded"), nil
}

func cmdAbort(o *Operator, _ context.Context, _ string) (string, error) {
	if err := o.Abort(); err != nil {
		return "", err
	}
	return "bout aborted", nil
}

func engineCmd(name string, fn func(e *bout.Engine) bool) func(o *Operator, ctx context.Context, args string) (string, error) {
	return func(o *Operator, _ context.Context, _ string) (string, error) {
		return o.withEngine(name, fn)
	}
}

func (o *Operator) withEngine(name string, fn func(e *bout.Engine) bool) (string, error) {
	engine, err := o.Engine()
	if err != nil {
		return "", err
	}
	if !fn(engine) {
		return "", fmt.Errorf("%w: %s in state %s", ErrNotAllowed, name, engine.State())
	}
	return "ok", nil
}

func parseSideInt(name, args string) (bout.Side, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, usage(name)
	}
	side, err := bout.ParseSide(fields[0])
	if err != nil {
		return "", 0, err
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q is not a number", ErrUsage, fields[1])
	}
	return side, n, nil
}

func cmdScore(o *Operator, _ context.Context, args string) (string, error) {
	side, points, err := parseSideInt("score", args)
	if err != nil {
		return "", err
	}
	return o.withEngine("score", func(e *bout.Engine) bool { return e.AddScore(side, points) })
}

func cmdGamJeom(o *Operator, _ context.Context, args string) (string, error) {
	side, err := bout.ParseSide(args)
	if err != nil {
		return "", err
	}
	return o.withEngine("gamjeom", func(e *bout.Engine) bool { return e.ApplyGamJeom(side) })
}

func cmdJudge(o *Operator, _ context.Context, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return "", usage("judge")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return "", fmt.Errorf("%w: judges are numbered from 1", ErrUsage)
	}
	side, err := bout.ParseSide(fields[1])
	if err != nil {
		return "", err
	}
	action, err := bout.ParseAction(fields[2])
	if err != nil {
		return "", err
	}

	evt := bout.JudgeEvent{Judge: n - 1, Side: side, Action: action, At: o.now()}
	return o.withEngine("judge", func(e *bout.Engine) bool { return e.JudgeInput(evt) })
}

func cmdModScore(o *Operator, _ context.Context, args string) (string, error) {
	side, delta, err := parseSideInt("mod", args)
	if err != nil {
		return "", err
	}
	return o.withEngine("mod", func(e *bout.Engine) bool { return e.ModifyScore(side, delta) })
}

func cmdModPenalty(o *Operator, _ context.Context, args string) (string, error) {
	side, delta, err := parseSideInt("modpen", args)
	if err != nil {
		return "", err
	}
	return o.withEngine("modpen", func(e *bout.Engine) bool {
		return e.ModifyPenalty(side, bout.PenaltyGamJeom, delta)
	})
}

func cmdStatus(o *Operator, _ context.Context, _ string) (string, error) {
	if _, err := o.Engine(); err != nil {
		return "", err
	}
	return o.status(""), nil
}

func (o *Operator) status(header string) string {
	view := scoreboard.RenderView(o.params.Board.View(o.now()))
	if header == "" {
		return view
	}
	return header + "\n" + view
}

func cmdProgress(o *Operator, _ context.Context, _ string) (string, error) {
	var out string
	err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		completed, total := t.Progress()
		lines := []string{fmt.Sprintf("%s: %d/%d matches completed", t.Name, completed, total)}
		for _, c := range t.Categories() {
			if p, ok := t.Champion(c); ok {
				lines = append(lines, fmt.Sprintf("  %s champion %s", c, p.DisplayName()))
			}
		}
		for _, group := range t.PendingByCategory() {
			ids := make([]string, 0, len(group.Matches))
			for _, m := range group.Matches {
				ids = append(ids, m.ID)
			}
			lines = append(lines, fmt.Sprintf("  %s pending: %s", group.Category, strings.Join(ids, ", ")))
		}
		out = strings.Join(lines, "\n")
		return nil
	})
	return out, err
}

func cmdHistory(o *Operator, _ context.Context, _ string) (string, error) {
	bouts, err := o.params.Archive.FetchAll()
	if err != nil {
		return "", err
	}
	if len(bouts) == 0 {
		return "no bouts recorded", nil
	}

	lines := make([]string, 0, len(bouts))
	for _, b := range bouts {
		label := string(b.Mode)
		if b.MatchID != "" {
			label = b.MatchID
		}
		lines = append(lines, fmt.Sprintf("%s  %s %d:%d %s  winner %s",
			label, b.BlueName, b.BlueScore, b.RedScore, b.RedName, b.Winner))
	}
	return strings.Join(lines, "\n"), nil
}

func cmdHelp(_ *Operator, _ context.Context, _ string) (string, error) {
	usages := make([]string, 0, len(commandList))
	for _, c := range commandList {
		usages = append(usages, "  "+c.usage)
	}
	sort.Strings(usages)
	return "commands:\n" + strings.Join(usages, "\n"), nil
}

func cmdQuit(_ *Operator, _ context.Context, _ string) (string, error) {
	return "", ErrQuit
}
