package scoreboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tkwin-games/tkwin/internal/bout"
)

func TestBoardJudgeDisplayExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
	id := uuid.New()
	b := NewBoard()
	b.Reset(Corner{Name: "Kim"}, Corner{Name: "Lee"}, "-54_R1_M1", "-54", bout.Snapshot{ID: id, State: bout.StateReady, Round: 1, TimeRemaining: 120})

	b.Notify(bout.Event{Kind: bout.EventJudgeInput, BoutID: id, Judge: 1, Side: bout.SideRed, Text: "+3", At: now, ExpiresAt: now.Add(bout.JudgeDisplayTTL)})
	b.Notify(bout.Event{Kind: bout.EventScoreChanged, BoutID: id, Side: bout.SideRed, Value: 3})
	b.Notify(bout.Event{Kind: bout.EventScoreChanged, BoutID: uuid.New(), Side: bout.SideBlue, Value: 9})

	v := b.View(now.Add(time.Second))
	if len(v.Judges) != 1 || v.Judges[0].Text != "+3" {
		t.Fatalf("expected judge display got %+v", v.Judges)
	}
	if v.RedScore != 3 || v.BlueScore != 0 {
		t.Errorf("unexpected scores %d:%d", v.BlueScore, v.RedScore)
	}

	v = b.View(now.Add(bout.JudgeDisplayTTL))
	if len(v.Judges) != 0 {
		t.Errorf("judge display did not expire: %+v", v.Judges)
	}
}

func TestBoardFollowsEngine(t *testing.T) {
	t.Parallel()

	b := NewBoard()
	rules := bout.DefaultRules()
	e, err := bout.NewEngine(context.Background(), bout.Config{Rules: rules, Notifier: b, Controllers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	b.Reset(Corner{}, Corner{}, "", "", e.Snapshot())

	e.StartRound()
	e.AddScore(bout.SideBlue, 2)
	e.ApplyGamJeom(bout.SideBlue)
	e.EndRound()

	v := b.View(time.Now())
	s := e.Snapshot()
	if v.State != s.State || v.BlueScore != s.BlueScore || v.RedScore != s.RedScore || v.BlueGamJeom != 1 {
		t.Errorf("board %+v differs from engine %+v", v, s)
	}
	if len(v.Outcomes) != 1 || v.Outcomes[0] != bout.OutcomeBlue {
		t.Errorf("unexpected outcomes %v", v.Outcomes)
	}
}

func TestRenderView(t *testing.T) {
	t.Parallel()

	out := RenderView(View{
		MatchID:       "-54_R1_M1",
		Blue:          Corner{Name: "Kim"},
		State:         bout.StateRunning,
		Round:         2,
		TimeRemaining: 65,
		BlueScore:     4,
		Judges:        []JudgeDisplay{{Judge: 0, Side: bout.SideBlue, Text: "+2"}},
		Outcomes:      []bout.Outcome{bout.OutcomeRed},
		Winner:        bout.SideRed,
	})

	for _, want := range []string{"-54_R1_M1", "round 2", "1:05", "Kim: 4", "J1 +2", "red:", "rounds: red", "winner red"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in\n%s", want, out)
		}
	}
}

func TestConsoleSkipsQuietTicks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Notify(bout.Event{Kind: bout.EventTimeTick, Value: 47})
	c.Notify(bout.Event{Kind: bout.EventTimeTick, Value: 30})
	c.Notify(bout.Event{Kind: bout.EventMatchEnded, Side: bout.SideBlue})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines got %q", buf.String())
	}
	if !strings.Contains(lines[0], "0:30") || !strings.Contains(lines[1], "blue wins") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestMulti(t *testing.T) {
	t.Parallel()

	var n int
	count := bout.NotifierFunc(func(bout.Event) { n++ })
	Multi{count, count}.Notify(bout.Event{Kind: bout.EventTimeTick})
	if n != 2 {
		t.Errorf("expected 2 calls got %d", n)
	}
}

func TestHubStreamsEvents(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	board := NewBoard()
	hub := NewHub(ctx, board, func(*http.Request) bool { return true })
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageView {
		t.Fatalf("expected initial view got %s", msg.Type)
	}

	hub.Notify(bout.Event{Kind: bout.EventScoreChanged, Side: bout.SideRed, Value: 2})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	var evt bout.Event
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageEvent || evt.Kind != bout.EventScoreChanged || evt.Value != 2 {
		t.Errorf("unexpected message %s %+v", msg.Type, evt)
	}

	hub.PublishView(View{MatchID: "-54_R1_M1", Blue: Corner{Name: "Kim"}})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	var view View
	if err := json.Unmarshal(msg.Payload, &view); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageView || view.MatchID != "-54_R1_M1" || view.Blue.Name != "Kim" {
		t.Errorf("unexpected message %s %+v", msg.Type, view)
	}
}

type fakeSender struct {
	mtx  sync.Mutex
	sent []string
	ch   chan struct{}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mtx.Lock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	f.mtx.Unlock()
	f.ch <- struct{}{}
	return tgbotapi.Message{}, nil
}

func TestAnnouncer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tg := &fakeSender{ch: make(chan struct{}, 4)}
	a := NewAnnouncer(ctx, tg, 42)
	a.SetBout("-54 final", "Kim", "Lee")
	a.Run(ctx)

	a.Notify(bout.Event{Kind: bout.EventTimeTick, Value: 10})
	a.Notify(bout.Event{Kind: bout.EventRoundEnded, Round: 1, Outcome: bout.OutcomeDraw})
	a.Notify(bout.Event{Kind: bout.EventMatchEnded, Side: bout.SideRed})

	for i := 0; i < 2; i++ {
		select {
		case <-tg.ch:
		case <-time.After(5 * time.Second):
			t.Fatal("message not sent")
		}
	}

	tg.mtx.Lock()
	defer tg.mtx.Unlock()
	if len(tg.sent) != 2 {
		t.Fatalf("expected 2 messages got %v", tg.sent)
	}
	if !strings.Contains(tg.sent[0], "round 1: draw") || !strings.Contains(tg.sent[1], "Lee (red)") || !strings.HasPrefix(tg.sent[1], "-54 final") {
		t.Errorf("unexpected messages %q", tg.sent)
	}
}
