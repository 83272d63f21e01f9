package operator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tkwin-games/tkwin/internal/scoreboard"
)

type stubWS struct{}

func (stubWS) ServeWS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func get(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.op.Routes(context.Background(), stubWS{}, []string{"*"})

	if rec := get(t, h, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health: expected %d got %d", http.StatusOK, rec.Code)
	}
	if rec := get(t, h, "/ws", nil); rec.Code != http.StatusTeapot {
		t.Errorf("ws: expected %d got %d", http.StatusTeapot, rec.Code)
	}
	if rec := get(t, h, "/api/tournament", nil); rec.Code != http.StatusNotFound {
		t.Errorf("tournament: expected %d got %d", http.StatusNotFound, rec.Code)
	}
	if rec := get(t, h, "/api/bouts/none", nil); rec.Code != http.StatusNotFound {
		t.Errorf("bouts: expected %d got %d", http.StatusNotFound, rec.Code)
	}

	f.exec(t, "new Open Cup|12/05/2024|Seoul")
	rec := get(t, h, "/api/tournament", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tournament: expected %d got %d", http.StatusOK, rec.Code)
	}
	var view tournamentView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.ID != "Open_Cup_12_05_2024" || view.Location != "Seoul" {
		t.Errorf("unexpected view %+v", view)
	}

	f.exec(t, "free Kim|Lee")
	rec = get(t, h, "/api/scoreboard", http.Header{"Origin": {"http://display.local"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("scoreboard: expected %d got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected cors header * got %q", got)
	}
	var board scoreboard.View
	if err := json.NewDecoder(rec.Body).Decode(&board); err != nil {
		t.Fatal(err)
	}
	if board.Blue.Name != "Kim" || board.Red.Name != "Lee" {
		t.Errorf("unexpected board %+v", board)
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	check := OriginChecker([]string{"http://display.local"})
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{origin: "", host: "mat.local", want: true},
		{origin: "http://display.local", host: "mat.local", want: true},
		{origin: "http://mat.local:8080", host: "mat.local:8080", want: true},
		{origin: "http://evil.local", host: "mat.local", want: false},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Host = tc.host
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := check(req); got != tc.want {
			t.Errorf("%s: expected %v got %v", tc.origin, tc.want, got)
		}
	}
}
