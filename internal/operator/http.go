package operator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tkwin-games/tkwin/internal/database"
	"github.com/tkwin-games/tkwin/internal/server"
	"github.com/tkwin-games/tkwin/internal/tournament"
)

type wsHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// OriginChecker accepts websocket upgrades from the configured origins, "*"
// accepts any.
func OriginChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}

		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Routes serves the read-only scoreboard and tournament API.
func (o *Operator) Routes(ctx context.Context, ws wsHandler, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Method(http.MethodGet, "/health", server.HandleHealth(ctx))
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scoreboard", o.handleScoreboard)
		r.Get("/tournament", o.handleTournament)
		r.Get("/tournament/pending", o.handlePending)
		r.Get("/bouts", o.handleBouts)
		r.Get("/bouts/{matchID}", o.handleMatchBouts)
	})
	return r
}

type tournamentView struct {
	ID         string            `json:"tournament_id"`
	Name       string            `json:"name"`
	Date       string            `json:"date"`
	Location   string            `json:"location"`
	Categories []string          `json:"categories"`
	Completed  int               `json:"completed"`
	Total      int               `json:"total"`
	Champions  map[string]string `json:"champions"`
}

type pendingMatch struct {
	ID     string `json:"match_id"`
	Round  int    `json:"round"`
	Number int    `json:"number"`
	Blue   string `json:"blue"`
	Red    string `json:"red"`
}

type pendingCategory struct {
	Category string         `json:"category"`
	Matches  []pendingMatch `json:"matches"`
}

func (o *Operator) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	o.writeJSON(w, http.StatusOK, o.params.Board.View(o.now()))
}

func (o *Operator) handleTournament(w http.ResponseWriter, r *http.Request) {
	var view tournamentView
	err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		view = tournamentView{
			ID:         t.ID,
			Name:       t.Name,
			Date:       t.Date,
			Location:   t.Location,
			Categories: t.Categories(),
			Champions:  map[string]string{},
		}
		view.Completed, view.Total = t.Progress()
		for _, c := range view.Categories {
			if p, ok := t.Champion(c); ok {
				view.Champions[c] = p.DisplayName()
			}
		}
		return nil
	})
	if err != nil {
		o.writeError(w, err)
		return
	}
	o.writeJSON(w, http.StatusOK, view)
}

func (o *Operator) handlePending(w http.ResponseWriter, r *http.Request) {
	list := []pendingCategory{}
	err := o.params.Tournaments.Do(func(t *tournament.Tournament) error {
		for _, group := range t.PendingByCategory() {
			pc := pendingCategory{Category: group.Category}
			for _, m := range group.Matches {
				pm := pendingMatch{ID: m.ID, Round: m.Round, Number: m.Number, Blue: m.BlueID, Red: m.RedID}
				if p, ok := t.Player(m.BlueID); ok {
					pm.Blue = p.DisplayName()
				}
				if p, ok := t.Player(m.RedID); ok {
					pm.Red = p.DisplayName()
				}
				pc.Matches = append(pc.Matches, pm)
			}
			list = append(list, pc)
		}
		return nil
	})
	if err != nil {
		o.writeError(w, err)
		return
	}
	o.writeJSON(w, http.StatusOK, list)
}

func (o *Operator) handleBouts(w http.ResponseWriter, r *http.Request) {
	bouts, err := o.params.Archive.FetchAll()
	if err != nil {
		o.writeError(w, err)
		return
	}
	o.writeJSON(w, http.StatusOK, bouts)
}

func (o *Operator) handleMatchBouts(w http.ResponseWriter, r *http.Request) {
	bouts, err := o.params.Archive.FetchByMatch(chi.URLParam(r, "matchID"))
	if err != nil {
		o.writeError(w, err)
		return
	}
	o.writeJSON(w, http.StatusOK, bouts)
}

func (o *Operator) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tournament.ErrNoTournament), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	default:
		o.logger.Errorf("http: %v", err)
	}
	o.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (o *Operator) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		o.logger.Errorf("write response: %v", err)
	}
}
