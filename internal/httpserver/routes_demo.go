// internal/httpserver/routes_demo.go
//
// HTTP routes for demo mode, the single-round variant for anonymous
// visitors. Nothing is persisted server-side: the deal travels out with the
// hand visible and the target hidden, and the evaluation request carries the
// full hand back in. A visitor cookie tags demo plays in the logs; it
// carries no game state.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	uuid "github.com/satori/go.uuid"

	"github.com/yikes-game/go-server/internal/game"
)

// mountDemo registers the guest-only /demo routes.
func (s *Server) mountDemo() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireGuest())
		r.Post("/demo", s.handleStartDemo)
		r.Post("/demo/evaluate", s.handleEvaluateDemo)
	})
}

// demoStartRes is returned by POST /demo. The hand's misfortune values are
// visible (the server keeps no copy to check against later), the new card's
// is not.
type demoStartRes struct {
	InitialHand []game.Card `json:"initialHand"`
	NewCard     hiddenCard  `json:"newCard"`
}

// handleStartDemo deals a fresh single-round demo session.
func (s *Server) handleStartDemo(w http.ResponseWriter, r *http.Request) {
	deal, err := s.coord.StartDemo(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	log.Debug().Str("visitor", s.ensureVisitorID(w, r)).Msg("demo started")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(demoStartRes{
		InitialHand: deal.InitialHand,
		NewCard:     hideCard(deal.NewCard),
	})
}

// demoEvaluateReq is the payload for POST /demo/evaluate. The client sends
// its whole hand and the candidate card back; demo mode trusts them by
// design. A null (or absent) index means the countdown expired.
type demoEvaluateReq struct {
	InitialHand []game.Card `json:"initialHand"`
	GuessCard   game.Card   `json:"guessCard"`
	Index       *int        `json:"index"`
}

// demoEvaluateRes is returned by POST /demo/evaluate.
type demoEvaluateRes struct {
	Won bool `json:"won"`
}

// handleEvaluateDemo runs the one demo round through the shared evaluator.
func (s *Server) handleEvaluateDemo(w http.ResponseWriter, r *http.Request) {
	var body demoEvaluateReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	if body.GuessCard == (game.Card{}) {
		http.Error(w, `{"error":"invalid guessCard: must not be empty"}`, http.StatusUnprocessableEntity)
		return
	}
	won, err := s.coord.EvaluateDemo(body.InitialHand, body.GuessCard, body.Index)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	log.Debug().Str("visitor", s.ensureVisitorID(w, r)).Bool("won", won).Msg("demo evaluated")
	_ = json.NewEncoder(w).Encode(demoEvaluateRes{Won: won})
}

const visitorCookieName = "yikes_visitor"

// ensureVisitorID returns an existing visitor cookie or sets a new one.
// Used only to correlate demo plays in the logs.
func (s *Server) ensureVisitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewV4().String()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}
