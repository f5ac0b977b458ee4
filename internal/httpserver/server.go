// internal/httpserver/server.go
//
// HTTP wiring for the Yikes! game server.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", card lookup, static card images.
//   - Persisted-game endpoints (require auth, owner-checked by the engine).
//   - Demo endpoints (guest-only): mounted in routes_demo.go.
//   - Mapping engine errors onto HTTP status codes.
//
// The handlers shape every response; in particular a card's hidden
// misfortune value is dropped here, at the boundary, never by trusting the
// client to ignore it.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"

	"github.com/yikes-game/go-server/internal/catalog"
	"github.com/yikes-game/go-server/internal/game"
	"github.com/yikes-game/go-server/internal/store"
)

// Config carries the environment-derived settings the HTTP layer needs.
type Config struct {
	ClientOrigin   string
	JWTSecret      string
	CookieName     string
	JWTExpiresDays int
	StaticDir      string
	Production     bool
}

// Server bundles router, stores, and the round coordinator.
type Server struct {
	r     *chi.Mux
	st    *store.Store
	cat   *catalog.Catalog
	coord *game.Coordinator
	cfg   Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, st *store.Store, cat *catalog.Catalog, coord *game.Coordinator) *Server {
	s := &Server{r: chi.NewRouter(), st: st, cat: cat, coord: coord, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"yikes-go","endpoints":["/health","/cards/{id}","/auth/*","/games","/demo"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Card catalog lookup (public, misfortune revealed — reference data
	// used for feedback screens after a round resolves).
	s.r.Get("/cards/{cardID}", s.handleGetCard)

	// Card artwork.
	if cfg.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		s.r.Handle("/static/*", fs)
	}

	// Persisted games — REQUIRE AUTH.
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/games", s.handleCreateGame)
		r.Get("/games", s.handleListGames)
		r.Get("/games/{gameID}", s.handleGetGame)
		r.Get("/games/{gameID}/rounds", s.handleGetRounds)
		r.Post("/games/{gameID}/rounds", s.handleStartRound)
		r.Patch("/games/{gameID}/rounds/{roundID}", s.handleResolveRound)
		r.Patch("/games/{gameID}", s.handleAdvance)
	})

	// Demo — GUEST ONLY.
	s.mountDemo()

	// Auth endpoints.
	s.mountAuthRoutes()

	// JSON 404 for easier debugging.
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr, with access logs through zerolog.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, handlers.CombinedLoggingHandler(log.Logger, s.r))
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ responses ----------------------------------

// hiddenCard is a catalog card as shown before its round resolves: the
// misfortune value never leaves the server at this stage.
type hiddenCard struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

func hideCard(c game.Card) hiddenCard {
	return hiddenCard{ID: c.ID, Title: c.Title, ImageURL: c.ImageURL}
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case game.IsValidation(err):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnprocessableEntity)
	case err == game.ErrNoCardsAvailable:
		http.Error(w, `{"error":"No more cards available."}`, http.StatusNotFound)
	case err == game.ErrNotFound:
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case err == game.ErrConflict:
		http.Error(w, `{"error":"conflict"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("engine call failed")
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
	}
}

// -------------------------------- cards ------------------------------------

// handleGetCard returns a catalog card by id, misfortune included.
func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "cardID"))
	if err != nil {
		http.Error(w, `{"error":"invalid card id"}`, http.StatusUnprocessableEntity)
		return
	}
	card, err := s.cat.Card(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(card)
}

// -------------------------------- games ------------------------------------

// createGameRes is returned by POST /games. The initial hand is visible to
// its owner, misfortune included: those cards are already resolved.
type createGameRes struct {
	Game        *game.Game  `json:"game"`
	InitialHand []game.Card `json:"initialHand"`
}

// handleCreateGame starts a new game for the authenticated user.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	g, hand, err := s.coord.CreateGame(r.Context(), me.ID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createGameRes{Game: g, InitialHand: hand})
}

// handleListGames returns the user's game history enriched with per-round
// card detail (misfortune revealed — a historical, read-only view).
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	hist, err := s.coord.History(r.Context(), me.ID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(hist)
}

// handleGetGame returns one of the user's games.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"invalid game id"}`, http.StatusUnprocessableEntity)
		return
	}
	g, err := s.coord.Game(r.Context(), me.ID, gameID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(g)
}

// handleGetRounds returns the raw round records of one of the user's games.
func (s *Server) handleGetRounds(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"invalid game id"}`, http.StatusUnprocessableEntity)
		return
	}
	records, err := s.coord.GameRounds(r.Context(), me.ID, gameID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(records)
}

// startRoundReq is the payload for POST /games/{gameID}/rounds.
type startRoundReq struct {
	RoundID int `json:"roundId"`
}

// handleStartRound deals the next round's card, misfortune stripped.
func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"invalid game id"}`, http.StatusUnprocessableEntity)
		return
	}
	var body startRoundReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	card, err := s.coord.StartRound(r.Context(), me.ID, gameID, body.RoundID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(hideCard(*card))
}

// resolveRoundReq is the payload for PATCH /games/{gameID}/rounds/{roundID}.
// A null (or absent) index means the countdown expired with no guess.
type resolveRoundReq struct {
	InsertIndex *int `json:"insertIndex"`
}

// handleResolveRound evaluates the player's guess for a pending round.
func (s *Server) handleResolveRound(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"invalid game id"}`, http.StatusUnprocessableEntity)
		return
	}
	roundID, err := strconv.Atoi(chi.URLParam(r, "roundID"))
	if err != nil {
		http.Error(w, `{"error":"invalid round id"}`, http.StatusUnprocessableEntity)
		return
	}
	var body resolveRoundReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	result, err := s.coord.ResolveRound(r.Context(), me.ID, gameID, roundID, body.InsertIndex)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(result)
}

// handleAdvance recomputes and returns the game's status.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"invalid game id"}`, http.StatusUnprocessableEntity)
		return
	}
	g, err := s.coord.Advance(r.Context(), me.ID, gameID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(g)
}
