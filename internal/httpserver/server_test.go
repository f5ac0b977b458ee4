package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yikes-game/go-server/internal/catalog"
	"github.com/yikes-game/go-server/internal/game"
	"github.com/yikes-game/go-server/internal/store"
)

// newTestServer boots the full stack on a temp database: migrations, the
// embedded deck, stores, coordinator, router.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	cat := catalog.New(db)
	require.NoError(t, cat.Seed(context.Background()))

	st := store.New(db)
	coord := game.NewCoordinator(st, cat, 0)

	s := New(Config{
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "test_secret",
		CookieName:     "yikes_token",
		JWTExpiresDays: 14,
	}, st, cat, coord)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

// newClient returns an HTTP client with a cookie jar, so auth and visitor
// cookies behave as they would in a browser.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(res.Body).Decode(&decoded)
	return res, decoded
}

func signup(t *testing.T, client *http.Client, base, username string) {
	t.Helper()
	res, _ := doJSON(t, client, http.MethodPost, base+"/auth/signup",
		map[string]string{"username": username, "password": "hunter2hunter2"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	res, body := doJSON(t, newClient(t), http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestGamesRequireAuth(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	res, _ := doJSON(t, client, http.MethodPost, ts.URL+"/games", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = doJSON(t, client, http.MethodGet, ts.URL+"/games", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestDemoFlow(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	res, body := doJSON(t, client, http.MethodPost, ts.URL+"/demo", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	hand, ok := body["initialHand"].([]any)
	require.True(t, ok)
	require.Len(t, hand, 3)
	for _, c := range hand {
		card := c.(map[string]any)
		assert.Greater(t, card["misfortune"].(float64), 0.0, "demo hand misfortune is visible")
	}

	newCard, ok := body["newCard"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, newCard, "misfortune", "target card must stay hidden")
	assert.NotEmpty(t, newCard["title"])

	// Evaluate with a hand of the client's choosing; the demo trusts it.
	evalReq := map[string]any{
		"initialHand": []map[string]any{
			{"id": 1, "title": "a", "imageUrl": "x", "misfortune": 5},
			{"id": 2, "title": "b", "imageUrl": "x", "misfortune": 40},
			{"id": 3, "title": "c", "imageUrl": "x", "misfortune": 85},
		},
		"guessCard": map[string]any{"id": 4, "title": "d", "imageUrl": "x", "misfortune": 95},
		"index":     3,
	}
	res, body = doJSON(t, client, http.MethodPost, ts.URL+"/demo/evaluate", evalReq)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["won"])

	// A null index (countdown expired) always loses.
	evalReq["index"] = nil
	res, body = doJSON(t, client, http.MethodPost, ts.URL+"/demo/evaluate", evalReq)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, false, body["won"])
}

func TestDemoRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	res, _ := doJSON(t, client, http.MethodPost, ts.URL+"/demo/evaluate", map[string]any{
		"initialHand": []map[string]any{{"id": 1, "misfortune": 5}},
		"guessCard":   map[string]any{"id": 4, "title": "d", "misfortune": 95},
		"index":       1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res, _ = doJSON(t, client, http.MethodPost, ts.URL+"/demo/evaluate", map[string]any{
		"initialHand": []map[string]any{
			{"id": 1, "misfortune": 5}, {"id": 2, "misfortune": 40}, {"id": 3, "misfortune": 85},
		},
		"index": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, "guessCard is required")
}

func TestDemoForbiddenWhenLoggedIn(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "player_one")

	res, _ := doJSON(t, client, http.MethodPost, ts.URL+"/demo", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "player_one")

	res, body := doJSON(t, client, http.MethodGet, ts.URL+"/auth/me", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "player_one", body["username"])

	t.Run("duplicate username conflicts", func(t *testing.T) {
		res, _ := doJSON(t, newClient(t), http.MethodPost, ts.URL+"/auth/signup",
			map[string]string{"username": "player_one", "password": "hunter2hunter2"})
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		res, _ := doJSON(t, newClient(t), http.MethodPost, ts.URL+"/auth/login",
			map[string]string{"username": "player_one", "password": "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("logout clears the session", func(t *testing.T) {
		res, _ := doJSON(t, client, http.MethodPost, ts.URL+"/auth/logout", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		res, _ = doJSON(t, client, http.MethodGet, ts.URL+"/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})
}

func TestGameFlow(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "player_one")

	// Create a game.
	res, body := doJSON(t, client, http.MethodPost, ts.URL+"/games", map[string]any{})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	g := body["game"].(map[string]any)
	gameID := int(g["id"].(float64))
	assert.Equal(t, "ongoing", g["status"])

	hand := body["initialHand"].([]any)
	require.Len(t, hand, 3)
	for _, c := range hand {
		assert.Greater(t, c.(map[string]any)["misfortune"].(float64), 0.0,
			"the owner sees the initial hand's misfortune")
	}

	gameURL := ts.URL + "/games/" + itoa(gameID)

	// Start round 1: the dealt card must not leak its misfortune.
	res, card := doJSON(t, client, http.MethodPost, gameURL+"/rounds", map[string]any{"roundId": 1})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.NotContains(t, card, "misfortune")
	assert.NotEmpty(t, card["title"])

	// Resolve it; whatever the outcome, the response carries the verdict,
	// the updated hand, and the revealed card.
	res, verdict := doJSON(t, client, http.MethodPatch, gameURL+"/rounds/1", map[string]any{"insertIndex": 1})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, verdict, "correct")
	guessed := verdict["guessedCard"].(map[string]any)
	assert.Greater(t, guessed["misfortune"].(float64), 0.0, "misfortune is revealed after resolution")

	// Resolving the same round again conflicts.
	res, _ = doJSON(t, client, http.MethodPatch, gameURL+"/rounds/1", map[string]any{"insertIndex": 1})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// Advance recomputes the status.
	res, advanced := doJSON(t, client, http.MethodPatch, gameURL, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ongoing", advanced["status"])

	// Out-of-order round start is rejected as invalid input.
	res, _ = doJSON(t, client, http.MethodPost, gameURL+"/rounds", map[string]any{"roundId": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	// History lists the game with its rounds.
	res, _ = doJSON(t, client, http.MethodGet, ts.URL+"/games", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestGameOwnership(t *testing.T) {
	ts := newTestServer(t)

	owner := newClient(t)
	signup(t, owner, ts.URL, "player_one")
	res, body := doJSON(t, owner, http.MethodPost, ts.URL+"/games", map[string]any{})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	gameID := int(body["game"].(map[string]any)["id"].(float64))

	intruder := newClient(t)
	signup(t, intruder, ts.URL, "player_two")
	res, _ = doJSON(t, intruder, http.MethodGet, ts.URL+"/games/"+itoa(gameID), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "foreign games look missing")
}

func TestGetCard(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	res, card := doJSON(t, client, http.MethodGet, ts.URL+"/cards/1", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Greater(t, card["misfortune"].(float64), 0.0)

	res, _ = doJSON(t, client, http.MethodGet, ts.URL+"/cards/99999", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func itoa(n int) string { return strconv.Itoa(n) }
