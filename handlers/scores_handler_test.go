package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"candy-rush/auth"
	"candy-rush/scores"
)

type brokenRepo struct {
	scores.Repository
}

func (brokenRepo) ListSingle(context.Context, int) ([]scores.SingleScore, error) {
	return nil, errors.New("disk on fire")
}

func newTestRouter(t *testing.T, repo scores.Repository, issuer *auth.Issuer) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		GameManager: newTestManager(t),
		Scores:      repo,
		Issuer:      issuer,
		Logger:      quietLogger(),
	})
}

func doJSON(t *testing.T, h http.Handler, method, target, body string, header http.Header) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
	}
	return rec.Code, out
}

func TestSingleScores(t *testing.T) {
	router := newTestRouter(t, scores.NewMemoryStore(), nil)

	status, body := doJSON(t, router, http.MethodPost, "/api/scores/single", `{"playerName":"Vanellope","score":600}`, nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("post: %d %v", status, body)
	}
	if body["level"] != float64(3) {
		t.Fatalf("level = %v, want 3", body["level"])
	}
	for i, score := range []int{100, 900, 300} {
		payload := `{"playerName":"p","score":` + strconv.Itoa(score) + `}`
		if status, _ := doJSON(t, router, http.MethodPost, "/api/scores/single", payload, nil); status != http.StatusOK {
			t.Fatalf("post #%d: %d", i, status)
		}
	}

	status, body = doJSON(t, router, http.MethodGet, "/api/scores/single?limit=2", "", nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d", status)
	}
	list := body["scores"].([]any)
	if len(list) != 2 {
		t.Fatalf("got %d scores, want 2", len(list))
	}
	if top := list[0].(map[string]any); top["score"] != float64(900) {
		t.Fatalf("top score = %v", top["score"])
	}

	if status, body = doJSON(t, router, http.MethodGet, "/api/scores/single?limit=junk", "", nil); len(body["scores"].([]any)) != 4 {
		t.Fatalf("default limit: %d %v", status, body)
	}
}

func TestSingleScoreValidation(t *testing.T) {
	router := newTestRouter(t, scores.NewMemoryStore(), nil)

	if status, body := doJSON(t, router, http.MethodPost, "/api/scores/single", `{"score":10}`, nil); status != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("missing name: %d %v", status, body)
	}
	if status, _ := doJSON(t, router, http.MethodPost, "/api/scores/single", `{`, nil); status != http.StatusBadRequest {
		t.Fatalf("bad json: %d", status)
	}
}

func TestMatchScores(t *testing.T) {
	router := newTestRouter(t, scores.NewMemoryStore(), nil)

	tests := []struct {
		name   string
		body   string
		winner string
	}{
		{name: "player one wins", body: `{"player1Name":"A","player2Name":"B","player1Score":300,"player2Score":120}`, winner: "A"},
		{name: "player two wins", body: `{"player1Name":"A","player2Name":"B","player1Score":10,"player2Score":120}`, winner: "B"},
		{name: "tie", body: `{"player1Name":"A","player2Name":"B","player1Score":50,"player2Score":50}`, winner: "Draw"},
		{name: "no opponent", body: `{"player1Name":"Solo","player1Score":50}`, winner: "Solo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, router, http.MethodPost, "/api/scores/multiplayer", tt.body, nil)
			if status != http.StatusOK {
				t.Fatalf("status = %d (%v)", status, body)
			}
			if body["winner"] != tt.winner {
				t.Fatalf("winner = %v, want %s", body["winner"], tt.winner)
			}
		})
	}

	_, body := doJSON(t, router, http.MethodGet, "/api/scores/multiplayer", "", nil)
	list := body["scores"].([]any)
	if len(list) != len(tests) {
		t.Fatalf("got %d matches, want %d", len(list), len(tests))
	}
	newest := list[0].(map[string]any)
	if newest["player1Name"] != "Solo" || newest["player2Name"] != nil {
		t.Fatalf("newest match = %v", newest)
	}
}

func TestRepositoryFailureIs500(t *testing.T) {
	router := newTestRouter(t, brokenRepo{Repository: scores.NewMemoryStore()}, nil)

	status, body := doJSON(t, router, http.MethodGet, "/api/scores/single", "", nil)
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if body["success"] != false || body["error"] != "disk on fire" {
		t.Fatalf("body = %v", body)
	}
}

func TestClearRequiresAdmin(t *testing.T) {
	issuer := auth.NewIssuer("test-secret")
	repo := scores.NewMemoryStore()
	router := newTestRouter(t, repo, issuer)

	if _, err := repo.RecordSingle(context.Background(), "a", 100); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if status, _ := doJSON(t, router, http.MethodDelete, "/api/scores/clear", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous clear: %d", status)
	}

	token, err := issuer.GenerateToken("ops", auth.RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	status, body := doJSON(t, router, http.MethodDelete, "/api/scores/clear", "", http.Header{"Authorization": {"Bearer " + token}})
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("admin clear: %d %v", status, body)
	}
	if body["singleCount"] != float64(0) || body["multiCount"] != float64(0) {
		t.Fatalf("counts = %v", body)
	}

	list, _ := repo.ListSingle(context.Background(), 10)
	if len(list) != 0 {
		t.Fatalf("scores left after clear: %d", len(list))
	}
}

func TestClearDisabledWithoutSecret(t *testing.T) {
	router := newTestRouter(t, scores.NewMemoryStore(), nil)
	if status, _ := doJSON(t, router, http.MethodDelete, "/api/scores/clear", "", nil); status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}

func TestHealthAndRooms(t *testing.T) {
	gm := newTestManager(t)
	router := NewRouter(Deps{GameManager: gm, Scores: scores.NewMemoryStore(), Logger: quietLogger()})

	room, err := gm.Rooms.Create("multiplayer")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	status, body := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || body["rooms"] != float64(1) || body["clients"] != float64(0) {
		t.Fatalf("healthz: %d %v", status, body)
	}

	status, body = doJSON(t, router, http.MethodGet, "/api/rooms", "", nil)
	if status != http.StatusOK {
		t.Fatalf("rooms: %d", status)
	}
	rooms := body["rooms"].([]any)
	if len(rooms) != 1 || rooms[0].(map[string]any)["code"] != room.Code {
		t.Fatalf("rooms = %v", rooms)
	}
}
