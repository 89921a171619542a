package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"candy-rush/constants"
	"candy-rush/game"
	"candy-rush/scores"
)

const maxScoreBody = 16 << 10

// ScoresHandler serves the leaderboard API and a couple of read-only views of
// the live server.
type ScoresHandler struct {
	repo        scores.Repository
	gameManager *game.Manager
	logger      *log.Logger
}

func NewScoresHandler(repo scores.Repository, gameManager *game.Manager, logger *log.Logger) *ScoresHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ScoresHandler{repo: repo, gameManager: gameManager, logger: logger}
}

type singleScoreRequest struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

func (h *ScoresHandler) PostSingle(w http.ResponseWriter, r *http.Request) {
	var req singleScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	level, err := h.repo.RecordSingle(r.Context(), req.PlayerName, req.Score)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "level": level})
}

func (h *ScoresHandler) ListSingle(w http.ResponseWriter, r *http.Request) {
	limit := scores.ClampLimit(queryInt(r, "limit"), scores.DefaultSingleLimit)
	list, err := h.repo.ListSingle(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if list == nil {
		list = []scores.SingleScore{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scores": list})
}

type matchScoreRequest struct {
	Player1Name  string  `json:"player1Name"`
	Player2Name  *string `json:"player2Name"`
	Player1Score int     `json:"player1Score"`
	Player2Score *int    `json:"player2Score"`
}

// PostMatch records a match reported by a client; the winner is decided here
// by score.
func (h *ScoresHandler) PostMatch(w http.ResponseWriter, r *http.Request) {
	var req matchScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Player2Name != nil && strings.TrimSpace(*req.Player2Name) == "" {
		req.Player2Name = nil
	}
	record := scores.MatchRecord{
		Player1Name:  strings.TrimSpace(req.Player1Name),
		Player1Score: req.Player1Score,
		Winner:       strings.TrimSpace(req.Player1Name),
	}
	if req.Player2Name != nil {
		p2Score := 0
		if req.Player2Score != nil {
			p2Score = *req.Player2Score
		}
		record.Player2Name = req.Player2Name
		record.Player2Score = &p2Score
		record.Winner = scores.WinnerByScore(record.Player1Name, req.Player1Score, *req.Player2Name, p2Score, constants.DRAW)
	}

	if err := h.repo.RecordMatch(r.Context(), record); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "winner": record.Winner})
}

func (h *ScoresHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit := scores.ClampLimit(queryInt(r, "limit"), scores.DefaultMatchLimit)
	list, err := h.repo.ListMatches(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if list == nil {
		list = []scores.MatchScore{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "scores": list})
}

// Clear empties both leaderboards. It is mounted behind admin auth.
func (h *ScoresHandler) Clear(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.Clear(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Printf("Leaderboards cleared (single=%d multi=%d)", res.SingleCount, res.MultiCount)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Scores cleared",
		"singleCount": res.SingleCount,
		"multiCount":  res.MultiCount,
	})
}

func (h *ScoresHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":   h.gameManager.Rooms.Len(),
		"clients": h.gameManager.Clients.Len(),
	})
}

func (h *ScoresHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"rooms":   h.gameManager.Rooms.Rooms(),
	})
}

func (h *ScoresHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, scores.ErrInvalidRecord) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}
	h.logger.Printf("Score request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
