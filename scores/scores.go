// Package scores persists finished-match results and serves leaderboard queries.
package scores

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultSingleLimit = 10
	DefaultMatchLimit  = 20
	MaxLimit           = 100
)

var ErrInvalidRecord = errors.New("invalid score record")

// Repository is shared by every room; implementations must be safe for
// concurrent use.
type Repository interface {
	RecordSingle(ctx context.Context, name string, score int) (int, error)
	RecordMatch(ctx context.Context, match MatchRecord) error
	ListSingle(ctx context.Context, limit int) ([]SingleScore, error)
	ListMatches(ctx context.Context, limit int) ([]MatchScore, error)
	Clear(ctx context.Context) (ClearResult, error)
}

type SingleScore struct {
	ID         int64     `json:"id"`
	PlayerName string    `json:"playerName"`
	Score      int       `json:"score"`
	Level      int       `json:"level"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MatchRecord is a finished multiplayer match. Player2 fields are nil when the
// opponent is gone.
type MatchRecord struct {
	Player1Name  string
	Player2Name  *string
	Player1Score int
	Player2Score *int
	Winner       string
}

type MatchScore struct {
	ID           int64     `json:"id"`
	Player1Name  string    `json:"player1Name"`
	Player2Name  *string   `json:"player2Name"`
	Player1Score int       `json:"player1Score"`
	Player2Score *int      `json:"player2Score"`
	Winner       string    `json:"winner"`
	GameMode     string    `json:"gameMode"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ClearResult struct {
	SingleCount int `json:"singleCount"`
	MultiCount  int `json:"multiCount"`
}

var levelThresholds = []int{200, 500, 1000, 2000, 3500, 5000, 7500, 10000, 15000}

// Level maps a final score onto the reporting level: one step per threshold,
// then one more every 5000 points past the last one.
func Level(score int) int {
	for i, threshold := range levelThresholds {
		if score < threshold {
			return i + 1
		}
	}
	last := levelThresholds[len(levelThresholds)-1]
	return len(levelThresholds) + 1 + (score-last)/5000
}

// WinnerByScore names the higher scorer, or the draw marker on a tie.
func WinnerByScore(p1Name string, p1Score int, p2Name string, p2Score int, draw string) string {
	switch {
	case p1Score > p2Score:
		return p1Name
	case p2Score > p1Score:
		return p2Name
	}
	return draw
}

// ClampLimit applies the default for non-positive limits and caps the rest.
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (m MatchRecord) Validate() error {
	if m.Player1Name == "" {
		return errors.Join(ErrInvalidRecord, errors.New("player1 name is required"))
	}
	if (m.Player2Name == nil) != (m.Player2Score == nil) {
		return errors.Join(ErrInvalidRecord, errors.New("player2 name and score go together"))
	}
	if m.Winner == "" {
		return errors.Join(ErrInvalidRecord, errors.New("winner is required"))
	}
	return nil
}
