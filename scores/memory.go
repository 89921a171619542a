package scores

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps scores for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	singles []SingleScore
	matches []MatchScore
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) RecordSingle(ctx context.Context, name string, score int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.Join(ErrInvalidRecord, errors.New("player name is required"))
	}
	level := Level(score)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.singles = append(s.singles, SingleScore{
		ID:         s.nextID,
		PlayerName: name,
		Score:      score,
		Level:      level,
		CreatedAt:  s.now().UTC(),
	})
	return level, nil
}

func (s *MemoryStore) RecordMatch(ctx context.Context, match MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := match.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.matches = append(s.matches, MatchScore{
		ID:           s.nextID,
		Player1Name:  match.Player1Name,
		Player2Name:  match.Player2Name,
		Player1Score: match.Player1Score,
		Player2Score: match.Player2Score,
		Winner:       match.Winner,
		GameMode:     "multiplayer",
		CreatedAt:    s.now().UTC(),
	})
	return nil
}

func (s *MemoryStore) ListSingle(ctx context.Context, limit int) ([]SingleScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = ClampLimit(limit, DefaultSingleLimit)

	s.mu.RLock()
	out := make([]SingleScore, len(s.singles))
	copy(out, s.singles)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListMatches(ctx context.Context, limit int) ([]MatchScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = ClampLimit(limit, DefaultMatchLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MatchScore, 0, min(limit, len(s.matches)))
	for i := len(s.matches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.matches[i])
	}
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context) (ClearResult, error) {
	if err := ctx.Err(); err != nil {
		return ClearResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.singles = nil
	s.matches = nil
	return ClearResult{}, nil
}
