package game

import (
	"crypto/rand"
	"log"
	"math/big"
	"sort"
	"sync"

	"candy-rush/constants"
	"candy-rush/models"
	"candy-rush/scores"
)

// Registry owns the set of live rooms keyed by code. Nothing else holds the
// map; rooms are reached through Create and Get.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	tuning  Tuning
	scores  scores.Repository
	logger  *log.Logger
	newCode func() (string, error)
}

func NewRegistry(repo scores.Repository, tuning Tuning, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		tuning:  tuning,
		scores:  repo,
		logger:  logger,
		newCode: GenerateCode,
	}
}

// Create starts an empty room under a fresh code. It fails only when no free
// code turns up within a bounded number of draws; callers may retry.
func (g *Registry) Create(mode models.Mode) (*Room, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for attempt := 0; attempt < constants.ROOM_CODE_ATTEMPTS; attempt++ {
		code, err := g.newCode()
		if err != nil {
			g.logger.Printf("Room code generation failed: %v", err)
			return nil, ErrCodeSpaceExhausted
		}
		if _, exists := g.rooms[code]; exists {
			continue
		}
		r := NewRoom(code, mode, g.tuning, g.scores, g.logger)
		r.OnEmpty = g.Remove
		g.rooms[code] = r
		go r.Run()
		return r, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	return r, ok
}

// Join seats a client in the room with the given code.
func (g *Registry) Join(code string, req JoinRequest) (*Room, error) {
	r, ok := g.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := r.Join(req); err != nil {
		return nil, err
	}
	return r, nil
}

// Remove stops and forgets a room. Safe to call more than once.
func (g *Registry) Remove(code string) {
	g.mu.Lock()
	r, ok := g.rooms[code]
	delete(g.rooms, code)
	g.mu.Unlock()

	if ok {
		r.Stop()
	}
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Rooms lists live rooms ordered by code.
func (g *Registry) Rooms() []RoomInfo {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if info, ok := r.Info(); ok {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Shutdown stops every room and waits for pending score writes.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for code, r := range g.rooms {
		rooms = append(rooms, r)
		delete(g.rooms, code)
	}
	g.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
		<-r.Done()
		r.persists.Wait()
	}
}

// GenerateCode draws a room code from the shared alphabet.
func GenerateCode() (string, error) {
	b := make([]byte, constants.ROOM_CODE_LENGTH)
	max := big.NewInt(int64(len(constants.ROOM_CODE_ALPHABET)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = constants.ROOM_CODE_ALPHABET[idx.Int64()]
	}
	return string(b), nil
}
