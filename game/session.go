package game

import (
	"fmt"
	"math/rand"
	"time"

	"candy-rush/constants"
	"candy-rush/models"
)

// Session is the state of one match. It is not safe for concurrent use; the
// owning Room serializes every call.
type Session struct {
	Code  string
	Mode  models.Mode
	Phase models.Phase

	seats     []*models.Player
	candies   []*models.Candy
	obstacles []*models.Obstacle

	nextCandyID    int
	nextObstacleID int

	baseSpeed    float64
	currentSpeed float64

	lastCandySpawn    time.Time
	lastObstacleSpawn time.Time

	tuning Tuning
	rng    *rand.Rand
}

func NewSession(code string, mode models.Mode, tuning Tuning, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		Code:         code,
		Mode:         mode,
		Phase:        models.PhaseLobby,
		seats:        make([]*models.Player, mode.Capacity()),
		baseSpeed:    tuning.BaseSpeed,
		currentSpeed: tuning.BaseSpeed,
		tuning:       tuning,
		rng:          rng,
	}
}

// Players returns the seated players in seat order.
func (s *Session) Players() []*models.Player {
	out := make([]*models.Player, 0, len(s.seats))
	for _, p := range s.seats {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) Player(id string) *models.Player {
	for _, p := range s.seats {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) Len() int {
	n := 0
	for _, p := range s.seats {
		if p != nil {
			n++
		}
	}
	return n
}

func (s *Session) CurrentSpeed() float64 {
	return s.currentSpeed
}

// PlayersByID copies the seated players keyed by id, the shape clients expect.
func (s *Session) PlayersByID() map[string]models.Player {
	out := make(map[string]models.Player, len(s.seats))
	for _, p := range s.seats {
		if p != nil {
			out[p.ID] = copyPlayer(p)
		}
	}
	return out
}

func copyPlayer(p *models.Player) models.Player {
	cp := *p
	cp.Customization = append([]models.CustomizationItem(nil), p.Customization...)
	return cp
}

// AddPlayer seats a new player in the lowest free seat.
func (s *Session) AddPlayer(id, name, color string) (*models.Player, error) {
	if s.Phase == models.PhaseActive || s.Phase == models.PhaseEnded {
		return nil, ErrAlreadyStarted
	}
	if s.Player(id) != nil {
		return s.Player(id), nil
	}
	seat := -1
	for i, p := range s.seats {
		if p == nil {
			seat = i
			break
		}
	}
	if seat == -1 {
		return nil, ErrRoomFull.withMessage("Room is full. Maximum of %d player(s).", s.Mode.Capacity())
	}

	if name == "" {
		name = fmt.Sprintf("Player %d", seat+1)
	}
	if color == "" {
		color = "red"
		if seat > 0 {
			color = "blue"
		}
	}
	player := &models.Player{
		ID:            id,
		Name:          name,
		Seat:          seat,
		X:             constants.START_X,
		Score:         constants.START_SCORE,
		Lives:         constants.START_LIVES,
		Color:         color,
		Customization: []models.CustomizationItem{},
	}
	s.seats[seat] = player
	return player, nil
}

// RemovePlayer frees the player's seat. Phase handling on departure is the
// caller's concern.
func (s *Session) RemovePlayer(id string) *models.Player {
	for i, p := range s.seats {
		if p != nil && p.ID == id {
			s.seats[i] = nil
			return p
		}
	}
	return nil
}

func (s *Session) StartCustomization() error {
	switch s.Phase {
	case models.PhaseLobby, models.PhaseCustomization:
	default:
		return ErrWrongPhase
	}
	if missing := s.Mode.MinPlayers() - s.Len(); missing > 0 {
		return ErrNotEnoughPlayers.withMessage("Waiting for %d more player(s)!", missing)
	}
	s.Phase = models.PhaseCustomization
	return nil
}

// UpdateCustomization stores cosmetic data verbatim, truncated to a sane size.
func (s *Session) UpdateCustomization(id string, items []models.CustomizationItem) ([]models.CustomizationItem, error) {
	p := s.Player(id)
	if p == nil {
		return nil, ErrNotInRoom
	}
	if s.Phase != models.PhaseLobby && s.Phase != models.PhaseCustomization {
		return nil, ErrWrongPhase
	}
	if len(items) > constants.MAX_CUSTOMIZATION {
		items = items[:constants.MAX_CUSTOMIZATION]
	}
	p.Customization = append([]models.CustomizationItem{}, items...)
	return p.Customization, nil
}

// MarkReady flags the player ready and reports whether the match can begin.
// changed is false when the player was already ready.
func (s *Session) MarkReady(id string) (allReady, changed bool, err error) {
	p := s.Player(id)
	if p == nil {
		return false, false, ErrNotInRoom
	}
	if s.Phase != models.PhaseCustomization {
		return false, false, ErrWrongPhase
	}
	if p.Ready {
		return s.allReady(), false, nil
	}
	p.Ready = true
	return s.allReady(), true, nil
}

func (s *Session) allReady() bool {
	players := s.Players()
	if len(players) < s.Mode.MinPlayers() {
		return false
	}
	for _, p := range players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// BeginMatch reinitializes players and entities and enters the active phase.
// Readiness is rechecked because players may have left during the grace delay.
func (s *Session) BeginMatch(now time.Time) error {
	if s.Phase != models.PhaseCustomization {
		return ErrWrongPhase
	}
	if !s.allReady() {
		return ErrNotEnoughPlayers
	}
	for _, p := range s.Players() {
		p.Score = constants.START_SCORE
		p.Lives = constants.START_LIVES
		p.Ready = false
	}
	s.candies = nil
	s.obstacles = nil
	s.nextCandyID = 0
	s.nextObstacleID = 0
	s.currentSpeed = s.baseSpeed
	s.lastCandySpawn = now
	s.lastObstacleSpawn = now
	s.Phase = models.PhaseActive
	return nil
}

// Abort leaves the active phase without a result.
func (s *Session) Abort() {
	s.clearBoard()
	s.Phase = models.PhaseLobby
}

// Reset returns an ended match to the lobby, keeping players, scores and lives.
func (s *Session) Reset() bool {
	if s.Phase != models.PhaseEnded {
		return false
	}
	s.clearBoard()
	s.Phase = models.PhaseLobby
	return true
}

func (s *Session) clearBoard() {
	s.candies = nil
	s.obstacles = nil
	for _, p := range s.Players() {
		p.Ready = false
	}
}

// EarnedScore sums every player's score above the starting value.
func (s *Session) EarnedScore() int {
	total := 0
	for _, p := range s.Players() {
		total += max(0, p.Score-constants.START_SCORE)
	}
	return total
}
