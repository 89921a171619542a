package models

import (
	"time"
)

type Mode string

const (
	ModeSingle      Mode = "single"
	ModeMultiplayer Mode = "multiplayer"
)

// Capacity is the number of seats a room of this mode offers.
func (m Mode) Capacity() int {
	if m == ModeSingle {
		return 1
	}
	return 2
}

// MinPlayers is the head count needed to leave the lobby.
func (m Mode) MinPlayers() int {
	return m.Capacity()
}

func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMultiplayer
}

type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseCustomization Phase = "customization"
	PhaseActive        Phase = "active"
	PhaseEnded         Phase = "ended"
)

type CustomizationItem struct {
	Emoji    string  `json:"emoji"`
	XPercent float64 `json:"xPercent"`
	YPercent float64 `json:"yPercent"`
}

type Player struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Seat          int                 `json:"seat"`
	X             float64             `json:"x"`
	Score         int                 `json:"score"`
	Lives         int                 `json:"lives"`
	Ready         bool                `json:"ready"`
	Color         string              `json:"color"`
	Customization []CustomizationItem `json:"customization"`
}

type Candy struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Emoji     string  `json:"emoji"`
	Points    int     `json:"points"`
	Collected bool    `json:"collected"`
}

type ObstacleTier string

const (
	TierSmall ObstacleTier = "small"
	TierLarge ObstacleTier = "large"
)

type Obstacle struct {
	ID   int          `json:"id"`
	X    float64      `json:"x"`
	Y    float64      `json:"y"`
	Tier ObstacleTier `json:"tier"`
	Hit  bool         `json:"hit"`
}

// Conn is the outbound half of a connected client. Send encodes synchronously
// and must not block on a slow peer.
type Conn interface {
	Send(msgType string, data any) error
	Close() error
}

type Client struct {
	ID          string    `json:"id"`
	Conn        Conn      `json:"-"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Summary is the scoreboard entry of one player in a finished match.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
