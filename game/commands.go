package game

import (
	"candy-rush/models"
)

// JoinRequest seats a client in a room. Creator selects the roomCreated reply
// instead of joinedRoom.
type JoinRequest struct {
	PlayerID string
	Name     string
	Color    string
	Conn     models.Conn
	Creator  bool
}

// RoomInfo is a point-in-time view of a room for listings.
type RoomInfo struct {
	Code    string       `json:"code"`
	Mode    models.Mode  `json:"mode"`
	Phase   models.Phase `json:"phase"`
	Players int          `json:"players"`
}

// Mailbox commands. Everything that touches a Session travels through these.
type (
	joinCmd struct {
		JoinRequest
		Reply chan error
	}
	leaveCmd struct {
		PlayerID string
	}
	startCustomizationCmd struct {
		PlayerID string
	}
	customizationCmd struct {
		PlayerID string
		Items    []models.CustomizationItem
	}
	readyCmd struct {
		PlayerID string
	}
	moveCmd struct {
		PlayerID string
		X        float64
	}
	candyCmd struct {
		PlayerID string
		CandyID  int
	}
	obstacleCmd struct {
		PlayerID   string
		ObstacleID int
	}
	infoCmd struct {
		Reply chan RoomInfo
	}

	// Timer-driven transitions.
	beginMatchCmd struct{}
	resetCmd      struct{}
)

type gameUpdate struct {
	Candies      []models.Candy           `json:"candies"`
	Obstacles    []models.Obstacle        `json:"obstacles"`
	Players      map[string]models.Player `json:"players"`
	CurrentSpeed float64                  `json:"currentSpeed"`
}

type gameEnd struct {
	Winner  *models.Summary          `json:"winner"`
	Loser   *models.Summary          `json:"loser"`
	Reason  string                   `json:"reason"`
	Players map[string]models.Player `json:"players"`
	Levels  map[string]int           `json:"levels"`
}
