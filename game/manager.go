package game

import (
	"log"
	"time"

	"candy-rush/constants"
	"candy-rush/lobby"
	"candy-rush/models"
	"candy-rush/scores"
)

// Manager is the event gateway between transports and rooms.
type Manager struct {
	Clients *lobby.Service
	Rooms   *Registry
	logger  *log.Logger
}

func NewGameManager(repo scores.Repository, tuning Tuning, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		Clients: lobby.NewService(),
		Rooms:   NewRegistry(repo, tuning, logger),
		logger:  logger,
	}
}

// Connect registers a transport connection and greets it with its id.
func (gm *Manager) Connect(clientID string, conn models.Conn) *models.Client {
	client := &models.Client{
		ID:          clientID,
		Conn:        conn,
		ConnectedAt: time.Now(),
	}
	if !gm.Clients.Add(client) {
		gm.logger.Printf("Client %s already connected", clientID)
	}
	gm.logger.Printf("Client connected: %s (total %d)", clientID, gm.Clients.Len())
	_ = conn.Send(constants.MSG_CONNECTED, map[string]any{
		"playerId": clientID,
	})
	return client
}

// Disconnect drops the client and removes it from whatever room it sat in.
func (gm *Manager) Disconnect(clientID string) {
	code := gm.Clients.Remove(clientID)
	gm.logger.Printf("Client disconnected: %s", clientID)
	if code == "" {
		return
	}
	if room, ok := gm.Rooms.Get(code); ok {
		room.Leave(clientID)
	}
}

func (gm *Manager) Shutdown() {
	gm.Rooms.Shutdown()
}

func (gm *Manager) leaveCurrentRoom(clientID string) {
	code := gm.Clients.RoomOf(clientID)
	if code == "" {
		return
	}
	gm.Clients.SetRoom(clientID, "")
	if room, ok := gm.Rooms.Get(code); ok {
		room.Leave(clientID)
	}
}

func (gm *Manager) sendError(client *models.Client, err error) {
	_ = client.Conn.Send(constants.MSG_ERROR, errorPayload(err))
}
