package game

import (
	"strings"

	"candy-rush/constants"
	"candy-rush/models"
	"candy-rush/protocol"
)

// HandleMessage validates an inbound event and routes it to the sender's
// room. Transports call it from the connection's read loop.
func (gm *Manager) HandleMessage(clientID string, msg protocol.ClientMessage) {
	client, ok := gm.Clients.Get(clientID)
	if !ok {
		return
	}

	switch msg.Type {
	case constants.MSG_CREATE_ROOM:
		gm.createRoom(client, msg)
	case constants.MSG_JOIN_ROOM:
		gm.joinRoom(client, msg)
	case constants.MSG_START_CUSTOMIZATION:
		if room := gm.roomFor(client, msg); room != nil {
			room.StartCustomization(client.ID)
		}
	case constants.MSG_UPDATE_CUSTOMIZATION:
		if room := gm.roomFor(client, msg); room != nil {
			room.UpdateCustomization(client.ID, msg.Customization)
		}
	case constants.MSG_PLAYER_READY:
		if room := gm.roomFor(client, msg); room != nil {
			room.Ready(client.ID)
		}
	case constants.MSG_PLAYER_MOVE:
		if msg.X == nil {
			gm.sendError(client, ErrMissingField.withMessage("x is required"))
			return
		}
		if room := gm.roomFor(client, msg); room != nil {
			room.Move(client.ID, *msg.X)
		}
	case constants.MSG_CANDY_COLLECTED:
		if msg.CandyID == nil {
			gm.sendError(client, ErrMissingField.withMessage("candyId is required"))
			return
		}
		if room := gm.roomFor(client, msg); room != nil {
			room.CollectCandy(client.ID, *msg.CandyID)
		}
	case constants.MSG_OBSTACLE_HIT:
		if msg.ObstacleID == nil {
			gm.sendError(client, ErrMissingField.withMessage("obstacleId is required"))
			return
		}
		if room := gm.roomFor(client, msg); room != nil {
			room.HitObstacle(client.ID, *msg.ObstacleID)
		}
	default:
		gm.sendError(client, ErrUnknownMessage.withMessage("Unknown message type %q", msg.Type))
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// roomFor resolves the room named by the message and checks the sender sits
// in it.
func (gm *Manager) roomFor(client *models.Client, msg protocol.ClientMessage) *Room {
	code := normalizeCode(msg.RoomCode)
	if code == "" {
		gm.sendError(client, ErrMissingField.withMessage("roomCode is required"))
		return nil
	}
	room, ok := gm.Rooms.Get(code)
	if !ok {
		gm.sendError(client, ErrRoomNotFound)
		return nil
	}
	if gm.Clients.RoomOf(client.ID) != code {
		gm.sendError(client, ErrNotInRoom)
		return nil
	}
	return room
}

func (gm *Manager) createRoom(client *models.Client, msg protocol.ClientMessage) {
	mode := models.Mode(msg.Mode)
	if mode == "" {
		mode = models.ModeMultiplayer
	}
	if !mode.Valid() {
		gm.sendError(client, ErrInvalidMode.withMessage("Unknown game mode %q", msg.Mode))
		return
	}

	gm.leaveCurrentRoom(client.ID)
	room, err := gm.Rooms.Create(mode)
	if err != nil {
		gm.sendError(client, err)
		return
	}
	err = room.Join(JoinRequest{
		PlayerID: client.ID,
		Name:     strings.TrimSpace(msg.PlayerName),
		Color:    msg.Color,
		Conn:     client.Conn,
		Creator:  true,
	})
	if err != nil {
		gm.Rooms.Remove(room.Code)
		gm.sendError(client, err)
		return
	}
	gm.seat(client, room)
}

func (gm *Manager) joinRoom(client *models.Client, msg protocol.ClientMessage) {
	code := normalizeCode(msg.RoomCode)
	if code == "" {
		gm.sendError(client, ErrMissingField.withMessage("roomCode is required"))
		return
	}
	if _, ok := gm.Rooms.Get(code); !ok {
		gm.sendError(client, ErrRoomNotFound)
		return
	}

	if gm.Clients.RoomOf(client.ID) != code {
		gm.leaveCurrentRoom(client.ID)
	}
	room, err := gm.Rooms.Join(code, JoinRequest{
		PlayerID: client.ID,
		Name:     strings.TrimSpace(msg.PlayerName),
		Color:    msg.Color,
		Conn:     client.Conn,
	})
	if err != nil {
		gm.sendError(client, err)
		return
	}
	gm.seat(client, room)
}

// seat records the room in the directory. A client that disconnected while the
// join was in flight is taken straight back out.
func (gm *Manager) seat(client *models.Client, room *Room) {
	if !gm.Clients.SetRoom(client.ID, room.Code) {
		room.Leave(client.ID)
	}
}
