package game

import (
	"testing"
	"time"

	"candy-rush/constants"
	"candy-rush/models"
	"candy-rush/protocol"
	"candy-rush/scores"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	gm := NewGameManager(scores.NewMemoryStore(), fastTuning(), quietLogger())
	t.Cleanup(gm.Shutdown)
	return gm
}

func connect(t *testing.T, gm *Manager, id string) *fakeConn {
	t.Helper()
	fc := newFakeConn()
	gm.Connect(id, fc)
	hello := payload(t, fc.waitFor(t, constants.MSG_CONNECTED))
	if hello["playerId"] != id {
		t.Fatalf("connected payload = %v", hello)
	}
	return fc
}

func createRoom(t *testing.T, gm *Manager, id string, fc *fakeConn, mode models.Mode) string {
	t.Helper()
	gm.HandleMessage(id, protocol.ClientMessage{Type: constants.MSG_CREATE_ROOM, PlayerName: id, Mode: string(mode)})
	created := payload(t, fc.waitFor(t, constants.MSG_ROOM_CREATED))
	code, _ := created["roomCode"].(string)
	if len(code) != constants.ROOM_CODE_LENGTH {
		t.Fatalf("room code %q", code)
	}
	return code
}

func ptr[T any](v T) *T {
	return &v
}

func TestJoinUnknownRoomReportsError(t *testing.T) {
	gm := newTestManager(t)
	fc := connect(t, gm, "a")

	gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_JOIN_ROOM, RoomCode: "ZZZZZZ"})
	ev := fc.waitFor(t, constants.MSG_ERROR)
	if errorCode(t, ev) != ErrRoomNotFound.Code {
		t.Fatalf("unexpected error: %v", ev.Data)
	}
	if gm.Rooms.Len() != 0 || gm.Clients.RoomOf("a") != "" {
		t.Fatal("failed join mutated state")
	}
}

func TestCreateRoomDefaultsToMultiplayer(t *testing.T) {
	gm := newTestManager(t)
	fc := connect(t, gm, "a")

	gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_CREATE_ROOM})
	created := payload(t, fc.waitFor(t, constants.MSG_ROOM_CREATED))
	if created["gameMode"] != models.ModeMultiplayer {
		t.Fatalf("game mode = %v", created["gameMode"])
	}
	players := created["players"].(map[string]models.Player)
	if players["a"].Name != "Player 1" || players["a"].Seat != 0 {
		t.Fatalf("unexpected creator: %+v", players["a"])
	}
	if gm.Clients.RoomOf("a") != created["roomCode"] {
		t.Fatal("directory does not track the new room")
	}
}

func TestCreateRoomRejectsUnknownMode(t *testing.T) {
	gm := newTestManager(t)
	fc := connect(t, gm, "a")

	gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_CREATE_ROOM, Mode: "battle"})
	if code := errorCode(t, fc.waitFor(t, constants.MSG_ERROR)); code != ErrInvalidMode.Code {
		t.Fatalf("error code = %q", code)
	}
	if gm.Rooms.Len() != 0 {
		t.Fatal("room created for an invalid mode")
	}
}

func TestJoinRoomNormalizesCode(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	b := connect(t, gm, "b")
	code := createRoom(t, gm, "a", a, models.ModeMultiplayer)

	lower := " " + string([]byte{code[0] | 0x20}) + code[1:] + " "
	gm.HandleMessage("b", protocol.ClientMessage{Type: constants.MSG_JOIN_ROOM, RoomCode: lower, PlayerName: "b", Color: "blue"})

	joined := payload(t, b.waitFor(t, constants.MSG_JOINED_ROOM))
	if joined["roomCode"] != code {
		t.Fatalf("joined %v, want %s", joined["roomCode"], code)
	}
	peers := payload(t, a.waitFor(t, constants.MSG_PLAYER_JOINED))["players"].(map[string]models.Player)
	if len(peers) != 2 || peers["b"].Seat != 1 {
		t.Fatalf("unexpected players: %+v", peers)
	}
}

func TestSingleRoomRejectsSecondPlayer(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	b := connect(t, gm, "b")
	code := createRoom(t, gm, "a", a, models.ModeSingle)

	gm.HandleMessage("b", protocol.ClientMessage{Type: constants.MSG_JOIN_ROOM, RoomCode: code})
	if got := errorCode(t, b.waitFor(t, constants.MSG_ERROR)); got != ErrRoomFull.Code {
		t.Fatalf("error code = %q", got)
	}
}

func TestRoomScopedEventsAreValidated(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	b := connect(t, gm, "b")
	codeA := createRoom(t, gm, "a", a, models.ModeMultiplayer)
	createRoom(t, gm, "b", b, models.ModeMultiplayer)

	cases := []struct {
		msg  protocol.ClientMessage
		want string
	}{
		{protocol.ClientMessage{Type: constants.MSG_START_CUSTOMIZATION}, ErrMissingField.Code},
		{protocol.ClientMessage{Type: constants.MSG_PLAYER_READY, RoomCode: "QQQQQQ"}, ErrRoomNotFound.Code},
		{protocol.ClientMessage{Type: constants.MSG_PLAYER_READY, RoomCode: codeA}, ErrNotInRoom.Code},
		{protocol.ClientMessage{Type: constants.MSG_PLAYER_MOVE, RoomCode: codeA}, ErrMissingField.Code},
		{protocol.ClientMessage{Type: constants.MSG_CANDY_COLLECTED, RoomCode: codeA}, ErrMissingField.Code},
		{protocol.ClientMessage{Type: constants.MSG_OBSTACLE_HIT, RoomCode: codeA}, ErrMissingField.Code},
		{protocol.ClientMessage{Type: "teleport"}, ErrUnknownMessage.Code},
	}
	for _, tc := range cases {
		gm.HandleMessage("b", tc.msg)
		if got := errorCode(t, b.waitFor(t, constants.MSG_ERROR)); got != tc.want {
			t.Fatalf("%s: error code = %q, want %q", tc.msg.Type, got, tc.want)
		}
	}
}

func TestStartCustomizationWaitsForOpponent(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	code := createRoom(t, gm, "a", a, models.ModeMultiplayer)

	gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_START_CUSTOMIZATION, RoomCode: code})
	ev := a.waitFor(t, constants.MSG_ERROR)
	if errorCode(t, ev) != ErrNotEnoughPlayers.Code {
		t.Fatalf("unexpected error: %v", ev.Data)
	}
}

func TestFullMatchThroughGateway(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	b := connect(t, gm, "b")
	code := createRoom(t, gm, "a", a, models.ModeMultiplayer)
	gm.HandleMessage("b", protocol.ClientMessage{Type: constants.MSG_JOIN_ROOM, RoomCode: code})
	b.waitFor(t, constants.MSG_JOINED_ROOM)

	gm.HandleMessage("b", protocol.ClientMessage{Type: constants.MSG_START_CUSTOMIZATION, RoomCode: code})
	a.waitFor(t, constants.MSG_CUSTOMIZATION_STARTED)
	gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_PLAYER_READY, RoomCode: code})
	gm.HandleMessage("b", protocol.ClientMessage{Type: constants.MSG_PLAYER_READY, RoomCode: code})
	a.waitFor(t, constants.MSG_GAME_START)
	b.waitFor(t, constants.MSG_GAME_START)

	gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_PLAYER_MOVE, RoomCode: code, X: ptr(88.5)})
	moved := payload(t, b.waitFor(t, constants.MSG_PLAYER_MOVED))
	if moved["x"] != 88.5 {
		t.Fatalf("unexpected move relay: %v", moved)
	}

	hits := 0
	deadline := time.After(3 * time.Second)
	for hits < constants.START_LIVES {
		select {
		case ev := <-a.events:
			if ev.Type != constants.MSG_OBSTACLE_SPAWNED {
				continue
			}
			o := ev.Data.(models.Obstacle)
			gm.HandleMessage("a", protocol.ClientMessage{Type: constants.MSG_OBSTACLE_HIT, RoomCode: code, ObstacleID: ptr(o.ID)})
			hits++
		case <-deadline:
			t.Fatalf("only %d obstacles arrived", hits)
		}
	}

	end := b.waitFor(t, constants.MSG_GAME_END).Data.(gameEnd)
	if end.Loser == nil || end.Loser.ID != "a" || end.Winner == nil || end.Winner.ID != "b" {
		t.Fatalf("unexpected result: winner=%v loser=%v", end.Winner, end.Loser)
	}
}

func TestDisconnectClosesRoom(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	code := createRoom(t, gm, "a", a, models.ModeSingle)
	room, _ := gm.Rooms.Get(code)

	gm.Disconnect("a")
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room survived its only player disconnecting")
	}
	if gm.Rooms.Len() != 0 || gm.Clients.Len() != 0 {
		t.Fatalf("rooms=%d clients=%d after disconnect", gm.Rooms.Len(), gm.Clients.Len())
	}
}

func TestCreatingAgainLeavesPreviousRoom(t *testing.T) {
	gm := newTestManager(t)
	a := connect(t, gm, "a")
	first := createRoom(t, gm, "a", a, models.ModeSingle)
	room, _ := gm.Rooms.Get(first)

	second := createRoom(t, gm, "a", a, models.ModeSingle)
	if first == second {
		t.Fatal("second create reused the first code")
	}
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned room kept running")
	}
	if gm.Clients.RoomOf("a") != second {
		t.Fatal("directory not pointing at the new room")
	}
}
