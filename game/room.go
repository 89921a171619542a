package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"candy-rush/constants"
	"candy-rush/models"
	"candy-rush/scores"
)

var tracer = otel.Tracer("candy-rush/game")

const persistTimeout = 5 * time.Second

// Room is the actor owning one Session. Every mutation arrives through the
// inbox and runs on the Run goroutine.
type Room struct {
	Code    string
	Mode    models.Mode
	OnEmpty func(code string) // called from Run once the last player leaves

	inbox    chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	session    *Session
	conns      map[string]models.Conn
	tuning     Tuning
	scores     scores.Repository
	logger     *log.Logger
	startTimer *time.Timer
	resetTimer *time.Timer
	empty      bool
	persists   sync.WaitGroup
}

func NewRoom(code string, mode models.Mode, tuning Tuning, repo scores.Repository, logger *log.Logger) *Room {
	if logger == nil {
		logger = log.Default()
	}
	return &Room{
		Code:    code,
		Mode:    mode,
		inbox:   make(chan any, 256),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		session: NewSession(code, mode, tuning, rand.New(rand.NewSource(time.Now().UnixNano()))),
		conns:   make(map[string]models.Conn),
		tuning:  tuning,
		scores:  repo,
		logger:  logger,
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

func (r *Room) Run() {
	defer close(r.done)
	defer r.stopTimers()

	var tick, spawn *time.Ticker
	var tickC, spawnC <-chan time.Time
	stopCadences := func() {
		if tick != nil {
			tick.Stop()
			spawn.Stop()
			tick, spawn = nil, nil
			tickC, spawnC = nil, nil
		}
	}
	defer stopCadences()

	for {
		// Cadences exist only while the match is active.
		active := r.session.Phase == models.PhaseActive
		if active && tick == nil {
			tick = time.NewTicker(r.tuning.TickRate)
			spawn = time.NewTicker(r.tuning.SpawnPoll)
			tickC, spawnC = tick.C, spawn.C
		} else if !active {
			stopCadences()
		}

		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		case <-tickC:
			r.tick()
		case now := <-spawnC:
			r.spawn(now)
		}

		if r.empty {
			r.logger.Printf("Room %s is empty, closing", r.Code)
			if r.OnEmpty != nil {
				r.OnEmpty(r.Code)
			}
			return
		}
	}
}

func (r *Room) stopTimers() {
	if r.startTimer != nil {
		r.startTimer.Stop()
	}
	if r.resetTimer != nil {
		r.resetTimer.Stop()
	}
}

// post delivers cmd to the mailbox unless the room has shut down.
func (r *Room) post(cmd any) bool {
	select {
	case r.inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) after(prev *time.Timer, d time.Duration, cmd any) *time.Timer {
	if prev != nil {
		prev.Stop()
	}
	return time.AfterFunc(d, func() { r.post(cmd) })
}

func (r *Room) Join(req JoinRequest) error {
	reply := make(chan error, 1)
	if !r.post(joinCmd{JoinRequest: req, Reply: reply}) {
		return ErrRoomNotFound
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRoomNotFound
	}
}

func (r *Room) Leave(playerID string) {
	r.post(leaveCmd{PlayerID: playerID})
}

func (r *Room) StartCustomization(playerID string) {
	r.post(startCustomizationCmd{PlayerID: playerID})
}

func (r *Room) UpdateCustomization(playerID string, items []models.CustomizationItem) {
	r.post(customizationCmd{PlayerID: playerID, Items: items})
}

func (r *Room) Ready(playerID string) {
	r.post(readyCmd{PlayerID: playerID})
}

func (r *Room) Move(playerID string, x float64) {
	r.post(moveCmd{PlayerID: playerID, X: x})
}

func (r *Room) CollectCandy(playerID string, candyID int) {
	r.post(candyCmd{PlayerID: playerID, CandyID: candyID})
}

func (r *Room) HitObstacle(playerID string, obstacleID int) {
	r.post(obstacleCmd{PlayerID: playerID, ObstacleID: obstacleID})
}

func (r *Room) Info() (RoomInfo, bool) {
	reply := make(chan RoomInfo, 1)
	if !r.post(infoCmd{Reply: reply}) {
		return RoomInfo{}, false
	}
	select {
	case info := <-reply:
		return info, true
	case <-r.done:
		return RoomInfo{}, false
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c)
	case leaveCmd:
		r.handleLeave(c.PlayerID)
	case startCustomizationCmd:
		if r.session.Player(c.PlayerID) == nil {
			r.sendError(c.PlayerID, ErrNotInRoom)
			return
		}
		if err := r.session.StartCustomization(); err != nil {
			r.sendError(c.PlayerID, err)
			return
		}
		r.broadcast(constants.MSG_CUSTOMIZATION_STARTED, nil)
	case customizationCmd:
		items, err := r.session.UpdateCustomization(c.PlayerID, c.Items)
		if err != nil {
			r.sendError(c.PlayerID, err)
			return
		}
		r.broadcastExcept(c.PlayerID, constants.MSG_PLAYER_CUSTOMIZATION_UPDATED, map[string]any{
			"playerId":      c.PlayerID,
			"customization": items,
		})
	case readyCmd:
		r.handleReady(c.PlayerID)
	case beginMatchCmd:
		r.beginMatch()
	case moveCmd:
		p := r.session.Player(c.PlayerID)
		if p == nil || r.session.Phase != models.PhaseActive {
			return
		}
		p.X = c.X
		r.broadcastExcept(p.ID, constants.MSG_PLAYER_MOVED, map[string]any{
			"playerId": p.ID,
			"x":        c.X,
		})
	case candyCmd:
		res, ok := r.session.CollectCandy(c.PlayerID, c.CandyID)
		if !ok {
			return
		}
		r.broadcast(constants.MSG_CANDY_COLLECTED, map[string]any{
			"candyId":  res.CandyID,
			"playerId": res.PlayerID,
			"score":    res.Score,
			"points":   res.Points,
		})
	case obstacleCmd:
		res, ok := r.session.HitObstacle(c.PlayerID, c.ObstacleID)
		if !ok {
			return
		}
		if res.Lives == 0 {
			r.endMatch(res.PlayerID, CauseLives)
			return
		}
		r.broadcast(constants.MSG_OBSTACLE_HIT, map[string]any{
			"playerId":   res.PlayerID,
			"obstacleId": res.ObstacleID,
			"score":      res.Score,
			"lives":      res.Lives,
			"players":    r.session.PlayersByID(),
		})
	case resetCmd:
		if r.session.Reset() {
			r.logger.Printf("Room %s reset to lobby", r.Code)
		}
	case infoCmd:
		c.Reply <- RoomInfo{
			Code:    r.Code,
			Mode:    r.Mode,
			Phase:   r.session.Phase,
			Players: r.session.Len(),
		}
	}
}

func (r *Room) handleJoin(c joinCmd) {
	p, err := r.session.AddPlayer(c.PlayerID, c.Name, c.Color)
	if err != nil {
		c.Reply <- err
		return
	}
	r.conns[p.ID] = c.Conn
	c.Reply <- nil

	players := r.session.PlayersByID()
	if c.Creator {
		r.logger.Printf("Room %s created by %s (%s)", r.Code, p.Name, r.Mode)
		r.sendTo(p.ID, constants.MSG_ROOM_CREATED, map[string]any{
			"roomCode": r.Code,
			"playerId": p.ID,
			"players":  players,
			"gameMode": r.Mode,
		})
		return
	}

	r.logger.Printf("Player %s joined room %s in seat %d", p.Name, r.Code, p.Seat)
	r.sendTo(p.ID, constants.MSG_JOINED_ROOM, map[string]any{
		"roomCode":           r.Code,
		"playerId":           p.ID,
		"players":            players,
		"gameMode":           r.Mode,
		"customizationPhase": r.session.Phase == models.PhaseCustomization,
	})
	r.broadcast(constants.MSG_PLAYER_JOINED, map[string]any{
		"players": players,
	})
}

func (r *Room) handleReady(playerID string) {
	allReady, changed, err := r.session.MarkReady(playerID)
	if err != nil {
		r.sendError(playerID, err)
		return
	}
	if !changed {
		return
	}
	r.broadcast(constants.MSG_PLAYER_READY, map[string]any{
		"playerId": playerID,
		"players":  r.session.PlayersByID(),
	})
	if allReady {
		r.startTimer = r.after(r.startTimer, r.tuning.StartGrace, beginMatchCmd{})
	}
}

func (r *Room) beginMatch() {
	if err := r.session.BeginMatch(time.Now()); err != nil {
		return
	}
	r.logger.Printf("Match started in room %s with %d player(s)", r.Code, r.session.Len())
	r.broadcast(constants.MSG_GAME_START, map[string]any{
		"players": r.session.PlayersByID(),
	})
}

func (r *Room) tick() {
	if r.session.Phase != models.PhaseActive {
		return
	}
	r.session.Advance()
	if p := r.session.ZeroScorePlayer(); p != nil {
		r.endMatch(p.ID, CauseScore)
		return
	}
	r.broadcast(constants.MSG_GAME_UPDATE, gameUpdate{
		Candies:      r.session.VisibleCandies(),
		Obstacles:    r.session.VisibleObstacles(),
		Players:      r.session.PlayersByID(),
		CurrentSpeed: r.session.CurrentSpeed(),
	})
}

func (r *Room) spawn(now time.Time) {
	if candy, ok := r.session.SpawnCandy(now); ok {
		r.broadcast(constants.MSG_CANDY_SPAWNED, candy)
	}
	if obstacle, ok := r.session.SpawnObstacle(now); ok {
		r.broadcast(constants.MSG_OBSTACLE_SPAWNED, obstacle)
	}
}

func (r *Room) endMatch(loserID string, cause EndCause) {
	out, ok := r.session.End(loserID, cause)
	if !ok {
		return
	}
	r.logger.Printf("Match ended in room %s: loser=%s cause=%s", r.Code, loserID, cause)

	r.persist(out)
	r.broadcast(constants.MSG_GAME_END, gameEnd{
		Winner:  out.Winner,
		Loser:   out.Loser,
		Reason:  out.Reason,
		Players: out.PlayersByID(),
		Levels:  out.Levels,
	})
	r.resetTimer = r.after(r.resetTimer, r.tuning.ResetDelay, resetCmd{})
}

// persist writes the outcome off the room goroutine so a slow store never
// stalls the simulation.
func (r *Room) persist(out *Outcome) {
	if r.scores == nil {
		return
	}
	r.persists.Add(1)
	go func() {
		defer r.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		ctx, span := tracer.Start(ctx, "game.persistOutcome", trace.WithAttributes(
			attribute.String("room.code", out.Code),
			attribute.String("game.mode", string(out.Mode)),
			attribute.String("game.end_cause", string(out.Cause)),
		))
		defer span.End()

		if err := persistOutcome(ctx, r.scores, out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Printf("Failed to save result of room %s: %v", out.Code, err)
		}
	}()
}

func (r *Room) handleLeave(playerID string) {
	p := r.session.Player(playerID)
	if p == nil {
		return
	}
	delete(r.conns, playerID)

	if r.session.Phase == models.PhaseActive {
		if r.Mode == models.ModeMultiplayer {
			r.endMatch(playerID, CauseDisconnect)
		} else {
			r.session.Abort()
			r.logger.Printf("Single player match in room %s aborted", r.Code)
		}
	}
	r.session.RemovePlayer(playerID)
	r.logger.Printf("Player %s left room %s", p.Name, r.Code)

	if r.session.Len() == 0 {
		r.empty = true
		return
	}
	r.broadcast(constants.MSG_PLAYER_LEFT, map[string]any{
		"playerId": playerID,
		"players":  r.session.PlayersByID(),
	})
}

// Send errors are dropped: a dead connection is reaped by its own transport.
func (r *Room) sendTo(playerID, msgType string, data any) {
	if c, ok := r.conns[playerID]; ok {
		_ = c.Send(msgType, data)
	}
}

func (r *Room) sendError(playerID string, err error) {
	r.sendTo(playerID, constants.MSG_ERROR, errorPayload(err))
}

func (r *Room) broadcast(msgType string, data any) {
	r.broadcastExcept("", msgType, data)
}

// broadcastExcept sends to every seated player but skip, in seat order.
func (r *Room) broadcastExcept(skip, msgType string, data any) {
	for _, p := range r.session.Players() {
		if p.ID != skip {
			r.sendTo(p.ID, msgType, data)
		}
	}
}
