package game

import (
	"candy-rush/models"
	"candy-rush/scores"
)

// EndCause is what terminated a match.
type EndCause string

const (
	CauseLives      EndCause = "lives"
	CauseScore      EndCause = "score"
	CauseDisconnect EndCause = "disconnect"
)

var endReasons = map[EndCause]string{
	CauseLives:      "You lost! You ran out of lives after hitting the obstacles.",
	CauseScore:      "You lost! Your points dropped to zero or below.",
	CauseDisconnect: "Player disconnected",
}

// Outcome is the frozen result of a finished match.
type Outcome struct {
	Code    string
	Mode    models.Mode
	Cause   EndCause
	Reason  string
	Winner  *models.Summary
	Loser   *models.Summary
	Players []models.Player
	Levels  map[string]int
}

type CandyResult struct {
	CandyID  int
	PlayerID string
	Points   int
	Score    int
}

type HitResult struct {
	ObstacleID int
	PlayerID   string
	Score      int
	Lives      int
}

// CollectCandy credits a reported candy to the player. Missing or already
// collected candies are ignored, which makes duplicate reports harmless.
func (s *Session) CollectCandy(playerID string, candyID int) (CandyResult, bool) {
	if s.Phase != models.PhaseActive {
		return CandyResult{}, false
	}
	p := s.Player(playerID)
	if p == nil {
		return CandyResult{}, false
	}
	for _, c := range s.candies {
		if c.ID != candyID {
			continue
		}
		if c.Collected {
			return CandyResult{}, false
		}
		c.Collected = true
		p.Score += c.Points
		return CandyResult{CandyID: c.ID, PlayerID: p.ID, Points: c.Points, Score: p.Score}, true
	}
	return CandyResult{}, false
}

// HitObstacle takes one life from the player. The obstacle is consumed even
// when the player has no lives left, but nothing else changes then.
func (s *Session) HitObstacle(playerID string, obstacleID int) (HitResult, bool) {
	if s.Phase != models.PhaseActive {
		return HitResult{}, false
	}
	p := s.Player(playerID)
	if p == nil {
		return HitResult{}, false
	}
	for _, o := range s.obstacles {
		if o.ID != obstacleID {
			continue
		}
		if o.Hit {
			return HitResult{}, false
		}
		o.Hit = true
		if p.Lives <= 0 {
			return HitResult{}, false
		}
		p.Lives--
		return HitResult{ObstacleID: o.ID, PlayerID: p.ID, Score: p.Score, Lives: p.Lives}, true
	}
	return HitResult{}, false
}

// End terminates the active match with loserID as the loser. Only the first
// call per match succeeds.
func (s *Session) End(loserID string, cause EndCause) (*Outcome, bool) {
	if s.Phase != models.PhaseActive {
		return nil, false
	}
	s.Phase = models.PhaseEnded

	out := &Outcome{
		Code:   s.Code,
		Mode:   s.Mode,
		Cause:  cause,
		Reason: endReasons[cause],
		Levels: make(map[string]int),
	}
	for _, p := range s.Players() {
		out.Players = append(out.Players, copyPlayer(p))
		out.Levels[p.ID] = scores.Level(p.Score)
		summary := &models.Summary{ID: p.ID, Name: p.Name, Score: p.Score}
		if p.ID == loserID {
			out.Loser = summary
		} else if out.Winner == nil {
			out.Winner = summary
		}
	}
	return out, true
}

// PlayersByID keys the final players by id, the shape clients expect.
func (o *Outcome) PlayersByID() map[string]models.Player {
	out := make(map[string]models.Player, len(o.Players))
	for _, p := range o.Players {
		out[p.ID] = p
	}
	return out
}
