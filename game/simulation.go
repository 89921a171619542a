package game

import (
	"math"
	"time"

	"candy-rush/constants"
	"candy-rush/models"
)

// Advance runs one tick: entities fall, speed is rescaled and stale entities
// are pruned.
func (s *Session) Advance() {
	if s.Phase != models.PhaseActive {
		return
	}

	for _, c := range s.candies {
		if !c.Collected {
			c.Y += s.currentSpeed
		}
	}
	for _, o := range s.obstacles {
		if !o.Hit {
			o.Y += s.currentSpeed
		}
	}

	earned := float64(s.EarnedScore())
	target := math.Min(s.baseSpeed*(1+0.1*earned/200), s.tuning.MaxSpeed)
	// Speed never drops within a match.
	s.currentSpeed = math.Max(s.currentSpeed, target)

	s.prune()
}

func (s *Session) prune() {
	s.candies = keepLast(s.candies, constants.MAX_CANDY_RECORD, func(c *models.Candy) bool {
		return c.Y <= constants.PRUNE_BOUND && !c.Collected
	})
	s.obstacles = keepLast(s.obstacles, constants.MAX_OBST_RECORD, func(o *models.Obstacle) bool {
		return o.Y <= constants.PRUNE_BOUND && !o.Hit
	})
}

// keepLast filters items in place and keeps at most the newest limit of them.
func keepLast[T any](items []*T, limit int, keep func(*T) bool) []*T {
	kept := items[:0]
	for _, item := range items {
		if keep(item) {
			kept = append(kept, item)
		}
	}
	clear(items[len(kept):])
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

// ZeroScorePlayer returns the first player, in seat order, whose score has
// dropped to zero or below.
func (s *Session) ZeroScorePlayer() *models.Player {
	if s.Phase != models.PhaseActive {
		return nil
	}
	for _, p := range s.Players() {
		if p.Score <= 0 {
			return p
		}
	}
	return nil
}

// VisibleCandies copies the unresolved candies inside the visible band.
func (s *Session) VisibleCandies() []models.Candy {
	out := make([]models.Candy, 0, len(s.candies))
	for _, c := range s.candies {
		if !c.Collected && c.Y >= constants.VISIBLE_TOP && c.Y <= constants.PRUNE_BOUND {
			out = append(out, *c)
		}
	}
	return out
}

// VisibleObstacles copies the unresolved obstacles inside the visible band.
func (s *Session) VisibleObstacles() []models.Obstacle {
	out := make([]models.Obstacle, 0, len(s.obstacles))
	for _, o := range s.obstacles {
		if !o.Hit && o.Y >= constants.VISIBLE_TOP && o.Y <= constants.PRUNE_BOUND {
			out = append(out, *o)
		}
	}
	return out
}

// CandyInterval shrinks 10% per 400 earned points, down to 60% and never
// below the configured minimum.
func (s *Session) CandyInterval() time.Duration {
	earned := float64(s.EarnedScore())
	mult := math.Max(0.6, 1-0.1*earned/400)
	return max(s.tuning.MinCandyInterval, scaleDuration(s.tuning.CandyInterval, mult))
}

// ObstacleInterval shrinks 15% per 300 earned points, down to the rate floor
// and never below the configured minimum.
func (s *Session) ObstacleInterval() time.Duration {
	earned := float64(s.EarnedScore())
	mult := math.Max(s.tuning.ObstacleRateFloor, 1-0.15*earned/300)
	return max(s.tuning.MinObstacleInterval, scaleDuration(s.tuning.ObstacleInterval, mult))
}

func scaleDuration(d time.Duration, mult float64) time.Duration {
	return time.Duration(math.Round(float64(d) * mult))
}

func (s *Session) candiesOnScreen() int {
	n := 0
	for _, c := range s.candies {
		if !c.Collected && c.Y <= constants.ON_SCREEN_BOUND {
			n++
		}
	}
	return n
}

func (s *Session) obstaclesOnScreen() int {
	n := 0
	for _, o := range s.obstacles {
		if !o.Hit && o.Y <= constants.ON_SCREEN_BOUND {
			n++
		}
	}
	return n
}

func (s *Session) spawnX() float64 {
	return s.rng.Float64()*(constants.FIELD_WIDTH-50) + 10
}

// SpawnCandy adds a candy once the dynamic interval has elapsed and the screen
// has room for it.
func (s *Session) SpawnCandy(now time.Time) (models.Candy, bool) {
	if s.Phase != models.PhaseActive {
		return models.Candy{}, false
	}
	if now.Sub(s.lastCandySpawn) < s.CandyInterval() {
		return models.Candy{}, false
	}
	if s.candiesOnScreen() >= s.tuning.MaxCandies {
		return models.Candy{}, false
	}

	idx := s.rng.Intn(len(constants.CANDY_EMOJIS))
	candy := &models.Candy{
		ID:     s.nextCandyID,
		X:      s.spawnX(),
		Y:      constants.SPAWN_Y,
		Emoji:  constants.CANDY_EMOJIS[idx],
		Points: candyPoints(idx),
	}
	s.nextCandyID++
	s.candies = append(s.candies, candy)
	s.lastCandySpawn = now
	return *candy, true
}

// candyPoints prices an emoji by its position in the candy set.
func candyPoints(idx int) int {
	switch {
	case idx < 3:
		return 20
	case idx < 6:
		return 15
	case idx < 9:
		return 12
	default:
		return 10
	}
}

// SpawnObstacle adds an obstacle once the dynamic interval has elapsed and the
// screen has room for it.
func (s *Session) SpawnObstacle(now time.Time) (models.Obstacle, bool) {
	if s.Phase != models.PhaseActive {
		return models.Obstacle{}, false
	}
	if now.Sub(s.lastObstacleSpawn) < s.ObstacleInterval() {
		return models.Obstacle{}, false
	}
	if s.obstaclesOnScreen() >= s.tuning.MaxObstacles {
		return models.Obstacle{}, false
	}

	tier := models.TierLarge
	if s.rng.Float64() < s.tuning.SmallObstacleChance {
		tier = models.TierSmall
	}
	obstacle := &models.Obstacle{
		ID:   s.nextObstacleID,
		X:    s.spawnX(),
		Y:    constants.SPAWN_Y,
		Tier: tier,
	}
	s.nextObstacleID++
	s.obstacles = append(s.obstacles, obstacle)
	s.lastObstacleSpawn = now
	return *obstacle, true
}
