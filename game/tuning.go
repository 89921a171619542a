package game

import (
	"time"

	"candy-rush/constants"
)

// Tuning holds the pacing and difficulty knobs of one room.
type Tuning struct {
	TickRate   time.Duration
	SpawnPoll  time.Duration
	StartGrace time.Duration
	ResetDelay time.Duration

	BaseSpeed float64
	MaxSpeed  float64

	CandyInterval       time.Duration
	ObstacleInterval    time.Duration
	MinCandyInterval    time.Duration
	MinObstacleInterval time.Duration
	ObstacleRateFloor   float64

	MaxCandies          int
	MaxObstacles        int
	SmallObstacleChance float64
}

func DefaultTuning() Tuning {
	return Tuning{
		TickRate:            constants.TICK_RATE,
		SpawnPoll:           constants.SPAWN_POLL,
		StartGrace:          constants.START_GRACE,
		ResetDelay:          constants.RESET_DELAY,
		BaseSpeed:           constants.BASE_SPEED,
		MaxSpeed:            constants.MAX_SPEED,
		CandyInterval:       constants.CANDY_SPAWN_INTERVAL,
		ObstacleInterval:    constants.OBSTACLE_SPAWN_INTERVAL,
		MinCandyInterval:    constants.MIN_CANDY_INTERVAL,
		MinObstacleInterval: constants.MIN_OBSTACLE_INTERVAL,
		ObstacleRateFloor:   constants.OBSTACLE_RATE_FLOOR,
		MaxCandies:          constants.MAX_CANDIES_ON_SCREEN,
		MaxObstacles:        constants.MAX_OBSTACLES_ON_SCREEN,
		SmallObstacleChance: constants.SMALL_OBSTACLE_CHANCE,
	}
}
