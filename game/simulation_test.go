package game

import (
	"math"
	"testing"
	"time"

	"candy-rush/constants"
	"candy-rush/models"
)

func TestAdvanceMovesUnresolvedEntities(t *testing.T) {
	s := activeSession(t, models.ModeSingle, 1, time.Now())
	s.candies = []*models.Candy{{ID: 0, Y: 0}, {ID: 1, Y: 0, Collected: true}}
	s.obstacles = []*models.Obstacle{{ID: 0, Y: 10}}

	s.Advance()

	if len(s.candies) != 1 || s.candies[0].Y != constants.BASE_SPEED {
		t.Fatalf("unexpected candies after tick: %+v", s.candies)
	}
	if s.obstacles[0].Y != 10+constants.BASE_SPEED {
		t.Fatalf("obstacle y = %v", s.obstacles[0].Y)
	}
}

func TestSpeedScalesWithEarnedScore(t *testing.T) {
	s := activeSession(t, models.ModeMultiplayer, 2, time.Now())
	s.Player("a").Score = 300 // 200 earned
	s.Player("b").Score = 50  // below start, counts as zero

	s.Advance()
	want := constants.BASE_SPEED * 1.1
	if math.Abs(s.CurrentSpeed()-want) > 1e-9 {
		t.Fatalf("speed = %v, want %v", s.CurrentSpeed(), want)
	}
}

func TestSpeedMonotonicAndCapped(t *testing.T) {
	s := activeSession(t, models.ModeSingle, 1, time.Now())
	p := s.Player("a")

	prev := s.CurrentSpeed()
	for _, score := range []int{150, 400, 2000, 100000, 120, 5} {
		p.Score = score
		s.Advance()
		if s.CurrentSpeed() < prev {
			t.Fatalf("speed dropped from %v to %v at score %d", prev, s.CurrentSpeed(), score)
		}
		if s.CurrentSpeed() > constants.MAX_SPEED {
			t.Fatalf("speed %v exceeds cap", s.CurrentSpeed())
		}
		prev = s.CurrentSpeed()
	}
	if prev != constants.MAX_SPEED {
		t.Fatalf("speed = %v, want cap %v", prev, constants.MAX_SPEED)
	}
}

func TestPruneDropsOffscreenAndBoundsHistory(t *testing.T) {
	s := activeSession(t, models.ModeSingle, 1, time.Now())
	for i := 0; i < 80; i++ {
		s.candies = append(s.candies, &models.Candy{ID: i, Y: 0})
	}
	s.candies = append(s.candies, &models.Candy{ID: 80, Y: 599})
	for i := 0; i < 40; i++ {
		s.obstacles = append(s.obstacles, &models.Obstacle{ID: i, Y: 0})
	}

	s.Advance()

	if len(s.candies) != constants.MAX_CANDY_RECORD {
		t.Fatalf("kept %d candies", len(s.candies))
	}
	if s.candies[0].ID != 30 || s.candies[len(s.candies)-1].ID != 79 {
		t.Fatalf("kept wrong candies: first=%d last=%d", s.candies[0].ID, s.candies[len(s.candies)-1].ID)
	}
	if len(s.obstacles) != constants.MAX_OBST_RECORD || s.obstacles[0].ID != 10 {
		t.Fatalf("kept %d obstacles starting at %d", len(s.obstacles), s.obstacles[0].ID)
	}
}

func TestVisibleBand(t *testing.T) {
	s := activeSession(t, models.ModeSingle, 1, time.Now())
	s.candies = []*models.Candy{{ID: 0, Y: -150}, {ID: 1, Y: -50}, {ID: 2, Y: 300, Collected: true}}
	s.obstacles = []*models.Obstacle{{ID: 0, Y: 100}, {ID: 1, Y: 200, Hit: true}}

	candies := s.VisibleCandies()
	if len(candies) != 1 || candies[0].ID != 1 {
		t.Fatalf("visible candies = %+v", candies)
	}
	obstacles := s.VisibleObstacles()
	if len(obstacles) != 1 || obstacles[0].ID != 0 {
		t.Fatalf("visible obstacles = %+v", obstacles)
	}
}

func TestSpawnIntervals(t *testing.T) {
	s := activeSession(t, models.ModeSingle, 1, time.Now())
	p := s.Player("a")

	cases := []struct {
		score        int
		wantCandy    time.Duration
		wantObstacle time.Duration
	}{
		{100, 1000 * time.Millisecond, 1500 * time.Millisecond},
		{500, 900 * time.Millisecond, 1200 * time.Millisecond},
		{400, 925 * time.Millisecond, 1275 * time.Millisecond},
		{100000, 600 * time.Millisecond, 800 * time.Millisecond},
	}
	for _, tc := range cases {
		p.Score = tc.score
		if got := s.CandyInterval(); got != tc.wantCandy {
			t.Fatalf("score %d: candy interval = %v, want %v", tc.score, got, tc.wantCandy)
		}
		if got := s.ObstacleInterval(); got != tc.wantObstacle {
			t.Fatalf("score %d: obstacle interval = %v, want %v", tc.score, got, tc.wantObstacle)
		}
	}
}

func TestSpawnCandyHonorsIntervalAndCap(t *testing.T) {
	start := time.Now()
	s := activeSession(t, models.ModeSingle, 1, start)

	if _, ok := s.SpawnCandy(start.Add(500 * time.Millisecond)); ok {
		t.Fatal("spawned before the interval elapsed")
	}

	now := start
	lastID := -1
	for i := 0; i < constants.MAX_CANDIES_ON_SCREEN; i++ {
		now = now.Add(time.Second)
		c, ok := s.SpawnCandy(now)
		if !ok {
			t.Fatalf("spawn %d refused", i)
		}
		if c.ID <= lastID {
			t.Fatalf("candy id %d not increasing after %d", c.ID, lastID)
		}
		lastID = c.ID
		if c.Y != constants.SPAWN_Y || c.X < 10 || c.X > constants.FIELD_WIDTH-40 {
			t.Fatalf("bad spawn position: %+v", c)
		}
	}
	if _, ok := s.SpawnCandy(now.Add(time.Second)); ok {
		t.Fatal("spawned past the on-screen cap")
	}

	// Entities below the on-screen bound no longer count against the cap.
	s.candies[0].Y = constants.ON_SCREEN_BOUND + 1
	if c, ok := s.SpawnCandy(now.Add(2 * time.Second)); !ok || c.ID != lastID+1 {
		t.Fatalf("expected fresh id %d, got %+v ok=%v", lastID+1, c, ok)
	}
}

func TestCandyPointTiers(t *testing.T) {
	want := []int{20, 20, 20, 15, 15, 15, 12, 12, 12, 10, 10, 10, 10, 10, 10, 10}
	if len(want) != len(constants.CANDY_EMOJIS) {
		t.Fatalf("emoji set has %d entries", len(constants.CANDY_EMOJIS))
	}
	for i, w := range want {
		if got := candyPoints(i); got != w {
			t.Fatalf("candyPoints(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestObstacleTierMix(t *testing.T) {
	start := time.Now()
	s := activeSession(t, models.ModeSingle, 1, start)
	s.tuning.MaxObstacles = 10000

	small := 0
	const n = 2000
	now := start
	for i := 0; i < n; i++ {
		now = now.Add(2 * time.Second)
		o, ok := s.SpawnObstacle(now)
		if !ok {
			t.Fatalf("spawn %d refused", i)
		}
		if o.Tier == models.TierSmall {
			small++
		}
	}
	ratio := float64(small) / n
	if ratio < 0.65 || ratio > 0.75 {
		t.Fatalf("small obstacle ratio = %.3f", ratio)
	}
}

func TestSpawnStopsOutsideActivePhase(t *testing.T) {
	start := time.Now()
	s := activeSession(t, models.ModeSingle, 1, start)
	s.End("a", CauseScore)
	if _, ok := s.SpawnCandy(start.Add(time.Hour)); ok {
		t.Fatal("candy spawned after the match ended")
	}
	if _, ok := s.SpawnObstacle(start.Add(time.Hour)); ok {
		t.Fatal("obstacle spawned after the match ended")
	}
}
