package game

import (
	"context"
	"fmt"

	"candy-rush/constants"
	"candy-rush/scores"
)

// matchRecord lays the players out by seat. A tie at a termination not caused
// by lives is recorded as a draw.
func matchRecord(o *Outcome) (scores.MatchRecord, error) {
	if len(o.Players) == 0 {
		return scores.MatchRecord{}, fmt.Errorf("match %s has no players", o.Code)
	}
	p1 := o.Players[0]
	rec := scores.MatchRecord{
		Player1Name:  p1.Name,
		Player1Score: p1.Score,
		Winner:       p1.Name,
	}
	if len(o.Players) < 2 {
		return rec, nil
	}

	p2 := o.Players[1]
	rec.Player2Name = &p2.Name
	rec.Player2Score = &p2.Score
	switch {
	case o.Cause != CauseLives && p1.Score == p2.Score:
		rec.Winner = constants.DRAW
	case o.Winner != nil:
		rec.Winner = o.Winner.Name
	default:
		rec.Winner = scores.WinnerByScore(p1.Name, p1.Score, p2.Name, p2.Score, constants.DRAW)
	}
	return rec, nil
}

func persistMulti(ctx context.Context, repo scores.Repository, o *Outcome) error {
	rec, err := matchRecord(o)
	if err != nil {
		return err
	}
	if err := repo.RecordMatch(ctx, rec); err != nil {
		return fmt.Errorf("record match %s: %w", o.Code, err)
	}
	return nil
}
