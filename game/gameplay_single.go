package game

import (
	"context"
	"fmt"

	"candy-rush/scores"
)

// persistSingle records the lone player's final score, whatever the cause.
func persistSingle(ctx context.Context, repo scores.Repository, o *Outcome) error {
	if len(o.Players) == 0 {
		return fmt.Errorf("single match %s has no player", o.Code)
	}
	p := o.Players[0]
	if _, err := repo.RecordSingle(ctx, p.Name, p.Score); err != nil {
		return fmt.Errorf("record single score for %s: %w", p.Name, err)
	}
	return nil
}
