package game

import (
	"context"

	"candy-rush/models"
	"candy-rush/scores"
)

// persistOutcome routes a finished match to the repository call for its mode.
func persistOutcome(ctx context.Context, repo scores.Repository, o *Outcome) error {
	if o.Mode == models.ModeSingle {
		return persistSingle(ctx, repo, o)
	}
	return persistMulti(ctx, repo, o)
}
