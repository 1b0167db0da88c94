// Package selfplay runs agent games without a human at the keyboard.
//
// PlayGame drives a single seeded game. Run plays a range of seeds on a
// pool of workers and streams the results to Parquet.
package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/brensch/ttfe/game"
	"github.com/brensch/ttfe/store"
)

// GameSpec identifies one game. The same seed and size always produce the
// same game for a deterministic agent.
type GameSpec struct {
	ID     string
	Seed   int64
	Width  int
	Height int
}

type GameResult struct {
	GameID     string
	Seed       int64
	Width      int
	Height     int
	Result     game.Result
	Duration   time.Duration
	FinalCells []int
}

type PlayOptions struct {
	UpdateEvery int
	// OnMove is called before every agent decision.
	OnMove func()
}

// countingAgent reports each decision to onMove and otherwise defers to
// the wrapped agent.
type countingAgent struct {
	game.Agent
	onMove func()
}

func (c countingAgent) ChooseMove(b *game.Board, n game.Notifier) game.Direction {
	c.onMove()
	return c.Agent.ChooseMove(b, n)
}

func (c countingAgent) Automated() bool {
	a, ok := c.Agent.(game.Automated)
	return ok && a.Automated()
}

func PlayGame(ctx context.Context, spec GameSpec, agent game.Agent, n game.Notifier, opts PlayOptions) (GameResult, error) {
	if agent == nil {
		return GameResult{}, fmt.Errorf("play game %s: %w", spec.ID, game.ErrNullArgument)
	}
	if n == nil {
		n = game.NopNotifier
	}
	b, err := game.New(spec.Width, spec.Height, spec.Seed)
	if err != nil {
		return GameResult{}, fmt.Errorf("play game %s: %w", spec.ID, err)
	}
	if opts.OnMove != nil {
		agent = countingAgent{Agent: agent, onMove: opts.OnMove}
	}

	start := time.Now()
	res, err := b.RunWithOptions(ctx, agent, n, game.RunOptions{UpdateEvery: opts.UpdateEvery})
	out := GameResult{
		GameID:     spec.ID,
		Seed:       spec.Seed,
		Width:      spec.Width,
		Height:     spec.Height,
		Result:     res,
		Duration:   time.Since(start),
		FinalCells: b.Cells(),
	}
	if err != nil {
		return out, fmt.Errorf("play game %s: %w", spec.ID, err)
	}
	return out, nil
}

// Row converts a finished game into its Parquet summary.
func (r GameResult) Row(agentName string) store.GameRow {
	cells := make([]int32, len(r.FinalCells))
	for i, v := range r.FinalCells {
		cells[i] = int32(v)
	}
	return store.GameRow{
		GameID:      r.GameID,
		Seed:        r.Seed,
		Agent:       agentName,
		Width:       int32(r.Width),
		Height:      int32(r.Height),
		Won:         r.Result.Won,
		Score:       int64(r.Result.Score),
		Moves:       int32(r.Result.Moves),
		HighestTile: int32(r.Result.HighestTile),
		Pieces:      int32(r.Result.Pieces),
		DurationMs:  r.Duration.Milliseconds(),
		FinishedNs:  time.Now().UnixNano(),
		FinalCells:  cells,
	}
}
