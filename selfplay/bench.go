package selfplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/brensch/ttfe/game"
	"github.com/brensch/ttfe/store"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Workers       int
	Games         int
	FirstSeed     int64
	Width         int
	Height        int
	GamesPerFlush int
	OutDir        string
	// AgentName is recorded in every output row.
	AgentName string
	// UpdateEvery is passed to each game's run loop.
	UpdateEvery int
}

func DefaultConfig() Config {
	return Config{
		Workers:       4,
		Games:         100,
		FirstSeed:     1,
		Width:         4,
		Height:        4,
		GamesPerFlush: 50,
		OutDir:        "data/bench",
		AgentName:     "expectimax",
		UpdateEvery:   50,
	}
}

func (c Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.Games < 1 {
		return fmt.Errorf("games must be >= 1, got %d", c.Games)
	}
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("board %dx%d: %w", c.Width, c.Height, game.ErrInvalidDimensions)
	}
	if c.OutDir == "" {
		return fmt.Errorf("out dir is required")
	}
	return nil
}

// GameUpdate is sent to Deps.OnGame after each finished game.
type GameUpdate struct {
	WorkerID int
	Result   GameResult
}

// Counters are updated live by Run. Readers may load them at any time.
type Counters struct {
	Games   atomic.Int64
	Wins    atomic.Int64
	Moves   atomic.Int64
	Skipped atomic.Int64
	Rows    atomic.Int64
}

// Totals is a snapshot of Counters.
type Totals struct {
	Games   int64
	Wins    int64
	Moves   int64
	Skipped int64
	Rows    int64
}

func (c *Counters) Snapshot() Totals {
	return Totals{
		Games:   c.Games.Load(),
		Wins:    c.Wins.Load(),
		Moves:   c.Moves.Load(),
		Skipped: c.Skipped.Load(),
		Rows:    c.Rows.Load(),
	}
}

type Deps struct {
	// NewAgent builds one agent per worker. Required.
	NewAgent func() game.Agent
	// NewNotifier builds one notifier per worker. Nil discards output.
	NewNotifier func(workerID int) game.Notifier
	// SeedLog skips seeds that already finished and records new ones once
	// their rows are on disk. Optional.
	SeedLog  *store.SeedLog
	Counters *Counters
	OnGame   func(GameUpdate)
	Logger   *slog.Logger
}

// Run plays seeds FirstSeed..FirstSeed+Games-1 across cfg.Workers
// goroutines and writes one row per finished game to cfg.OutDir.
//
// When ctx ends, games in flight are dropped, buffered rows are still
// flushed, and ctx.Err() is returned.
func Run(ctx context.Context, cfg Config, deps Deps) (Totals, error) {
	if err := cfg.validate(); err != nil {
		return Totals{}, err
	}
	if deps.NewAgent == nil {
		return Totals{}, fmt.Errorf("bench needs an agent factory: %w", game.ErrNullArgument)
	}
	if cfg.GamesPerFlush < 1 {
		cfg.GamesPerFlush = 1
	}
	counters := deps.Counters
	if counters == nil {
		counters = &Counters{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seeds := make(chan int64, cfg.Workers)
	rows := make(chan store.GameRow, cfg.Workers*4)

	writerErr := make(chan error, 1)
	go func() {
		writerErr <- writerLoop(cfg.OutDir, cfg.GamesPerFlush, rows, deps.SeedLog, counters, logger)
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(seeds)
		for i := 0; i < cfg.Games; i++ {
			seed := cfg.FirstSeed + int64(i)
			if deps.SeedLog != nil && deps.SeedLog.Has(seed) {
				counters.Skipped.Add(1)
				continue
			}
			select {
			case seeds <- seed:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < cfg.Workers; w++ {
		workerID := w
		g.Go(func() error {
			agent := deps.NewAgent()
			n := game.NopNotifier
			if deps.NewNotifier != nil {
				n = deps.NewNotifier(workerID)
			}
			opts := PlayOptions{
				UpdateEvery: cfg.UpdateEvery,
				OnMove:      func() { counters.Moves.Add(1) },
			}
			for seed := range seeds {
				spec := GameSpec{
					ID:     fmt.Sprintf("seed_%d_%dx%d", seed, cfg.Width, cfg.Height),
					Seed:   seed,
					Width:  cfg.Width,
					Height: cfg.Height,
				}
				res, err := PlayGame(gctx, spec, agent, n, opts)
				if err != nil {
					if gctx.Err() != nil {
						return nil
					}
					return err
				}
				rows <- res.Row(cfg.AgentName)
				counters.Games.Add(1)
				if res.Result.Won {
					counters.Wins.Add(1)
				}
				logger.Debug("game finished",
					"worker", workerID,
					"game_id", res.GameID,
					"score", res.Result.Score,
					"moves", res.Result.Moves,
					"highest_tile", res.Result.HighestTile,
				)
				if deps.OnGame != nil {
					deps.OnGame(GameUpdate{WorkerID: workerID, Result: res})
				}
			}
			return nil
		})
	}

	runErr := g.Wait()
	close(rows)
	wErr := <-writerErr

	totals := counters.Snapshot()
	if runErr != nil {
		return totals, runErr
	}
	if wErr != nil {
		return totals, wErr
	}
	return totals, ctx.Err()
}

// writerLoop batches rows into Parquet files of gamesPerFlush games each.
// A failed flush is logged and the loop keeps draining so workers never
// block; the first error is returned once in is closed.
func writerLoop(outDir string, gamesPerFlush int, in <-chan store.GameRow, seedLog *store.SeedLog, counters *Counters, logger *slog.Logger) error {
	var firstErr error
	pending := make([]int64, 0, gamesPerFlush)
	var bw *store.BatchWriter

	flush := func(final bool) {
		if bw == nil {
			return
		}
		path, n, err := bw.Finalize()
		bw = nil
		seeds := pending
		pending = make([]int64, 0, gamesPerFlush)
		if err != nil {
			logger.Error("parquet flush failed", "games", len(seeds), "final", final, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		counters.Rows.Add(int64(n))
		logger.Info("parquet flush ok", "path", path, "games", n, "final", final)
		if seedLog != nil {
			if err := seedLog.AddMany(seeds); err != nil {
				logger.Error("seed log append failed", "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	for row := range in {
		if bw == nil {
			w, err := store.NewBatchWriter(outDir)
			if err != nil {
				logger.Error("open batch writer failed", "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			bw = w
		}
		if err := bw.WriteRows([]store.GameRow{row}); err != nil {
			logger.Error("write row failed", "game_id", row.GameID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pending = append(pending, row.Seed)
		if len(pending) >= gamesPerFlush {
			flush(false)
		}
	}
	flush(true)
	return firstErr
}

// IsInterrupted reports whether err came from the run's context ending.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
