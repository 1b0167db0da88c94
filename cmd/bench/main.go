// Command bench plays a range of seeded expectimax games in parallel and
// writes one Parquet row per game.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/brensch/ttfe/config"
	"github.com/brensch/ttfe/expectimax"
	"github.com/brensch/ttfe/game"
	"github.com/brensch/ttfe/logging"
	"github.com/brensch/ttfe/selfplay"
	"github.com/brensch/ttfe/store"
	"github.com/brensch/ttfe/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/profile"
)

type outcome struct {
	totals selfplay.Totals
	err    error
}

func main() {
	def := selfplay.DefaultConfig()
	outDir := flag.String("out-dir", config.String("TTFE_OUT_DIR", def.OutDir), "Output directory for result parquet batches")
	workers := flag.Int("workers", config.Int("TTFE_WORKERS", def.Workers), "Number of parallel games")
	games := flag.Int("games", config.Int("TTFE_GAMES", def.Games), "Number of seeds to play")
	firstSeed := flag.Int64("first-seed", config.Int64("TTFE_SEED", def.FirstSeed), "First seed of the range")
	width := flag.Int("width", config.Int("TTFE_WIDTH", def.Width), "Board width")
	height := flag.Int("height", config.Int("TTFE_HEIGHT", def.Height), "Board height")
	gamesPerFlush := flag.Int("games-per-flush", config.Int("TTFE_GAMES_PER_FLUSH", def.GamesPerFlush), "Number of games per parquet file")
	seedLogPath := flag.String("seed-log", config.String("TTFE_SEED_LOG", ""), "Append-only log of finished seeds (default: <out-dir>/seeds.log)")
	useTUI := flag.Bool("tui", true, "Show a live dashboard (otherwise progress is logged)")
	logFormat := flag.String("log-format", config.String("TTFE_LOG_FORMAT", logging.FormatText), "Log format: text, json or pretty")
	logLevel := flag.String("log-level", config.String("TTFE_LOG_LEVEL", "info"), "Log level")
	logFile := flag.String("log-file", "", "Log destination while the dashboard is active (default: discard)")
	profileMode := flag.String("profile", "", "Write a profile of the run: cpu or mem")
	profileDir := flag.String("profile-dir", ".", "Directory for profile output")
	flag.Parse()

	opts := options{
		outDir:        *outDir,
		workers:       *workers,
		games:         *games,
		firstSeed:     *firstSeed,
		width:         *width,
		height:        *height,
		gamesPerFlush: *gamesPerFlush,
		seedLogPath:   *seedLogPath,
		useTUI:        *useTUI,
		logFormat:     *logFormat,
		logLevel:      *logLevel,
		logFile:       *logFile,
		profileMode:   *profileMode,
		profileDir:    *profileDir,
	}
	if err := run(opts); err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}
}

type options struct {
	outDir        string
	workers       int
	games         int
	firstSeed     int64
	width, height int
	gamesPerFlush int
	seedLogPath   string
	useTUI        bool
	logFormat     string
	logLevel      string
	logFile       string
	profileMode   string
	profileDir    string
}

// run does the work so that its deferred cleanup (profile, seed log, log
// file) always happens before main exits.
func run(o options) error {
	switch o.profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(o.profileDir), profile.NoShutdownHook, profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(o.profileDir), profile.NoShutdownHook, profile.Quiet).Stop()
	default:
		return fmt.Errorf("unknown -profile %q (want cpu or mem)", o.profileMode)
	}

	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	var logOut io.Writer = os.Stderr
	if o.useTUI {
		logOut = io.Discard
		if o.logFile != "" {
			f, err := os.OpenFile(o.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			logOut = f
		}
	}
	logger := logging.New(logOut, logging.Options{Format: o.logFormat, Level: level})
	slog.SetDefault(logger)

	seedLogPath := o.seedLogPath
	if seedLogPath == "" {
		seedLogPath = filepath.Join(o.outDir, "seeds.log")
	}
	seedLog, err := store.OpenSeedLog(seedLogPath)
	if err != nil {
		return err
	}
	defer seedLog.Close()

	cfg := selfplay.DefaultConfig()
	cfg.OutDir = o.outDir
	cfg.Workers = o.workers
	cfg.Games = o.games
	cfg.FirstSeed = o.firstSeed
	cfg.Width = o.width
	cfg.Height = o.height
	cfg.GamesPerFlush = o.gamesPerFlush

	log.Printf("Starting benchmark: %d games from seed %d on %dx%d with %d workers (%d seeds already done)",
		cfg.Games, cfg.FirstSeed, cfg.Width, cfg.Height, cfg.Workers, seedLog.Count())

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	counters := &selfplay.Counters{}
	updates := make(chan selfplay.GameUpdate, cfg.Workers)
	deps := selfplay.Deps{
		NewAgent: func() game.Agent { return expectimax.New(expectimax.WithLogger(logger)) },
		SeedLog:  seedLog,
		Counters: counters,
		Logger:   logger,
		OnGame: func(u selfplay.GameUpdate) {
			// Avoid blocking workers if the UI stops consuming.
			select {
			case updates <- u:
			default:
			}
		},
	}

	done := make(chan outcome, 1)
	go func() {
		totals, err := selfplay.Run(ctx, cfg, deps)
		done <- outcome{totals: totals, err: err}
	}()

	var out outcome
	if o.useTUI {
		p := tea.NewProgram(tui.NewBenchModel(cfg.Games, counters, updates), tea.WithAltScreen())
		finished := make(chan outcome, 1)
		go func() {
			res := <-done
			p.Send(tui.BenchDoneMsg{Totals: res.totals, Err: res.err})
			finished <- res
		}()
		_, uiErr := p.Run()
		// Quitting early stops the workers; wait for the final flush.
		cancel()
		out = <-finished
		if uiErr != nil {
			return errors.Join(fmt.Errorf("dashboard: %w", uiErr), out.err)
		}
	} else {
		out = logProgress(done, updates, counters)
	}

	t := out.totals
	if out.err != nil && !selfplay.IsInterrupted(out.err) {
		return out.err
	}
	if out.err != nil {
		log.Printf("Benchmark interrupted; rows already written are kept and finished seeds will be skipped next run")
	}
	log.Printf("Benchmark done: games=%d wins=%d moves=%d skipped=%d rows=%d", t.Games, t.Wins, t.Moves, t.Skipped, t.Rows)
	return nil
}

func logProgress(done <-chan outcome, updates <-chan selfplay.GameUpdate, counters *selfplay.Counters) outcome {
	startTime := time.Now()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case o := <-done:
			return o
		case u := <-updates:
			r := u.Result
			log.Printf("Worker %d: seed %d score %d moves %d best %d", u.WorkerID, r.Seed, r.Result.Score, r.Result.Moves, r.Result.HighestTile)
		case <-ticker.C:
			t := counters.Snapshot()
			secs := time.Since(startTime).Seconds()
			log.Printf("Stats: Games: %d, Games/s: %.2f, Moves/s: %.2f", t.Games, float64(t.Games)/secs, float64(t.Moves)/secs)
		}
	}
}
