// Command play runs one game of 2048 in the terminal, played either by the
// expectimax agent or from the keyboard.
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
	"syscall"
	"time"

	"github.com/brensch/ttfe/config"
	"github.com/brensch/ttfe/expectimax"
	"github.com/brensch/ttfe/game"
	"github.com/brensch/ttfe/logging"
	"github.com/brensch/ttfe/selfplay"
	"github.com/brensch/ttfe/spectate"
	"github.com/brensch/ttfe/store"
	"github.com/brensch/ttfe/tui"
	tea "github.com/charmbracelet/bubbletea"
)

type outcome struct {
	res selfplay.GameResult
	err error
}

func main() {
	width := flag.Int("width", config.Int("TTFE_WIDTH", 4), "Board width")
	height := flag.Int("height", config.Int("TTFE_HEIGHT", 4), "Board height")
	seed := flag.Int64("seed", config.Int64("TTFE_SEED", 0), "Random seed (0 picks one from the clock)")
	human := flag.Bool("human", false, "Play with the keyboard instead of the agent")
	useTUI := flag.Bool("tui", true, "Show the game in a terminal UI (otherwise boards are logged)")
	updateEvery := flag.Int("update-every", 1, "Redraw an agent game every N moves")
	listen := flag.String("listen", config.String("TTFE_LISTEN", ""), "Address for the read-only spectator page, e.g. :8080")
	outDir := flag.String("out-dir", config.String("TTFE_OUT_DIR", ""), "If set, write the game's result row to this directory")
	logFormat := flag.String("log-format", config.String("TTFE_LOG_FORMAT", logging.FormatText), "Log format: text, json or pretty")
	logLevel := flag.String("log-level", config.String("TTFE_LOG_LEVEL", "info"), "Log level")
	logFile := flag.String("log-file", "", "Log destination while the terminal UI is active (default: discard)")
	flag.Parse()

	opts := options{
		width:       *width,
		height:      *height,
		seed:        *seed,
		human:       *human,
		useTUI:      *useTUI,
		updateEvery: *updateEvery,
		listen:      *listen,
		outDir:      *outDir,
		logFormat:   *logFormat,
		logLevel:    *logLevel,
		logFile:     *logFile,
	}
	if err := run(opts); err != nil {
		log.Fatalf("Game failed: %v", err)
	}
}

type options struct {
	width, height int
	seed          int64
	human         bool
	useTUI        bool
	updateEvery   int
	listen        string
	outDir        string
	logFormat     string
	logLevel      string
	logFile       string
}

// run plays the game; deferred cleanup (spectator shutdown, log file) runs
// before main reports any error.
func run(o options) error {
	if o.human && !o.useTUI {
		return errors.New("-human needs the terminal UI")
	}
	if o.seed == 0 {
		o.seed = time.Now().UnixNano()
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

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var agent game.Agent
	var keys *tui.KeyboardAgent
	agentName := "expectimax"
	if o.human {
		keys = tui.NewKeyboardAgent(ctx)
		agent = keys
		agentName = "human"
	} else {
		agent = expectimax.New(expectimax.WithLogger(logger))
	}

	var notifiers game.MultiNotifier
	if o.listen != "" {
		var hubOpts []spectate.HubOption
		if !o.human {
			hubOpts = append(hubOpts, spectate.WithHints(moveHints(expectimax.New(expectimax.WithLogger(logger)))))
		}
		hub := spectate.NewHub(hubOpts...)
		hubDone := make(chan struct{})
		go hub.Run(hubDone)
		srv := spectate.NewServer(hub, logger)
		go func() {
			if err := srv.Listen(o.listen); err != nil {
				logger.Error("spectator server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Close(shutdownCtx)
			close(hubDone)
		}()
		notifiers = append(notifiers, hub)
	}

	spec := selfplay.GameSpec{
		ID:     fmt.Sprintf("%s_%d", agentName, o.seed),
		Seed:   o.seed,
		Width:  o.width,
		Height: o.height,
	}
	playOpts := selfplay.PlayOptions{UpdateEvery: o.updateEvery}

	var out outcome
	if o.useTUI {
		title := fmt.Sprintf("2048 (%dx%d, seed %d, %s)", o.width, o.height, o.seed, agentName)
		p := tea.NewProgram(tui.NewModel(title, keys), tea.WithAltScreen())
		notifiers = append(notifiers, tui.NewNotifier(p))

		done := make(chan outcome, 1)
		go func() {
			res, err := selfplay.PlayGame(ctx, spec, agent, notifiers, playOpts)
			done <- outcome{res: res, err: err}
		}()
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		_, uiErr := p.Run()
		cancel()
		out = <-done
		if uiErr != nil {
			return fmt.Errorf("terminal UI: %w", uiErr)
		}
	} else {
		notifiers = append(notifiers, selfplay.LogNotifier{Logger: logger})
		res, err := selfplay.PlayGame(ctx, spec, agent, notifiers, playOpts)
		out = outcome{res: res, err: err}
	}

	r := out.res.Result
	if out.err != nil && !selfplay.IsInterrupted(out.err) {
		return out.err
	}
	if out.err != nil {
		log.Printf("Game stopped after %d moves (score %d)", r.Moves, r.Score)
		return nil
	}
	log.Printf("Game finished: won=%v score=%d moves=%d highest=%d", r.Won, r.Score, r.Moves, r.HighestTile)

	if o.outDir != "" {
		path, err := store.WriteBatchParquetAtomic(o.outDir, []store.GameRow{out.res.Row(agentName)})
		if err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		log.Printf("Result written to %s", path)
	}
	return nil
}

// moveHints scores a copy of the grid with a separate agent, so the
// spectator page never disturbs the game being played.
func moveHints(scorer *expectimax.Agent) spectate.HintFunc {
	return func(cells [][]int) []spectate.Hint {
		scores, err := scorer.ScoreCells(cells)
		if err != nil {
			return nil
		}
		hints := make([]spectate.Hint, 0, len(scores))
		for _, ms := range scores {
			if ms.Legal {
				hints = append(hints, spectate.Hint{Direction: ms.Direction.String(), Score: ms.Score})
			}
		}
		return hints
	}
}
