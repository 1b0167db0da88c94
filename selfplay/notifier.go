package selfplay

import (
	"log/slog"

	"github.com/brensch/ttfe/game"
)

// LogNotifier writes boards and messages to a logger. Boards go out at
// debug level so a benchmark only prints them when asked to.
type LogNotifier struct {
	Logger *slog.Logger
	// Attrs are added to every record, e.g. the worker id.
	Attrs []any
}

func (l LogNotifier) log() *slog.Logger {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(l.Attrs) > 0 {
		logger = logger.With(l.Attrs...)
	}
	return logger
}

func (l LogNotifier) UpdateScreen(b *game.Board) {
	l.log().Debug("board",
		"moves", b.MovesPerformed(),
		"score", b.Score(),
		"board", "\n"+b.String(),
	)
}

func (l LogNotifier) ShowMessage(text string) {
	l.log().Info(text)
}

func (l LogNotifier) ShowGameOverScreen(b *game.Board) {
	l.log().Info("game over",
		"moves", b.MovesPerformed(),
		"score", b.Score(),
		"highest_tile", b.HighestTile(),
		"board", "\n"+b.String(),
	)
}
