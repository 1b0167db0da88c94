// Package expectimax picks 2048 moves with a two-ply expectimax search.
//
// Every legal root move is applied to a clone of the board and scored by
// alternating chance nodes (every empty cell, spawning a 2 or a 4) and max
// nodes (every legal move) until MaxDepth, where the static heuristic in
// Evaluate takes over. Branches never share a board.
package expectimax

import (
	"log/slog"
	"math"

	"github.com/brensch/ttfe/game"
)

// MaxDepth bounds the search. The root move counts as the first ply.
const MaxDepth = 2

// searchOrder is the order moves are tried in. On equal scores the earliest
// move wins.
var searchOrder = [4]game.Direction{game.South, game.West, game.East, game.North}

// Stats counts search work since the agent was created.
type Stats struct {
	Searches    int64
	Nodes       int64
	Evaluations int64
}

// MoveScore is the root score of one direction.
type MoveScore struct {
	Direction game.Direction
	Legal     bool
	Score     float64
}

// Agent is a game.Agent backed by expectimax search. It is not safe for
// concurrent use; give each goroutine its own.
type Agent struct {
	logger *slog.Logger
	stats  Stats
}

type Option func(*Agent)

// WithLogger sets the logger used for per-move debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

func New(opts ...Option) *Agent {
	a := &Agent{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

// Automated marks the agent as a computer player for game.Run.
func (a *Agent) Automated() bool { return true }

func (a *Agent) Stats() Stats { return a.stats }

// ChooseMove returns the legal direction with the best expected score, or
// North if nothing is legal. Run never asks in that state.
func (a *Agent) ChooseMove(b *game.Board, _ game.Notifier) game.Direction {
	a.stats.Searches++
	nodesBefore := a.stats.Nodes

	best := game.North
	bestScore := math.Inf(-1)
	found := false
	for _, d := range searchOrder {
		if !b.IsMovePossibleIn(d) {
			continue
		}
		score := a.scoreMove(b, d)
		if score > bestScore {
			bestScore = score
			best = d
			found = true
		}
	}

	if !found {
		a.log().Warn("no legal move, falling back", "move", best)
		return best
	}
	a.log().Debug("expectimax move",
		"move", best,
		"score", bestScore,
		"nodes", a.stats.Nodes-nodesBefore,
		"board_moves", b.MovesPerformed(),
	)
	return best
}

// ScoreMoves scores every direction the way ChooseMove does. Illegal
// directions are reported with Legal=false and a score of -Inf. The result is
// indexed by direction.
func (a *Agent) ScoreMoves(b *game.Board) [4]MoveScore {
	var out [4]MoveScore
	for _, d := range game.Directions {
		out[d] = MoveScore{Direction: d, Score: math.Inf(-1)}
	}
	for _, d := range searchOrder {
		if b.IsMovePossibleIn(d) {
			out[d].Legal = true
			out[d].Score = a.scoreMove(b, d)
		}
	}
	return out
}

func (a *Agent) scoreMove(b *game.Board, d game.Direction) float64 {
	child := b.Clone()
	child.PerformMove(d)
	return a.expectimax(node{board: child, depth: 1, agentTurn: false})
}

// ScoreCells is ScoreMoves for a bare grid (cells[y][x]). Scores do not depend
// on counters or the random source, so callers can score a copy of a live
// game without disturbing it.
func (a *Agent) ScoreCells(cells [][]int) ([4]MoveScore, error) {
	b, err := game.FromCells(cells, 0)
	if err != nil {
		return [4]MoveScore{}, err
	}
	return a.ScoreMoves(b), nil
}
