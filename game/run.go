package game

import (
	"context"
	"fmt"
)

// WinMessage is shown when a move produces WinningTile.
var WinMessage = fmt.Sprintf("Congratulations! You reached %d and won the game!", WinningTile)

// Agent picks the next move for the board. The search agent and a human
// input adapter both satisfy it.
type Agent interface {
	ChooseMove(b *Board, n Notifier) Direction
}

// Automated is implemented by agents that do not need a redraw after every
// move. Run only honours RunOptions.UpdateEvery for them.
type Automated interface {
	Automated() bool
}

// Notifier receives the game's output. Calls are synchronous and errors are
// the notifier's own concern.
type Notifier interface {
	UpdateScreen(b *Board)
	ShowMessage(text string)
	ShowGameOverScreen(b *Board)
}

// NotifierFuncs adapts plain functions to a Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	OnUpdate   func(b *Board)
	OnMessage  func(text string)
	OnGameOver func(b *Board)
}

func (f NotifierFuncs) UpdateScreen(b *Board) {
	if f.OnUpdate != nil {
		f.OnUpdate(b)
	}
}

func (f NotifierFuncs) ShowMessage(text string) {
	if f.OnMessage != nil {
		f.OnMessage(text)
	}
}

func (f NotifierFuncs) ShowGameOverScreen(b *Board) {
	if f.OnGameOver != nil {
		f.OnGameOver(b)
	}
}

// NopNotifier discards everything.
var NopNotifier Notifier = NotifierFuncs{}

// MultiNotifier fans every call out to each notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) UpdateScreen(b *Board) {
	for _, n := range m {
		n.UpdateScreen(b)
	}
}

func (m MultiNotifier) ShowMessage(text string) {
	for _, n := range m {
		n.ShowMessage(text)
	}
}

func (m MultiNotifier) ShowGameOverScreen(b *Board) {
	for _, n := range m {
		n.ShowGameOverScreen(b)
	}
}

type RunOptions struct {
	// UpdateEvery redraws an automated agent's game every N moves. Values
	// below 1 mean every move.
	UpdateEvery int
}

// Result summarises a finished (or interrupted) game.
type Result struct {
	Won         bool
	Score       int
	Moves       int
	HighestTile int
	Pieces      int
}

func (b *Board) result(won bool) Result {
	return Result{
		Won:         won,
		Score:       b.score,
		Moves:       b.moves,
		HighestTile: b.HighestTile(),
		Pieces:      b.pieces,
	}
}

// Run drives the game until no move is possible or a tile reaches
// WinningTile, redrawing after every move.
func (b *Board) Run(ctx context.Context, agent Agent, n Notifier) (Result, error) {
	return b.RunWithOptions(ctx, agent, n, RunOptions{})
}

// RunWithOptions is Run with a configurable redraw frequency. It returns
// ctx.Err() if the context ends while the agent is choosing.
func (b *Board) RunWithOptions(ctx context.Context, agent Agent, n Notifier, opts RunOptions) (Result, error) {
	if agent == nil || n == nil {
		return Result{}, fmt.Errorf("run needs an agent and a notifier: %w", ErrNullArgument)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	every := opts.UpdateEvery
	if every < 1 {
		every = 1
	}
	automated := false
	if a, ok := agent.(Automated); ok {
		automated = a.Automated()
	}

	moveCount := 0
	n.UpdateScreen(b)
	for b.IsMovePossible() {
		dir := agent.ChooseMove(b, n)
		if err := ctx.Err(); err != nil {
			return b.result(false), err
		}

		moved, err := b.PerformMove(dir)
		if err != nil {
			return b.result(false), err
		}
		if !moved {
			continue
		}
		moveCount++

		// A win ends the game before the next spawn.
		if b.HasWon() {
			n.UpdateScreen(b)
			n.ShowMessage(WinMessage)
			return b.result(true), nil
		}

		if err := b.AddPiece(); err != nil {
			return b.result(false), err
		}
		if !automated || moveCount%every == 0 {
			n.UpdateScreen(b)
		}
	}

	n.ShowGameOverScreen(b)
	return b.result(false), nil
}
