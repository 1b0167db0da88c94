package tui

import (
	"context"

	"github.com/brensch/ttfe/game"
)

// KeyboardAgent is a game.Agent driven by key presses.
//
// ChooseMove blocks until a key arrives. When ctx ends it returns North and
// the run loop stops on the context error before applying it.
type KeyboardAgent struct {
	ctx  context.Context
	keys chan game.Direction
}

func NewKeyboardAgent(ctx context.Context) *KeyboardAgent {
	return &KeyboardAgent{ctx: ctx, keys: make(chan game.Direction, 8)}
}

// Press queues a direction. Presses beyond the buffer are dropped.
func (k *KeyboardAgent) Press(d game.Direction) {
	select {
	case k.keys <- d:
	default:
	}
}

func (k *KeyboardAgent) ChooseMove(_ *game.Board, _ game.Notifier) game.Direction {
	select {
	case d := <-k.keys:
		return d
	case <-k.ctx.Done():
		return game.North
	}
}

// KeyDirection maps bubbletea key names to directions.
func KeyDirection(key string) (game.Direction, bool) {
	switch key {
	case "up", "w", "k":
		return game.North, true
	case "down", "s", "j":
		return game.South, true
	case "right", "d", "l":
		return game.East, true
	case "left", "a", "h":
		return game.West, true
	}
	return 0, false
}
