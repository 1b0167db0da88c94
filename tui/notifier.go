package tui

import (
	"github.com/brensch/ttfe/game"
	tea "github.com/charmbracelet/bubbletea"
)

// Notifier forwards game events to a running program as messages.
type Notifier struct {
	send func(tea.Msg)
}

func NewNotifier(p *tea.Program) *Notifier {
	return &Notifier{send: p.Send}
}

func (n *Notifier) UpdateScreen(b *game.Board) {
	n.send(BoardMsg(SnapshotOf(b)))
}

func (n *Notifier) ShowMessage(text string) {
	n.send(MessageMsg(text))
}

func (n *Notifier) ShowGameOverScreen(b *game.Board) {
	n.send(GameOverMsg(SnapshotOf(b)))
}
