package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// BoardMsg replaces the board on screen.
type BoardMsg Snapshot

// MessageMsg sets the status line.
type MessageMsg string

// GameOverMsg shows the final board with the game-over banner.
type GameOverMsg Snapshot

// Model is the single-game view.
type Model struct {
	board   Snapshot
	message string
	over    bool
	keys    *KeyboardAgent
	title   string
}

// NewModel builds a view. keys may be nil when an automated agent plays;
// otherwise direction keys are forwarded to it.
func NewModel(title string, keys *KeyboardAgent) Model {
	return Model{title: title, keys: keys}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.keys != nil && !m.over {
			if d, ok := KeyDirection(key); ok {
				m.keys.Press(d)
			}
		}
	case BoardMsg:
		m.board = Snapshot(msg)
	case MessageMsg:
		m.message = string(msg)
	case GameOverMsg:
		m.board = Snapshot(msg)
		m.over = true
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	if m.title != "" {
		sb.WriteString(titleStyle.Render(m.title))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Score: %d   Moves: %d   Best tile: %d\n", m.board.Score, m.board.Moves, m.board.HighestTile))
	if len(m.board.Cells) > 0 {
		sb.WriteString(renderBoard(m.board.Cells, m.board.HighestTile))
		sb.WriteString("\n")
	}
	if m.message != "" {
		sb.WriteString(m.message)
		sb.WriteString("\n")
	}
	if m.over {
		sb.WriteString(bannerStyle.Render(fmt.Sprintf("Game over! Final score %d after %d moves.", m.board.Score, m.board.Moves)))
		sb.WriteString("\n")
	}
	help := "Press q to quit."
	if m.keys != nil && !m.over {
		help = "Arrows, WASD or HJKL to move. Press q to quit."
	}
	sb.WriteString(dimStyle.Render(help))
	sb.WriteString("\n")
	return sb.String()
}
