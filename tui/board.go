// Package tui shows games in the terminal with bubbletea.
//
// Model renders a single game fed by Notifier and forwards arrow keys to a
// KeyboardAgent. BenchModel is the live dashboard for benchmark runs.
package tui

import (
	"strconv"
	"strings"

	"github.com/brensch/ttfe/game"
	"github.com/charmbracelet/lipgloss"
)

// Snapshot is an immutable copy of the parts of a board the view needs.
// Boards are mutated by the game goroutine, so the UI never holds one.
type Snapshot struct {
	Cells       [][]int
	Score       int
	Moves       int
	HighestTile int
}

func SnapshotOf(b *game.Board) Snapshot {
	return Snapshot{
		Cells:       b.Rows(),
		Score:       b.Score(),
		Moves:       b.MovesPerformed(),
		HighestTile: b.HighestTile(),
	}
}

var tileColours = map[int]string{
	0:    "#3c3a32",
	2:    "#eee4da",
	4:    "#ede0c8",
	8:    "#f2b179",
	16:   "#f59563",
	32:   "#f67c5f",
	64:   "#f65e3b",
	128:  "#edcf72",
	256:  "#edcc61",
	512:  "#edc850",
	1024: "#edc53f",
	2048: "#edc22e",
}

var (
	darkText  = lipgloss.Color("#776e65")
	lightText = lipgloss.Color("#f9f6f2")
	bigTile   = lipgloss.Color("#3c3a32")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f65e3b"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func tileStyle(v, width int) lipgloss.Style {
	st := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	bg, ok := tileColours[v]
	if !ok {
		st = st.Background(bigTile)
	} else {
		st = st.Background(lipgloss.Color(bg))
	}
	if v <= 4 {
		return st.Foreground(darkText)
	}
	return st.Foreground(lightText).Bold(true)
}

// renderBoard draws cells with every tile padded to the widest value.
func renderBoard(cells [][]int, highest int) string {
	width := len(strconv.Itoa(highest)) + 2
	if width < 6 {
		width = 6
	}
	lines := make([]string, 0, len(cells))
	for _, row := range cells {
		tiles := make([]string, 0, len(row))
		for _, v := range row {
			label := "·"
			if v != 0 {
				label = strconv.Itoa(v)
			}
			tiles = append(tiles, tileStyle(v, width).Render(label))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	return boardStyle.Render(strings.Join(lines, "\n"))
}
