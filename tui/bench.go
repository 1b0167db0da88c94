package tui

import (
	"fmt"
	"time"

	"github.com/brensch/ttfe/selfplay"
	tea "github.com/charmbracelet/bubbletea"
)

const recentGames = 10

type TickMsg time.Time

// BenchDoneMsg ends the dashboard once the benchmark returns.
type BenchDoneMsg struct {
	Totals selfplay.Totals
	Err    error
}

// BenchModel shows live benchmark throughput.
type BenchModel struct {
	counters  *selfplay.Counters
	updates   <-chan selfplay.GameUpdate
	games     int
	totals    selfplay.Totals
	startTime time.Time
	recent    []string
	done      *BenchDoneMsg
}

func NewBenchModel(games int, counters *selfplay.Counters, updates <-chan selfplay.GameUpdate) BenchModel {
	return BenchModel{
		counters:  counters,
		updates:   updates,
		games:     games,
		startTime: time.Now(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForUpdate(updates <-chan selfplay.GameUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return u
	}
}

func (m BenchModel) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m BenchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		if m.counters != nil {
			m.totals = m.counters.Snapshot()
		}
		if m.done != nil {
			return m, nil
		}
		return m, tickCmd()
	case selfplay.GameUpdate:
		res := msg.Result
		line := fmt.Sprintf("Worker %d: seed %d score %d moves %d best %d",
			msg.WorkerID, res.Seed, res.Result.Score, res.Result.Moves, res.Result.HighestTile)
		if res.Result.Won {
			line += " (won)"
		}
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > recentGames {
			m.recent = m.recent[:recentGames]
		}
		return m, waitForUpdate(m.updates)
	case BenchDoneMsg:
		m.done = &msg
		m.totals = msg.Totals
		return m, tea.Quit
	}
	return m, nil
}

func (m BenchModel) View() string {
	duration := time.Since(m.startTime)
	gamesPerSec := float64(m.totals.Games) / duration.Seconds()
	movesPerSec := float64(m.totals.Moves) / duration.Seconds()
	if duration.Seconds() < 1 {
		gamesPerSec = 0
		movesPerSec = 0
	}
	winRate := 0.0
	if m.totals.Games > 0 {
		winRate = 100 * float64(m.totals.Wins) / float64(m.totals.Games)
	}

	s := titleStyle.Render("2048 benchmark") + "\n"
	s += fmt.Sprintf("Games Played:   %d / %d\n", m.totals.Games, m.games)
	s += fmt.Sprintf("Skipped:        %d\n", m.totals.Skipped)
	s += fmt.Sprintf("Wins:           %d (%.1f%%)\n", m.totals.Wins, winRate)
	s += fmt.Sprintf("Total Moves:    %d\n", m.totals.Moves)
	s += fmt.Sprintf("Rows Written:   %d\n", m.totals.Rows)
	s += fmt.Sprintf("Duration:       %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Games/Sec:      %.2f\n", gamesPerSec)
	s += fmt.Sprintf("Moves/Sec:      %.2f\n\n", movesPerSec)

	s += "Recent Games:\n"
	for _, g := range m.recent {
		s += g + "\n"
	}

	if m.done != nil {
		if m.done.Err != nil {
			s += "\n" + bannerStyle.Render("Stopped: "+m.done.Err.Error()) + "\n"
		} else {
			s += "\nDone.\n"
		}
		return s
	}
	s += "\n" + dimStyle.Render("Press q to quit.") + "\n"
	return s
}
