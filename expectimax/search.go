package expectimax

import (
	"math"

	"github.com/brensch/ttfe/game"
)

// spawn is one possible chance outcome with its probability.
type spawn struct {
	value  int
	weight float64
}

var spawns = [2]spawn{
	{value: game.SpawnLow, weight: game.SpawnLowChance},
	{value: game.SpawnHigh, weight: 0.1},
}

// node is a position in the search tree. It owns its board.
type node struct {
	board     *game.Board
	depth     int
	agentTurn bool
}

func (a *Agent) expectimax(n node) float64 {
	a.stats.Nodes++
	if n.depth >= MaxDepth || !n.board.IsMovePossible() {
		a.stats.Evaluations++
		return Evaluate(n.board)
	}
	if n.agentTurn {
		return a.maxNode(n)
	}
	return a.chanceNode(n)
}

func (a *Agent) maxNode(n node) float64 {
	best := math.Inf(-1)
	for _, d := range searchOrder {
		if !n.board.IsMovePossibleIn(d) {
			continue
		}
		child := n.board.Clone()
		child.PerformMove(d)
		score := a.expectimax(node{board: child, depth: n.depth + 1, agentTurn: false})
		best = math.Max(best, score)
	}
	return best
}

// chanceNode averages over every empty cell. The two spawn values are
// weighted by their probability and the sum is divided by the number of
// cells, not by the number of outcomes.
func (a *Agent) chanceNode(n node) float64 {
	total := 0.0
	empty := 0
	for y := 0; y < n.board.Height(); y++ {
		for x := 0; x < n.board.Width(); x++ {
			if n.board.At(x, y) != 0 {
				continue
			}
			empty++
			for _, s := range spawns {
				child := n.board.Clone()
				child.SetPieceAt(x, y, s.value)
				total += s.weight * a.expectimax(node{board: child, depth: n.depth + 1, agentTurn: true})
			}
		}
	}
	if empty == 0 {
		a.stats.Evaluations++
		return Evaluate(n.board)
	}
	return total / float64(empty)
}
