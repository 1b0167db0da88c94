package expectimax

import "github.com/brensch/ttfe/game"

// Term weights. They are fixed; the agent exposes no way to tune them.
const (
	WeightHighest      = 1.0
	WeightEmpty        = 2.0
	WeightMerge        = 3.0
	WeightSmoothness   = 1.5
	WeightMonotonicity = 1.0
	WeightCorner       = 2.0
	WeightMobility     = 1.0
)

// Breakdown holds the unweighted heuristic terms for one board.
type Breakdown struct {
	Highest      float64
	Empty        float64
	Merge        float64
	Smoothness   float64
	Monotonicity float64
	Corner       float64
	Mobility     float64
}

// Total is the weighted sum of the terms.
func (t Breakdown) Total() float64 {
	return t.Highest*WeightHighest +
		t.Empty*WeightEmpty +
		t.Merge*WeightMerge +
		t.Smoothness*WeightSmoothness +
		t.Monotonicity*WeightMonotonicity +
		t.Corner*WeightCorner +
		t.Mobility*WeightMobility
}

// Terms computes every heuristic term. Each term rescans the board.
func Terms(b *game.Board) Breakdown {
	return Breakdown{
		Highest:      highestTileScore(b),
		Empty:        emptySpaceScore(b),
		Merge:        mergePotentialScore(b),
		Smoothness:   smoothnessScore(b),
		Monotonicity: monotonicityScore(b),
		Corner:       cornerBonus(b),
		Mobility:     mobilityScore(b),
	}
}

// Evaluate is the static evaluation used at search leaves.
func Evaluate(b *game.Board) float64 {
	return Terms(b).Total()
}

func highestTileScore(b *game.Board) float64 {
	return float64(b.HighestTile())
}

func emptySpaceScore(b *game.Board) float64 {
	empty := 0
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if b.At(x, y) == 0 {
				empty++
			}
		}
	}
	return float64(empty * 200)
}

// mergePotentialScore counts each equal right and down neighbour once.
func mergePotentialScore(b *game.Board) float64 {
	merges := 0
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			v := b.At(x, y)
			if v == 0 {
				continue
			}
			if x+1 < b.Width() && b.At(x+1, y) == v {
				merges += v
			}
			if y+1 < b.Height() && b.At(x, y+1) == v {
				merges += v
			}
		}
	}
	return float64(merges * 2)
}

// adjacentDifference is minus the sum of |a-b| over horizontally then
// vertically adjacent pairs of occupied cells.
func adjacentDifference(b *game.Board) float64 {
	total := 0.0
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width()-1; x++ {
			cur, next := b.At(x, y), b.At(x+1, y)
			if cur != 0 && next != 0 {
				total -= absDiff(cur, next)
			}
		}
	}
	for x := 0; x < b.Width(); x++ {
		for y := 0; y < b.Height()-1; y++ {
			cur, next := b.At(x, y), b.At(x, y+1)
			if cur != 0 && next != 0 {
				total -= absDiff(cur, next)
			}
		}
	}
	return total
}

func smoothnessScore(b *game.Board) float64 {
	return adjacentDifference(b)
}

// monotonicityScore uses the same formula as smoothness, so it doubles that
// signal rather than checking that rows and columns are ordered. Changing it
// changes which moves the agent picks.
func monotonicityScore(b *game.Board) float64 {
	return adjacentDifference(b)
}

// cornerBonus rewards keeping the highest tile in the bottom-left cell.
func cornerBonus(b *game.Board) float64 {
	highest := b.HighestTile()
	if b.At(0, b.Height()-1) == highest {
		return float64(highest * 4)
	}
	return 0
}

func mobilityScore(b *game.Board) float64 {
	moves := 0
	for _, d := range searchOrder {
		if b.IsMovePossibleIn(d) {
			moves++
		}
	}
	return float64(moves * 50)
}

func absDiff(a, b int) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
