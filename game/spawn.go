// spawn.go implements random tile spawning.

package game

import "fmt"

// Spawn values and the probability of the smaller one.
const (
	SpawnLow       = 2
	SpawnHigh      = 4
	SpawnLowChance = 0.9
)

// AddPiece places a 2 (90%) or a 4 (10%) on a uniformly chosen empty cell.
// The value is drawn first, then coordinates are drawn until an empty cell
// comes up.
func (b *Board) AddPiece() error {
	if !b.IsSpaceLeft() {
		return fmt.Errorf("add piece: %w", ErrBoardFull)
	}

	value := SpawnHigh
	if b.rng.Float64() < SpawnLowChance {
		value = SpawnLow
	}

	var x, y int
	for {
		x = b.rng.Intn(b.width)
		y = b.rng.Intn(b.height)
		if b.cells[y*b.width+x] == 0 {
			break
		}
	}
	b.cells[y*b.width+x] = value
	b.pieces++
	return nil
}
