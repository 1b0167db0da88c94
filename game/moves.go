package game

import "fmt"

// IsMovePossibleIn reports whether moving in d would change the board: some
// tile has an in-bounds neighbour in d that is empty or holds the same value.
func (b *Board) IsMovePossibleIn(d Direction) bool {
	if !d.Valid() {
		return false
	}
	dx, dy := d.Delta()
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			v := b.cells[y*b.width+x]
			if v == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if !b.inBounds(nx, ny) {
				continue
			}
			if n := b.cells[ny*b.width+nx]; n == 0 || n == v {
				return true
			}
		}
	}
	return false
}

// IsMovePossible reports whether any direction is playable. The game is over
// when it returns false.
func (b *Board) IsMovePossible() bool {
	for _, d := range Directions {
		if b.IsMovePossibleIn(d) {
			return true
		}
	}
	return false
}

// LegalMoves returns the playable directions in declaration order.
func (b *Board) LegalMoves() []Direction {
	moves := make([]Direction, 0, 4)
	for _, d := range Directions {
		if b.IsMovePossibleIn(d) {
			moves = append(moves, d)
		}
	}
	return moves
}

// PerformMove slides, merges and slides again in d. It reports whether any
// cell changed; only then is the move counted.
func (b *Board) PerformMove(d Direction) (bool, error) {
	if !d.Valid() {
		return false, fmt.Errorf("perform move %v: %w", d, ErrNullArgument)
	}

	moved := b.slide(d)
	if b.merge(d) {
		moved = true
	}
	if b.slide(d) {
		moved = true
	}

	if moved {
		b.moves++
	}
	return moved, nil
}

// walk visits every cell starting from the edge that d moves toward, so a
// tile is always handled after the tiles in front of it.
func (b *Board) walk(d Direction, fn func(x, y int)) {
	dx, dy := d.Delta()
	for i := 0; i < b.height; i++ {
		y := i
		if dy == 1 {
			y = b.height - 1 - i
		}
		for j := 0; j < b.width; j++ {
			x := j
			if dx == 1 {
				x = b.width - 1 - j
			}
			fn(x, y)
		}
	}
}

func (b *Board) slide(d Direction) bool {
	dx, dy := d.Delta()
	moved := false
	b.walk(d, func(x, y int) {
		if b.cells[y*b.width+x] == 0 {
			return
		}
		for b.inBounds(x+dx, y+dy) && b.cells[(y+dy)*b.width+x+dx] == 0 {
			b.cells[(y+dy)*b.width+x+dx] = b.cells[y*b.width+x]
			b.cells[y*b.width+x] = 0
			x += dx
			y += dy
			moved = true
		}
	})
	return moved
}

// merge combines each tile with an equal neighbour in d. A cell that already
// absorbed a merge this move does not absorb another, so [2,2,2] moving
// toward index 0 becomes [4,0,2] rather than [8,0,0].
func (b *Board) merge(d Direction) bool {
	dx, dy := d.Delta()
	absorbed := make([]bool, len(b.cells))
	merged := false
	b.walk(d, func(x, y int) {
		src := y*b.width + x
		v := b.cells[src]
		if v == 0 || !b.inBounds(x+dx, y+dy) {
			return
		}
		dst := (y+dy)*b.width + x + dx
		if b.cells[dst] != v || absorbed[dst] {
			return
		}
		b.cells[dst] = v * 2
		b.cells[src] = 0
		b.score += b.cells[dst]
		b.pieces--
		absorbed[dst] = true
		merged = true
	})
	return merged
}
