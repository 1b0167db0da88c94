// Package game implements the 2048 board engine.
//
// A Board owns its grid, counters and random source. Clones share nothing
// with their parent, so the search can give every hypothetical branch its
// own copy.
package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// WinningTile is the tile value that ends the game with a win.
const WinningTile = 2048

// Point is a board coordinate.
type Point struct {
	X int
	Y int
}

// Board is a width x height grid of tiles. A cell value of 0 is empty; any
// other value is a power of two.
type Board struct {
	width  int
	height int
	cells  []int // row-major, index y*width+x

	moves  int
	pieces int
	score  int

	rng *rand.Rand
}

// New creates a board seeded with seed and places the two starting tiles.
func New(width, height int, seed int64) (*Board, error) {
	return NewWithRand(width, height, rand.New(rand.NewSource(seed)))
}

// NewWithRand creates a board that draws from rng and places the two
// starting tiles.
func NewWithRand(width, height int, rng *rand.Rand) (*Board, error) {
	b, err := newEmpty(width, height, rng)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		if err := b.AddPiece(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// FromCells builds a board from explicit rows without spawning any tiles.
// cells[y][x] is the tile at (x, y).
func FromCells(cells [][]int, seed int64) (*Board, error) {
	height := len(cells)
	width := 0
	if height > 0 {
		width = len(cells[0])
	}
	b, err := newEmpty(width, height, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	for y, row := range cells {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", y, len(row), width, ErrInvalidDimensions)
		}
		for x, v := range row {
			if err := b.SetPieceAt(x, y, v); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func newEmpty(width, height int, rng *rand.Rand) (*Board, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source: %w", ErrNullArgument)
	}
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%dx%d, need at least 2x2: %w", width, height, ErrInvalidDimensions)
	}
	return &Board{
		width:  width,
		height: height,
		cells:  make([]int, width*height),
		rng:    rng,
	}, nil
}

// Clone performs a deep copy of the board. The clone gets its own generator,
// seeded from one draw of the parent's, so sibling clones do not share
// future randomness.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{
		width:  b.width,
		height: b.height,
		cells:  make([]int, len(b.cells)),
		moves:  b.moves,
		pieces: b.pieces,
		score:  b.score,
		rng:    rand.New(rand.NewSource(b.rng.Int63())),
	}
	copy(out.cells, b.cells)
	return out
}

func (b *Board) Width() int          { return b.width }
func (b *Board) Height() int         { return b.height }
func (b *Board) MovesPerformed() int { return b.moves }
func (b *Board) PieceCount() int     { return b.pieces }
func (b *Board) Score() int          { return b.score }

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// At returns the tile at (x, y) without bounds checking beyond the slice's own.
func (b *Board) At(x, y int) int {
	return b.cells[y*b.width+x]
}

// PieceAt returns the tile at (x, y).
func (b *Board) PieceAt(x, y int) (int, error) {
	if !b.inBounds(x, y) {
		return 0, fmt.Errorf("piece at (%d,%d) on %dx%d: %w", x, y, b.width, b.height, ErrOutOfBounds)
	}
	return b.cells[y*b.width+x], nil
}

// SetPieceAt stores value at (x, y) and keeps the piece count in step.
func (b *Board) SetPieceAt(x, y, value int) error {
	if !b.inBounds(x, y) {
		return fmt.Errorf("set piece at (%d,%d) on %dx%d: %w", x, y, b.width, b.height, ErrOutOfBounds)
	}
	if value < 0 {
		return fmt.Errorf("set piece %d: %w", value, ErrInvalidValue)
	}
	i := y*b.width + x
	old := b.cells[i]
	switch {
	case old != 0 && value == 0:
		b.pieces--
	case old == 0 && value != 0:
		b.pieces++
	}
	b.cells[i] = value
	return nil
}

// Cells returns a row-major copy of the grid.
func (b *Board) Cells() []int {
	out := make([]int, len(b.cells))
	copy(out, b.cells)
	return out
}

// Rows returns a copy of the grid as rows, rows[y][x].
func (b *Board) Rows() [][]int {
	rows := make([][]int, b.height)
	for y := range rows {
		rows[y] = make([]int, b.width)
		copy(rows[y], b.cells[y*b.width:(y+1)*b.width])
	}
	return rows
}

func (b *Board) IsSpaceLeft() bool {
	for _, v := range b.cells {
		if v == 0 {
			return true
		}
	}
	return false
}

// EmptyCells lists empty coordinates in row-major order.
func (b *Board) EmptyCells() []Point {
	out := make([]Point, 0, len(b.cells)-b.pieces)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if b.cells[y*b.width+x] == 0 {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

func (b *Board) HighestTile() int {
	best := 0
	for _, v := range b.cells {
		if v > best {
			best = v
		}
	}
	return best
}

// HasWon reports whether any tile has reached WinningTile.
func (b *Board) HasWon() bool {
	for _, v := range b.cells {
		if v >= WinningTile {
			return true
		}
	}
	return false
}

// Equal compares dimensions, cells and counters. Generator state is ignored.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.width != o.width || b.height != o.height ||
		b.moves != o.moves || b.pieces != o.pieces || b.score != o.score {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// String renders the grid with '.' for empty cells, top row first.
func (b *Board) String() string {
	cellWidth := len(strconv.Itoa(b.HighestTile()))
	if cellWidth < 1 {
		cellWidth = 1
	}
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			s := "."
			if v := b.At(x, y); v != 0 {
				s = strconv.Itoa(v)
			}
			sb.WriteString(strings.Repeat(" ", cellWidth-len(s)))
			sb.WriteString(s)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
