package game

import (
	"errors"
	"math/rand"
	"testing"
)

func mustBoard(t *testing.T, rows [][]int) *Board {
	t.Helper()
	b, err := FromCells(rows, 1)
	if err != nil {
		t.Fatalf("FromCells: %v", err)
	}
	return b
}

func countNonZero(b *Board) int {
	n := 0
	for _, v := range b.cells {
		if v != 0 {
			n++
		}
	}
	return n
}

func isPowerOfTwo(v int) bool {
	return v >= 2 && v&(v-1) == 0
}

func TestNew_RejectsSmallBoards(t *testing.T) {
	for _, dims := range [][2]int{{1, 4}, {4, 1}, {0, 0}, {-2, 3}} {
		if _, err := New(dims[0], dims[1], 1); !errors.Is(err, ErrInvalidDimensions) {
			t.Fatalf("New(%d,%d) err=%v want ErrInvalidDimensions", dims[0], dims[1], err)
		}
	}
}

func TestNewWithRand_NilRand(t *testing.T) {
	if _, err := NewWithRand(4, 4, nil); !errors.Is(err, ErrNullArgument) {
		t.Fatalf("err=%v want ErrNullArgument", err)
	}
}

func TestNew_PlacesTwoStartingTiles(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		b, err := New(4, 4, seed)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if b.PieceCount() != 2 || countNonZero(b) != 2 {
			t.Fatalf("seed %d: pieces=%d nonzero=%d want 2\n%s", seed, b.PieceCount(), countNonZero(b), b)
		}
		for _, v := range b.cells {
			if v != 0 && v != 2 && v != 4 {
				t.Fatalf("seed %d: starting tile %d", seed, v)
			}
		}
		if b.Score() != 0 || b.MovesPerformed() != 0 {
			t.Fatalf("seed %d: score=%d moves=%d want 0", seed, b.Score(), b.MovesPerformed())
		}
	}
}

func TestNew_SameSeedSameBoard(t *testing.T) {
	a, _ := New(5, 3, 42)
	b, _ := New(5, 3, 42)
	if !a.Equal(b) {
		t.Fatalf("boards differ:\n%s\n%s", a, b)
	}
}

func TestFromCells_Validation(t *testing.T) {
	if _, err := FromCells([][]int{{2, 2}, {2}}, 1); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("ragged rows err=%v", err)
	}
	if _, err := FromCells([][]int{{2, -2}, {0, 0}}, 1); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("negative value err=%v", err)
	}
	if _, err := FromCells([][]int{{2, 2}}, 1); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("single row err=%v", err)
	}
}

func TestPieceAt_OutOfBounds(t *testing.T) {
	b := mustBoard(t, [][]int{{2, 0, 0}, {0, 0, 4}})
	for _, p := range []Point{{-1, 0}, {3, 0}, {0, 2}, {0, -1}} {
		if _, err := b.PieceAt(p.X, p.Y); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("PieceAt(%d,%d) err=%v", p.X, p.Y, err)
		}
		if err := b.SetPieceAt(p.X, p.Y, 2); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("SetPieceAt(%d,%d) err=%v", p.X, p.Y, err)
		}
	}
	v, err := b.PieceAt(2, 1)
	if err != nil || v != 4 {
		t.Fatalf("PieceAt(2,1)=%d,%v want 4", v, err)
	}
}

func TestSetPieceAt_TracksPieceCount(t *testing.T) {
	b := mustBoard(t, [][]int{{0, 0}, {0, 0}})

	steps := []struct {
		x, y, v int
		want    int
	}{
		{0, 0, 2, 1},
		{0, 0, 4, 1},
		{1, 1, 8, 2},
		{0, 0, 0, 1},
		{0, 0, 0, 1},
		{1, 1, 0, 0},
	}
	for i, s := range steps {
		if err := b.SetPieceAt(s.x, s.y, s.v); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if b.PieceCount() != s.want || countNonZero(b) != s.want {
			t.Fatalf("step %d: pieces=%d nonzero=%d want=%d", i, b.PieceCount(), countNonZero(b), s.want)
		}
	}

	if err := b.SetPieceAt(0, 0, -4); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("negative err=%v", err)
	}
}

func TestClone_EqualAndIndependent(t *testing.T) {
	b, _ := New(4, 4, 7)
	b.PerformMove(West)
	c := b.Clone()
	if !c.Equal(b) {
		t.Fatalf("clone differs:\n%s\n%s", b, c)
	}

	c.SetPieceAt(3, 3, 1024)
	c.score += 100
	if b.At(3, 3) == 1024 || b.Score() == c.Score() {
		t.Fatalf("mutating clone leaked into original:\n%s", b)
	}
	if &b.cells[0] == &c.cells[0] {
		t.Fatal("clone shares grid storage")
	}
}

func TestClone_SiblingsGetDistinctStreams(t *testing.T) {
	b, _ := New(4, 4, 99)
	c1 := b.Clone()
	c2 := b.Clone()
	if c1.rng.Int63() == c2.rng.Int63() {
		t.Fatal("sibling clones share their random stream")
	}
}

func TestClone_SeedsFromOneParentDraw(t *testing.T) {
	b, _ := New(4, 4, 42)
	twin, _ := New(4, 4, 42)

	c := b.Clone()
	want := rand.New(rand.NewSource(twin.rng.Int63()))
	for i := 0; i < 5; i++ {
		if got, w := c.rng.Int63(), want.Int63(); got != w {
			t.Fatalf("draw %d: clone=%d want=%d", i, got, w)
		}
	}
	// The parent advanced by exactly one draw.
	if got, w := b.rng.Int63(), twin.rng.Int63(); got != w {
		t.Fatalf("parent stream moved: %d vs %d", got, w)
	}
}

func TestClone_Deterministic(t *testing.T) {
	a, _ := New(4, 4, 3)
	b, _ := New(4, 4, 3)
	ca, cb := a.Clone(), b.Clone()
	for i := 0; i < 5; i++ {
		if err := ca.AddPiece(); err != nil {
			t.Fatal(err)
		}
		if err := cb.AddPiece(); err != nil {
			t.Fatal(err)
		}
	}
	if !ca.Equal(cb) {
		t.Fatalf("clones of equally seeded boards diverged:\n%s\n%s", ca, cb)
	}
}

func TestAddPiece_FillsOnlyEmptyCell(t *testing.T) {
	b := mustBoard(t, [][]int{{2, 4, 8}, {16, 0, 32}, {64, 128, 256}})
	before := b.Cells()
	if err := b.AddPiece(); err != nil {
		t.Fatalf("AddPiece: %v", err)
	}
	after := b.Cells()
	for i := range before {
		if before[i] != 0 && before[i] != after[i] {
			t.Fatalf("cell %d overwritten: %d -> %d", i, before[i], after[i])
		}
	}
	if v := b.At(1, 1); v != 2 && v != 4 {
		t.Fatalf("spawned %d want 2 or 4", v)
	}
	if b.PieceCount() != 9 {
		t.Fatalf("pieces=%d want 9", b.PieceCount())
	}

	if err := b.AddPiece(); !errors.Is(err, ErrBoardFull) {
		t.Fatalf("full board err=%v want ErrBoardFull", err)
	}
}

func TestAddPiece_Distribution(t *testing.T) {
	b, _ := New(4, 4, 5)
	fours := 0
	const trials = 4000
	for i := 0; i < trials; i++ {
		c := mustBoard(t, [][]int{{0, 0}, {0, 0}})
		c.rng = b.Clone().rng
		if err := c.AddPiece(); err != nil {
			t.Fatal(err)
		}
		if c.HighestTile() == 4 {
			fours++
		}
	}
	ratio := float64(fours) / trials
	if ratio < 0.07 || ratio > 0.13 {
		t.Fatalf("4-tile ratio %.3f, want about 0.1", ratio)
	}
}

func TestHasWon(t *testing.T) {
	if mustBoard(t, [][]int{{1024, 1024}, {0, 0}}).HasWon() {
		t.Fatal("1024 board reported a win")
	}
	if !mustBoard(t, [][]int{{2048, 0}, {0, 0}}).HasWon() {
		t.Fatal("2048 board did not report a win")
	}
	if !mustBoard(t, [][]int{{0, 0}, {0, 4096}}).HasWon() {
		t.Fatal("4096 board did not report a win")
	}
}

func TestEmptyCellsAndHighestTile(t *testing.T) {
	b := mustBoard(t, [][]int{{2, 0}, {0, 16}})
	empty := b.EmptyCells()
	want := []Point{{1, 0}, {0, 1}}
	if len(empty) != len(want) || empty[0] != want[0] || empty[1] != want[1] {
		t.Fatalf("EmptyCells=%v want %v", empty, want)
	}
	if b.HighestTile() != 16 {
		t.Fatalf("HighestTile=%d want 16", b.HighestTile())
	}
}

func TestString(t *testing.T) {
	b := mustBoard(t, [][]int{{2, 0}, {128, 4}})
	want := "  2   .\n128   4\n"
	if got := b.String(); got != want {
		t.Fatalf("String()=\n%q want\n%q", got, want)
	}
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{"north": North, "UP": North, "s": South, " right ": East, "west": West, "l": West}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrNullArgument) {
		t.Fatalf("bad direction err=%v", err)
	}
	if Direction(9).Valid() || Direction(9).String() != "Direction(9)" {
		t.Fatal("out-of-range direction treated as valid")
	}
}
