package game

import (
	"fmt"
	"strings"
)

// Direction is a move direction. Coordinates follow screen conventions:
// (0,0) is top-left and y grows downward.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists every valid direction in declaration order.
var Directions = [4]Direction{North, South, East, West}

var directionNames = [4]string{"north", "south", "east", "west"}

// Delta returns the displacement vector for one step in d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) Valid() bool {
	return d >= North && d <= West
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the direction names plus the usual single-letter and
// arrow aliases (n/s/e/w, up/down/right/left).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up", "u":
		return North, nil
	case "south", "s", "down", "d":
		return South, nil
	case "east", "e", "right", "r":
		return East, nil
	case "west", "w", "left", "l":
		return West, nil
	}
	return 0, fmt.Errorf("parse direction %q: %w", s, ErrNullArgument)
}
