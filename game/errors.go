package game

import "errors"

var (
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrOutOfBounds       = errors.New("coordinates out of bounds")
	ErrInvalidValue      = errors.New("invalid tile value")
	ErrBoardFull         = errors.New("no space left on board")
	ErrNullArgument      = errors.New("missing argument")
)
