package game

import "errors"

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrNoSelection  = errors.New("no opening piece selected")
	ErrNotOpening   = errors.New("opening already played")
	ErrGameOver     = errors.New("game is over")
	ErrInvalidUndo  = errors.New("invalid undo count")
	ErrNotYourPiece = errors.New("cell does not hold a white home-row piece")
)
