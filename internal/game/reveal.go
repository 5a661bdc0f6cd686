// Package game holds the per-cell reveal rules of a board.
package game

import (
	"github.com/abrezinsky/jeopardy/internal/errors"
	"github.com/abrezinsky/jeopardy/internal/models"
)

// ErrInvalidCoord is returned when a coordinate falls outside the board
var ErrInvalidCoord = errors.Validation("coordinate is outside the board")

// Reveal advances a clue one step: Hidden shows the question, Question shows
// the answer, Answer stays put. The returned text is what the cell should now
// display; ok is false when nothing changes.
func Reveal(c models.Clue) (next models.Clue, text string, ok bool) {
	next = c
	switch c.Showing {
	case models.Hidden:
		next.Showing = models.Question
		return next, c.Question, true
	case models.Question:
		next.Showing = models.Answer
		return next, c.Answer, true
	default:
		return next, "", false
	}
}

// DisplayText is what a cell shows for a clue in its current state
func DisplayText(c models.Clue) string {
	switch c.Showing {
	case models.Question:
		return c.Question
	case models.Answer:
		return c.Answer
	default:
		return Placeholder
	}
}

// Placeholder is shown in cells that have not been clicked yet
const Placeholder = "?"

// Locate returns the clue at coord, or ErrInvalidCoord
func Locate(b *models.Board, coord models.Coord) (*models.Clue, error) {
	if b == nil || coord.Category < 0 || coord.Category >= len(b.Categories) {
		return nil, ErrInvalidCoord
	}
	clues := b.Categories[coord.Category].Clues
	if coord.Clue < 0 || coord.Clue >= len(clues) {
		return nil, ErrInvalidCoord
	}
	return &clues[coord.Clue], nil
}
