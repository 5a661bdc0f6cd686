package handlers

import "github.com/abrezinsky/jeopardy/internal/models"

// RevealRequest asks for one step of a cell's reveal sequence.
// BoardID is optional; when present it must name the current board.
type RevealRequest struct {
	BoardID  string `json:"board_id"`
	Category *int   `json:"category"`
	Clue     *int   `json:"clue"`
}

// Coord validates the request and returns the addressed cell
func (req RevealRequest) Coord() (models.Coord, error) {
	if req.Category == nil || req.Clue == nil {
		return models.Coord{}, Validation("category and clue are required")
	}
	return models.Coord{Category: *req.Category, Clue: *req.Clue}, nil
}
