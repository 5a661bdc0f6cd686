package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Board dimensions. These are fixed for every game.
const (
	NumCategories      = 6
	NumQuestionsPerCat = 5
)

// DefaultCategoryPoolSize is how many category ids are requested from the
// remote source before sampling the board's columns.
const DefaultCategoryPoolSize = 100

// RevealState is the display progress of a single clue
type RevealState int

const (
	Hidden RevealState = iota
	Question
	Answer
)

var revealStateNames = map[RevealState]string{
	Hidden:   "hidden",
	Question: "question",
	Answer:   "answer",
}

func (s RevealState) String() string {
	if name, ok := revealStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RevealState(%d)", int(s))
}

// MarshalJSON encodes the state by name
func (s RevealState) MarshalJSON() ([]byte, error) {
	name, ok := revealStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown reveal state %d", int(s))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a state name
func (s *RevealState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for state, n := range revealStateNames {
		if n == name {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown reveal state %q", name)
}

// Clue is a single question/answer pair and its reveal state
type Clue struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Showing  RevealState `json:"showing"`
}

// Category is a titled column of clues
type Category struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

// Board is one game's full set of categories, in column order
type Board struct {
	ID         string     `json:"id"`
	Generation uint64     `json:"generation"`
	CreatedAt  time.Time  `json:"created_at"`
	Categories []Category `json:"categories"`
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := *b
	out.Categories = make([]Category, len(b.Categories))
	for i, cat := range b.Categories {
		out.Categories[i] = cat
		out.Categories[i].Clues = append([]Clue(nil), cat.Clues...)
	}
	return &out
}

// Coord addresses one cell of the board
type Coord struct {
	Category int `json:"category"`
	Clue     int `json:"clue"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Category, c.Clue)
}

// BoardStatus describes the build state of the current game
type BoardStatus struct {
	Loading    bool   `json:"loading"`
	Generation uint64 `json:"generation"`
	BoardID    string `json:"board_id,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// RawClue is a clue as stored in the clue bank, before it is placed on a board
type RawClue struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RawCategory is a category as stored in the clue bank
type RawCategory struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Clues     []RawClue `json:"clues"`
	FetchedAt time.Time `json:"fetched_at"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
