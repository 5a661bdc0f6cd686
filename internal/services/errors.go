package services

import (
	"fmt"

	"github.com/abrezinsky/jeopardy/internal/errors"
)

// Service errors
var (
	ErrNoBoard    = errors.NotFound("no board has been built yet")
	ErrStaleBoard = errors.Conflict("board has been replaced by a newer game")
)

// Pipeline stages of a board build
const (
	StageDiscover = "discover"
	StageSelect   = "select"
	StageFetch    = "fetch"
	StageSample   = "sample"
)

// BoardBuildError is returned when any stage of a board build fails.
// No partial board is ever returned alongside it.
type BoardBuildError struct {
	Stage      string
	CategoryID int // zero when the failure is not tied to one category
	Cause      error
}

func (e *BoardBuildError) Error() string {
	if e.CategoryID != 0 {
		return fmt.Sprintf("build board: %s category %d: %v", e.Stage, e.CategoryID, e.Cause)
	}
	return fmt.Sprintf("build board: %s: %v", e.Stage, e.Cause)
}

func (e *BoardBuildError) Unwrap() error {
	return e.Cause
}
