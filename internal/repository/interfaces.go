package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/jeopardy/internal/models"
)

// Stats counts stored rows
type Stats struct {
	Categories int `json:"categories"`
	Clues      int `json:"clues"`
}

// CategoryRepository defines clue bank storage operations
type CategoryRepository interface {
	GetCategory(ctx context.Context, id int) (*models.RawCategory, error)
	SaveCategory(ctx context.Context, cat models.RawCategory) error
	Stats(ctx context.Context) (*Stats, error)
	ClearCategories(ctx context.Context) (int64, error)
	DeleteCategoriesFetchedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Ensure Repository implements all interfaces
var _ CategoryRepository = (*Repository)(nil)
