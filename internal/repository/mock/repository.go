package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/abrezinsky/jeopardy/internal/models"
	"github.com/abrezinsky/jeopardy/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.GetCategoryError = errors.New("database error")
//	src := services.NewCachingSource(log, client, mockRepo, memCache, ttl)
//	// reads now fall through to the remote client
type Repository struct {
	repository.CategoryRepository

	GetCategoryError     error
	SaveCategoryError    error
	StatsError           error
	ClearCategoriesError error
	DeleteStaleError     error

	saves atomic.Int64
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.CategoryRepository) *Repository {
	return &Repository{
		CategoryRepository: real,
	}
}

func (m *Repository) GetCategory(ctx context.Context, id int) (*models.RawCategory, error) {
	if m.GetCategoryError != nil {
		return nil, m.GetCategoryError
	}
	return m.CategoryRepository.GetCategory(ctx, id)
}

func (m *Repository) SaveCategory(ctx context.Context, cat models.RawCategory) error {
	m.saves.Add(1)
	if m.SaveCategoryError != nil {
		return m.SaveCategoryError
	}
	return m.CategoryRepository.SaveCategory(ctx, cat)
}

func (m *Repository) Stats(ctx context.Context) (*repository.Stats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	return m.CategoryRepository.Stats(ctx)
}

func (m *Repository) ClearCategories(ctx context.Context) (int64, error) {
	if m.ClearCategoriesError != nil {
		return 0, m.ClearCategoriesError
	}
	return m.CategoryRepository.ClearCategories(ctx)
}

func (m *Repository) DeleteCategoriesFetchedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteStaleError != nil {
		return 0, m.DeleteStaleError
	}
	return m.CategoryRepository.DeleteCategoriesFetchedBefore(ctx, cutoff)
}

// SaveCalls returns how many times SaveCategory was attempted
func (m *Repository) SaveCalls() int {
	return int(m.saves.Load())
}

var _ repository.CategoryRepository = (*Repository)(nil)
