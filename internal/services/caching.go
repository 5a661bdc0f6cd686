package services

import (
	"context"
	"errors"
	"time"

	"github.com/abrezinsky/jeopardy/internal/cache"
	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/models"
	"github.com/abrezinsky/jeopardy/internal/repository"
	"github.com/abrezinsky/jeopardy/pkg/jservice"
)

// CachingSource is a jservice.Client that answers GetCategory from memory or
// the clue bank before asking the remote source. Cache faults never fail a
// lookup; they only cost a remote round trip.
type CachingSource struct {
	log    logger.Logger
	remote jservice.Client
	repo   repository.CategoryRepository
	mem    cache.CategoryCache
	ttl    time.Duration
	now    func() time.Time
}

// NewCachingSource wraps remote. repo and mem may be nil; ttl <= 0 never expires entries.
func NewCachingSource(log logger.Logger, remote jservice.Client, repo repository.CategoryRepository, mem cache.CategoryCache, ttl time.Duration) *CachingSource {
	return &CachingSource{
		log:    log,
		remote: remote,
		repo:   repo,
		mem:    mem,
		ttl:    ttl,
		now:    time.Now,
	}
}

// BaseURL returns the remote base URL
func (c *CachingSource) BaseURL() string {
	return c.remote.BaseURL()
}

// ListCategories always asks the remote source
func (c *CachingSource) ListCategories(ctx context.Context, count int) ([]jservice.CategorySummary, error) {
	return c.remote.ListCategories(ctx, count)
}

// GetCategory returns a category from memory, the clue bank, or the remote source
func (c *CachingSource) GetCategory(ctx context.Context, id int) (*jservice.CategoryDetail, error) {
	if c.mem != nil {
		if cat, ok := c.mem.Get(id); ok {
			if c.fresh(cat) {
				c.log.Debug("Category cache hit", "category_id", id, "tier", "memory")
				return toDetail(cat), nil
			}
			c.mem.Delete(id)
		}
	}

	if c.repo != nil {
		cat, err := c.repo.GetCategory(ctx, id)
		switch {
		case err == nil && c.fresh(cat):
			c.log.Debug("Category cache hit", "category_id", id, "tier", "store")
			if c.mem != nil {
				c.mem.Add(cat)
			}
			return toDetail(cat), nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			c.log.Warn("Clue bank read failed, falling back to remote", "category_id", id, "error", err)
		}
	}

	detail, err := c.remote.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	cat := fromDetail(detail, c.now())
	if c.mem != nil {
		c.mem.Add(cat)
	}
	if c.repo != nil {
		if err := c.repo.SaveCategory(ctx, *cat); err != nil {
			c.log.Warn("Clue bank write failed", "category_id", id, "error", err)
		}
	}
	return detail, nil
}

func (c *CachingSource) fresh(cat *models.RawCategory) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(cat.FetchedAt) < c.ttl
}

func toDetail(cat *models.RawCategory) *jservice.CategoryDetail {
	detail := &jservice.CategoryDetail{
		ID:         cat.ID,
		Title:      jservice.FlexString(cat.Title),
		CluesCount: len(cat.Clues),
		Clues:      make([]jservice.Clue, len(cat.Clues)),
	}
	for i, clue := range cat.Clues {
		detail.Clues[i] = jservice.Clue{
			Question:   jservice.FlexString(clue.Question),
			Answer:     jservice.FlexString(clue.Answer),
			CategoryID: cat.ID,
		}
	}
	return detail
}

func fromDetail(detail *jservice.CategoryDetail, fetchedAt time.Time) *models.RawCategory {
	cat := &models.RawCategory{
		ID:        detail.ID,
		Title:     detail.Title.String(),
		Clues:     make([]models.RawClue, len(detail.Clues)),
		FetchedAt: fetchedAt,
	}
	for i, clue := range detail.Clues {
		cat.Clues[i] = models.RawClue{Question: clue.Question.String(), Answer: clue.Answer.String()}
	}
	return cat
}

var _ jservice.Client = (*CachingSource)(nil)

// CacheStats describes both cache tiers
type CacheStats struct {
	MemoryEntries    int `json:"memory_entries"`
	StoredCategories int `json:"stored_categories"`
	StoredClues      int `json:"stored_clues"`
}

// CacheService exposes clue bank maintenance
type CacheService struct {
	log  logger.Logger
	repo repository.CategoryRepository
	mem  cache.CategoryCache
	ttl  time.Duration
	now  func() time.Time
}

// NewCacheService creates a new CacheService
func NewCacheService(log logger.Logger, repo repository.CategoryRepository, mem cache.CategoryCache, ttl time.Duration) *CacheService {
	return &CacheService{log: log, repo: repo, mem: mem, ttl: ttl, now: time.Now}
}

// Stats reports the size of both cache tiers
func (s *CacheService) Stats(ctx context.Context) (*CacheStats, error) {
	stored, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &CacheStats{
		MemoryEntries:    s.mem.Len(),
		StoredCategories: stored.Categories,
		StoredClues:      stored.Clues,
	}, nil
}

// Clear empties both cache tiers and returns how many stored categories were removed
func (s *CacheService) Clear(ctx context.Context) (int64, error) {
	s.mem.Purge()
	removed, err := s.repo.ClearCategories(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("Clue bank cleared", "categories_removed", removed)
	return removed, nil
}

// Prune removes stored categories older than the TTL
func (s *CacheService) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	removed, err := s.repo.DeleteCategoriesFetchedBefore(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("Pruned stale categories", "removed", removed)
	}
	return removed, nil
}
