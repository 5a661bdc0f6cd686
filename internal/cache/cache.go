// Package cache keeps recently fetched categories in memory.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/abrezinsky/jeopardy/internal/models"
)

// CategoryCache is an in-memory category store keyed by category id
type CategoryCache interface {
	Get(id int) (*models.RawCategory, bool)
	Add(cat *models.RawCategory)
	Delete(id int)
	Len() int
	Purge()
}

// ARC is a CategoryCache backed by an adaptive replacement cache
type ARC struct {
	cache *lru.ARCCache
}

// NewARC creates a cache holding at most size categories
func NewARC(size int) (*ARC, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
	}
	return &ARC{cache: c}, nil
}

var _ CategoryCache = (*ARC)(nil)

// Get returns a copy of the cached category
func (c *ARC) Get(id int) (*models.RawCategory, bool) {
	v, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	cat := *v.(*models.RawCategory)
	cat.Clues = append([]models.RawClue(nil), cat.Clues...)
	return &cat, true
}

// Add stores a copy of cat
func (c *ARC) Add(cat *models.RawCategory) {
	stored := *cat
	stored.Clues = append([]models.RawClue(nil), cat.Clues...)
	c.cache.Add(cat.ID, &stored)
}

func (c *ARC) Delete(id int) {
	c.cache.Remove(id)
}

func (c *ARC) Len() int {
	return c.cache.Len()
}

func (c *ARC) Purge() {
	c.cache.Purge()
}
