// Package sampler selects distinct items from a collection without replacement.
package sampler

import (
	"fmt"

	"github.com/valyala/fastrand"
)

// InsufficientItemsError is returned when more items are requested than exist
type InsufficientItemsError struct {
	Have int
	Want int
}

func (e *InsufficientItemsError) Error() string {
	return fmt.Sprintf("cannot sample %d items from %d", e.Want, e.Have)
}

// Sampler draws random subsets. The zero value uses fastrand.
type Sampler struct {
	// Uint32n returns a value in [0, n). Nil means fastrand.Uint32n.
	Uint32n func(n uint32) uint32
}

var defaultSampler Sampler

// Sample returns k items chosen uniformly from items, each source position at
// most once.
func Sample[T any](items []T, k int) ([]T, error) {
	return SampleWith(defaultSampler, items, k)
}

// SampleWith is Sample with an explicit random source.
func SampleWith[T any](s Sampler, items []T, k int) ([]T, error) {
	if k < 0 || k > len(items) {
		return nil, &InsufficientItemsError{Have: len(items), Want: k}
	}

	rnd := s.Uint32n
	if rnd == nil {
		rnd = fastrand.Uint32n
	}

	// Partial Fisher-Yates over positions; items itself is never reordered.
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	out := make([]T, k)
	for i := 0; i < k; i++ {
		j := i + int(rnd(uint32(len(idx)-i)))
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = items[idx[i]]
	}
	return out, nil
}

// Shuffle returns every item of items in random order.
func Shuffle[T any](items []T) []T {
	out, _ := Sample(items, len(items))
	return out
}
