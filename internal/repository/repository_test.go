package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abrezinsky/jeopardy/internal/models"
	"github.com/abrezinsky/jeopardy/internal/repository"
	"github.com/abrezinsky/jeopardy/internal/testutil"
)

func sampleCategory(id, clues int) models.RawCategory {
	cat := models.RawCategory{ID: id, Title: "Rivers", FetchedAt: time.Unix(1700000000, 0)}
	for i := 0; i < clues; i++ {
		cat.Clues = append(cat.Clues, models.RawClue{
			Question: "Question " + string(rune('A'+i)),
			Answer:   "Answer " + string(rune('A'+i)),
		})
	}
	return cat
}

func TestGetCategory_NotFound(t *testing.T) {
	repo := testutil.NewTestRepository(t)

	_, err := repo.GetCategory(context.Background(), 404)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveCategory_RoundTripPreservesClueOrder(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	if err := repo.SaveCategory(ctx, sampleCategory(12, 6)); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}

	got, err := repo.GetCategory(ctx, 12)
	if err != nil {
		t.Fatalf("GetCategory failed: %v", err)
	}
	if got.Title != "Rivers" {
		t.Errorf("expected title 'Rivers', got %q", got.Title)
	}
	if len(got.Clues) != 6 {
		t.Fatalf("expected 6 clues, got %d", len(got.Clues))
	}
	for i, clue := range got.Clues {
		want := "Question " + string(rune('A'+i))
		if clue.Question != want {
			t.Errorf("clue %d: expected %q, got %q", i, want, clue.Question)
		}
	}
	if !got.FetchedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected fetched_at %v", got.FetchedAt)
	}
}

func TestSaveCategory_ReplacesExisting(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	if err := repo.SaveCategory(ctx, sampleCategory(3, 8)); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	updated := sampleCategory(3, 2)
	updated.Title = "Lakes"
	if err := repo.SaveCategory(ctx, updated); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := repo.GetCategory(ctx, 3)
	if err != nil {
		t.Fatalf("GetCategory failed: %v", err)
	}
	if got.Title != "Lakes" || len(got.Clues) != 2 {
		t.Errorf("expected replaced category with 2 clues, got %q with %d", got.Title, len(got.Clues))
	}
}

func TestSaveCategory_ZeroFetchedAtUsesNow(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	cat := sampleCategory(5, 1)
	cat.FetchedAt = time.Time{}
	before := time.Now().Add(-time.Second)
	if err := repo.SaveCategory(ctx, cat); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}

	got, _ := repo.GetCategory(ctx, 5)
	if got.FetchedAt.Before(before) {
		t.Errorf("expected fetched_at near now, got %v", got.FetchedAt)
	}
}

func TestStatsAndClear(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	repo.SaveCategory(ctx, sampleCategory(1, 5))
	repo.SaveCategory(ctx, sampleCategory(2, 7))

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Categories != 2 || stats.Clues != 12 {
		t.Errorf("expected 2 categories / 12 clues, got %+v", stats)
	}

	removed, err := repo.ClearCategories(ctx)
	if err != nil {
		t.Fatalf("ClearCategories failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	stats, _ = repo.Stats(ctx)
	if stats.Categories != 0 || stats.Clues != 0 {
		t.Errorf("expected empty store after clear (clues cascade), got %+v", stats)
	}
}

func TestDeleteCategoriesFetchedBefore(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	old := sampleCategory(1, 3)
	old.FetchedAt = time.Now().Add(-48 * time.Hour)
	fresh := sampleCategory(2, 3)
	fresh.FetchedAt = time.Now()
	repo.SaveCategory(ctx, old)
	repo.SaveCategory(ctx, fresh)

	removed, err := repo.DeleteCategoriesFetchedBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteCategoriesFetchedBefore failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 stale category removed, got %d", removed)
	}
	if _, err := repo.GetCategory(ctx, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected stale category gone, got %v", err)
	}
	if _, err := repo.GetCategory(ctx, 2); err != nil {
		t.Errorf("expected fresh category kept, got %v", err)
	}
}

func TestPing(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
