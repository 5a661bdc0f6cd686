package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/jeopardy/internal/config"
	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/models"
	"github.com/abrezinsky/jeopardy/internal/sampler"
	"github.com/abrezinsky/jeopardy/pkg/jservice"
)

// BoardOptions tunes how boards are built
type BoardOptions struct {
	PoolSize            int
	Concurrency         int
	ShortCategoryPolicy string
	Sampler             sampler.Sampler
}

// DefaultBoardOptions matches the stock configuration
func DefaultBoardOptions() BoardOptions {
	return BoardOptions{
		PoolSize:            models.DefaultCategoryPoolSize,
		Concurrency:         models.NumCategories,
		ShortCategoryPolicy: config.PolicyReplace,
	}
}

// BoardService builds boards from a remote trivia source
type BoardService struct {
	log    logger.Logger
	source jservice.Client
	opts   BoardOptions
	now    func() time.Time
}

// NewBoardService creates a new BoardService
func NewBoardService(log logger.Logger, source jservice.Client, opts BoardOptions) *BoardService {
	if opts.PoolSize <= 0 {
		opts.PoolSize = models.DefaultCategoryPoolSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = models.NumCategories
	}
	if opts.ShortCategoryPolicy == "" {
		opts.ShortCategoryPolicy = config.PolicyReplace
	}
	return &BoardService{log: log, source: source, opts: opts, now: time.Now}
}

// slot holds one column while the board is being assembled
type slot struct {
	id     int
	detail *jservice.CategoryDetail
	cat    *models.Category
}

// BuildBoard runs the discover, select, fetch and sample stages and returns a
// complete board, or a *BoardBuildError and no board.
func (s *BoardService) BuildBoard(ctx context.Context) (*models.Board, error) {
	start := s.now()

	ids, titles, err := s.discover(ctx)
	if err != nil {
		return nil, &BoardBuildError{Stage: StageDiscover, Cause: err}
	}

	slots, reserve, err := s.selectIDs(ids)
	if err != nil {
		return nil, &BoardBuildError{Stage: StageSelect, Cause: err}
	}

	if err := s.fetch(ctx, slots); err != nil {
		return nil, err
	}

	if err := s.sampleClues(ctx, slots, reserve); err != nil {
		return nil, err
	}

	board := s.assemble(slots, titles)
	s.log.Info("Board built",
		"board_id", board.ID,
		"categories", len(board.Categories),
		"elapsed", s.now().Sub(start).String())
	return board, nil
}

// discover lists the candidate pool and returns distinct ids in listing order
func (s *BoardService) discover(ctx context.Context) ([]int, map[int]string, error) {
	summaries, err := s.source.ListCategories(ctx, s.opts.PoolSize)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]int, 0, len(summaries))
	titles := make(map[int]string, len(summaries))
	for _, sum := range summaries {
		if _, dup := titles[sum.ID]; dup {
			continue
		}
		titles[sum.ID] = sum.Title.String()
		ids = append(ids, sum.ID)
	}

	s.log.Debug("Category pool discovered", "listed", len(summaries), "distinct", len(ids))
	return ids, titles, nil
}

// selectIDs samples the board's columns; the returned order is the column order.
// Unselected ids are shuffled into a reserve used to replace short categories.
func (s *BoardService) selectIDs(ids []int) ([]*slot, []int, error) {
	selected, err := sampler.SampleWith(s.opts.Sampler, ids, models.NumCategories)
	if err != nil {
		return nil, nil, err
	}

	slots := make([]*slot, len(selected))
	chosen := make(map[int]bool, len(selected))
	for i, id := range selected {
		slots[i] = &slot{id: id}
		chosen[id] = true
	}

	if s.opts.ShortCategoryPolicy != config.PolicyReplace {
		return slots, nil, nil
	}

	rest := make([]int, 0, len(ids)-len(selected))
	for _, id := range ids {
		if !chosen[id] {
			rest = append(rest, id)
		}
	}
	reserve, err := sampler.SampleWith(s.opts.Sampler, rest, len(rest))
	if err != nil {
		return nil, nil, err
	}
	return slots, reserve, nil
}

// fetch loads every slot's category concurrently. Results land in their own
// slot, so response arrival order cannot change column order.
func (s *BoardService) fetch(ctx context.Context, slots []*slot) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, sl := range slots {
		sl := sl
		g.Go(func() error {
			detail, err := s.source.GetCategory(gctx, sl.id)
			if err != nil {
				return &BoardBuildError{Stage: StageFetch, CategoryID: sl.id, Cause: err}
			}
			sl.detail = detail
			return nil
		})
	}

	return g.Wait()
}

// sampleClues picks the clues for each slot in column order, replacing short
// categories from the reserve when the policy allows it.
func (s *BoardService) sampleClues(ctx context.Context, slots []*slot, reserve []int) error {
	for i, sl := range slots {
		cat, err := pickClues(s.opts.Sampler, sl.detail)
		for err != nil {
			var insufficient *sampler.InsufficientItemsError
			if !errors.As(err, &insufficient) || len(reserve) == 0 {
				return &BoardBuildError{Stage: StageSample, CategoryID: sl.id, Cause: err}
			}

			s.log.Debug("Replacing short category",
				"column", i, "category_id", sl.id, "usable_clues", insufficient.Have, "replacement", reserve[0])

			sl.id, reserve = reserve[0], reserve[1:]
			detail, fetchErr := s.source.GetCategory(ctx, sl.id)
			if fetchErr != nil {
				return &BoardBuildError{Stage: StageFetch, CategoryID: sl.id, Cause: fetchErr}
			}
			sl.detail = detail
			cat, err = pickClues(s.opts.Sampler, sl.detail)
		}
		sl.cat = cat
	}
	return nil
}

// pickClues samples NumQuestionsPerCat usable clues from a fetched category
func pickClues(smp sampler.Sampler, detail *jservice.CategoryDetail) (*models.Category, error) {
	usable := make([]jservice.Clue, 0, len(detail.Clues))
	for _, c := range detail.Clues {
		if cleanText(c.Question.String()) == "" || cleanText(c.Answer.String()) == "" {
			continue
		}
		usable = append(usable, c)
	}

	chosen, err := sampler.SampleWith(smp, usable, models.NumQuestionsPerCat)
	if err != nil {
		return nil, fmt.Errorf("category %d has too few usable clues: %w", detail.ID, err)
	}

	cat := &models.Category{ID: detail.ID, Title: cleanText(detail.Title.String())}
	for _, c := range chosen {
		cat.Clues = append(cat.Clues, models.Clue{
			Question: cleanText(c.Question.String()),
			Answer:   cleanText(c.Answer.String()),
			Showing:  models.Hidden,
		})
	}
	return cat, nil
}

// assemble turns fully populated slots into a board
func (s *BoardService) assemble(slots []*slot, titles map[int]string) *models.Board {
	board := &models.Board{
		ID:         uuid.NewString(),
		CreatedAt:  s.now(),
		Categories: make([]models.Category, len(slots)),
	}
	for i, sl := range slots {
		cat := *sl.cat
		if cat.Title == "" {
			cat.Title = titles[cat.ID]
		}
		board.Categories[i] = cat
	}
	return board
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// cleanText strips markup and escape debris that some source entries carry
func cleanText(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\'`, "'")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.TrimSpace(s)
}
