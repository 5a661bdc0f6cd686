package services

import (
	"context"

	"github.com/abrezinsky/jeopardy/internal/models"
)

// GameServicer defines the interface for game operations
type GameServicer interface {
	NewGame(ctx context.Context) (*models.Board, error)
	StartNewGame()
	Board() (*models.Board, error)
	Status() models.BoardStatus
	Reveal(ctx context.Context, boardID string, coord models.Coord) (*RevealResult, error)
	SetBroadcaster(b Broadcaster)
}

// CacheServicer defines the interface for clue bank maintenance
type CacheServicer interface {
	Stats(ctx context.Context) (*CacheStats, error)
	Clear(ctx context.Context) (int64, error)
	Prune(ctx context.Context) (int64, error)
}

// Ensure concrete types implement interfaces
var (
	_ BoardBuilder  = (*BoardService)(nil)
	_ GameServicer  = (*GameService)(nil)
	_ CacheServicer = (*CacheService)(nil)
)
