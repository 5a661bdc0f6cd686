package services

import (
	"context"
	"sync"
	"time"

	"github.com/abrezinsky/jeopardy/internal/game"
	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/models"
)

// Broadcast message types
const (
	MsgBoardStatus  = "board_status"
	MsgBoardLoading = "board_loading"
	MsgBoardReady   = "board_ready"
	MsgBoardError   = "board_error"
	MsgClueRevealed = "clue_revealed"
)

// Broadcaster pushes game events to connected viewers
type Broadcaster interface {
	BroadcastMessage(msgType string, payload interface{})
}

// BoardBuilder produces complete boards
type BoardBuilder interface {
	BuildBoard(ctx context.Context) (*models.Board, error)
}

// RevealResult is the outcome of one click on a cell
type RevealResult struct {
	BoardID string             `json:"board_id"`
	Coord   models.Coord       `json:"coord"`
	Showing models.RevealState `json:"showing"`
	Text    string             `json:"text,omitempty"`
	Changed bool               `json:"changed"`
}

// BoardErrorPayload accompanies a board_error broadcast
type BoardErrorPayload struct {
	Status models.BoardStatus `json:"status"`
	Error  string             `json:"error"`
}

// GameService owns the current board. Builds run outside the lock; a finished
// build is committed only if no newer build has started since.
type GameService struct {
	log          logger.Logger
	builder      BoardBuilder
	buildTimeout time.Duration

	mu          sync.Mutex
	board       *models.Board
	generation  uint64
	loading     bool
	lastErr     string
	broadcaster Broadcaster

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewGameService creates a new GameService. buildTimeout <= 0 means no deadline.
func NewGameService(log logger.Logger, builder BoardBuilder, buildTimeout time.Duration) *GameService {
	ctx, cancel := context.WithCancel(context.Background())
	return &GameService{
		log:          log,
		builder:      builder,
		buildTimeout: buildTimeout,
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// SetBroadcaster sets the event sink (websocket hub)
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// broadcastLocked must be called with s.mu held so events leave in commit order
func (s *GameService) broadcastLocked(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(msgType, payload)
	}
}

func (s *GameService) statusLocked() models.BoardStatus {
	st := models.BoardStatus{
		Loading:    s.loading,
		Generation: s.generation,
		LastError:  s.lastErr,
	}
	if s.board != nil {
		st.BoardID = s.board.ID
	}
	return st
}

// NewGame builds a board and makes it current. It returns ErrStaleBoard when a
// newer game was requested while this one was building; the previous board is
// left untouched when the build fails.
func (s *GameService) NewGame(ctx context.Context) (*models.Board, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.broadcastLocked(MsgBoardLoading, s.statusLocked())
	s.mu.Unlock()

	if s.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.buildTimeout)
		defer cancel()
	}

	board, err := s.builder.BuildBoard(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	latest := gen == s.generation
	if latest {
		s.loading = false
	}

	if err != nil {
		s.log.Error("Board build failed", "generation", gen, "error", err)
		if latest {
			s.lastErr = err.Error()
			s.broadcastLocked(MsgBoardError, BoardErrorPayload{Status: s.statusLocked(), Error: err.Error()})
		}
		return nil, err
	}

	if !latest {
		s.log.Info("Discarding stale board", "generation", gen, "latest", s.generation)
		return nil, ErrStaleBoard
	}

	board.Generation = gen
	s.board = board
	s.lastErr = ""
	snapshot := board.Clone()
	s.broadcastLocked(MsgBoardReady, snapshot)
	s.log.Info("New game ready", "board_id", board.ID, "generation", gen)
	return snapshot, nil
}

// StartNewGame runs NewGame in the background
func (s *GameService) StartNewGame() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Errors are already logged, recorded in Status and broadcast.
		_, _ = s.NewGame(s.baseCtx)
	}()
}

// Board returns a snapshot of the current board
func (s *GameService) Board() (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return nil, ErrNoBoard
	}
	return s.board.Clone(), nil
}

// Status reports the build state
func (s *GameService) Status() models.BoardStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Reveal advances the clue at coord by one step. boardID, when set, must name
// the current board so clicks on a replaced grid are rejected.
func (s *GameService) Reveal(ctx context.Context, boardID string, coord models.Coord) (*RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board == nil {
		return nil, ErrNoBoard
	}
	if boardID != "" && boardID != s.board.ID {
		return nil, ErrStaleBoard
	}

	clue, err := game.Locate(s.board, coord)
	if err != nil {
		return nil, err
	}

	next, text, changed := game.Reveal(*clue)
	result := &RevealResult{
		BoardID: s.board.ID,
		Coord:   coord,
		Showing: next.Showing,
		Text:    text,
		Changed: changed,
	}
	if !changed {
		return result, nil
	}

	*clue = next
	s.broadcastLocked(MsgClueRevealed, result)
	s.log.Debug("Clue revealed", "board_id", s.board.ID, "coord", coord.String(), "showing", next.Showing.String())
	return result, nil
}

// Close cancels background builds and waits for them to finish
func (s *GameService) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until background builds finish
func (s *GameService) Wait() {
	s.wg.Wait()
}
