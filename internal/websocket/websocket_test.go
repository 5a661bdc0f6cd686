package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/models"
	"github.com/abrezinsky/jeopardy/internal/services"
	"github.com/abrezinsky/jeopardy/pkg/jservice"
)

// mockGameService implements services.GameServicer for testing
type mockGameService struct {
	mu        sync.Mutex
	board     *models.Board
	status    models.BoardStatus
	reveals   []models.Coord
	revealErr error
	newGames  int
}

func (m *mockGameService) NewGame(ctx context.Context) (*models.Board, error) {
	return nil, nil
}

func (m *mockGameService) StartNewGame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newGames++
}

func (m *mockGameService) Board() (*models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.board == nil {
		return nil, services.ErrNoBoard
	}
	return m.board.Clone(), nil
}

func (m *mockGameService) Status() models.BoardStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockGameService) Reveal(ctx context.Context, boardID string, coord models.Coord) (*services.RevealResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reveals = append(m.reveals, coord)
	if m.revealErr != nil {
		return nil, m.revealErr
	}
	return &services.RevealResult{BoardID: boardID, Coord: coord, Showing: models.Question, Changed: true}, nil
}

func (m *mockGameService) SetBroadcaster(b services.Broadcaster) {}

func (m *mockGameService) revealCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reveals)
}

func (m *mockGameService) newGameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newGames
}

func startHub(t *testing.T, game services.GameServicer) (*Hub, *httptest.Server) {
	t.Helper()
	hub := New(logger.NewNop(), game)
	hub.Start()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg rawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew_CreatesHubWithDependencies(t *testing.T) {
	game := &mockGameService{}
	hub := New(logger.NewNop(), game)

	if hub.game == nil {
		t.Error("expected game to be set")
	}
	if hub.clients == nil || hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.direct == nil {
		t.Error("expected channels and client map to be initialized")
	}
}

func TestHub_BroadcastMessage_NoClients(t *testing.T) {
	hub := New(logger.NewNop(), &mockGameService{})
	hub.Start()
	defer hub.Stop()

	done := make(chan bool)
	go func() {
		hub.BroadcastMessage("test", map[string]string{"key": "value"})
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("BroadcastMessage blocked with no clients")
	}
}

func TestHub_BroadcastAfterStop(t *testing.T) {
	hub := New(logger.NewNop(), &mockGameService{})
	hub.Start()
	hub.Stop()
	hub.Stop()

	done := make(chan bool)
	go func() {
		hub.BroadcastMessage("late", nil)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("BroadcastMessage blocked after Stop")
	}
}

func TestHub_ClientRegistrationAndStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := New(logger.NewNop(), &mockGameService{})
	hub.Start()

	client := &Client{hub: hub, send: make(chan models.WSMessage, sendBuffer)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Stop()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected send channel closed, got a message")
		}
	case <-time.After(time.Second):
		t.Error("expected send channel closed on Stop")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := New(logger.NewNop(), &mockGameService{})
	hub.Start()
	defer hub.Stop()

	client := &Client{hub: hub, send: make(chan models.WSMessage, 1)}
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastMessage("one", nil)
	hub.BroadcastMessage("two", nil)

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestServeWs_SendsSnapshotOnConnect(t *testing.T) {
	board := &models.Board{ID: "b1", Generation: 3, Categories: []models.Category{{ID: 1, Title: "Rivers"}}}
	game := &mockGameService{
		board:  board,
		status: models.BoardStatus{Generation: 3, BoardID: "b1"},
	}
	_, srv := startHub(t, game)
	conn := dial(t, srv)

	status := readMessage(t, conn)
	if status.Type != services.MsgBoardStatus {
		t.Fatalf("expected board_status first, got %s", status.Type)
	}
	var st models.BoardStatus
	if err := json.Unmarshal(status.Payload, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.BoardID != "b1" || st.Generation != 3 {
		t.Errorf("unexpected status %+v", st)
	}

	ready := readMessage(t, conn)
	if ready.Type != services.MsgBoardReady {
		t.Fatalf("expected board_ready, got %s", ready.Type)
	}
	var got models.Board
	if err := json.Unmarshal(ready.Payload, &got); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if got.ID != "b1" || got.Categories[0].Title != "Rivers" {
		t.Errorf("unexpected board %+v", got)
	}
}

func TestServeWs_NoBoardSendsStatusOnly(t *testing.T) {
	game := &mockGameService{status: models.BoardStatus{Loading: true, Generation: 1}}
	hub, srv := startHub(t, game)
	conn := dial(t, srv)

	msg := readMessage(t, conn)
	if msg.Type != services.MsgBoardStatus {
		t.Fatalf("expected board_status, got %s", msg.Type)
	}

	hub.BroadcastMessage(services.MsgBoardLoading, game.Status())
	next := readMessage(t, conn)
	if next.Type != services.MsgBoardLoading {
		t.Errorf("expected board_loading next, got %s", next.Type)
	}
}

func TestServeWs_RevealMessage(t *testing.T) {
	game := &mockGameService{}
	_, srv := startHub(t, game)
	conn := dial(t, srv)
	readMessage(t, conn)

	err := conn.WriteJSON(map[string]interface{}{
		"type":    MsgReveal,
		"payload": RevealMessage{BoardID: "b1", Category: 2, Clue: 3},
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitFor(t, func() bool { return game.revealCount() == 1 })
	game.mu.Lock()
	coord := game.reveals[0]
	game.mu.Unlock()
	if coord != (models.Coord{Category: 2, Clue: 3}) {
		t.Errorf("unexpected coord %v", coord)
	}
}

func TestServeWs_RevealErrorGoesToSender(t *testing.T) {
	game := &mockGameService{revealErr: services.ErrStaleBoard}
	_, srv := startHub(t, game)
	conn := dial(t, srv)
	readMessage(t, conn)

	conn.WriteJSON(map[string]interface{}{
		"type":    MsgReveal,
		"payload": RevealMessage{BoardID: "old"},
	})

	msg := readMessage(t, conn)
	if msg.Type != MsgError {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
	if !strings.Contains(string(msg.Payload), "replaced") {
		t.Errorf("unexpected error payload %s", msg.Payload)
	}
}

func TestServeWs_InvalidRevealPayload(t *testing.T) {
	game := &mockGameService{}
	_, srv := startHub(t, game)
	conn := dial(t, srv)
	readMessage(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"reveal","payload":"nope"}`))

	msg := readMessage(t, conn)
	if msg.Type != MsgError {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
	if game.revealCount() != 0 {
		t.Error("expected no reveal for a bad payload")
	}
}

func TestServeWs_NewGameMessage(t *testing.T) {
	game := &mockGameService{}
	_, srv := startHub(t, game)
	conn := dial(t, srv)
	readMessage(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	conn.WriteJSON(map[string]string{"type": MsgNewGame})

	waitFor(t, func() bool { return game.newGameCount() == 1 })
}

func TestServeWs_WithGameService(t *testing.T) {
	boards := services.NewBoardService(logger.NewNop(), jservice.NewMockClient(), services.DefaultBoardOptions())
	game := services.NewGameService(logger.NewNop(), boards, time.Second)
	defer game.Close()

	hub, srv := startHub(t, game)
	game.SetBroadcaster(hub)

	board, err := game.NewGame(context.Background())
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	viewer := dial(t, srv)
	readMessage(t, viewer) // status
	readMessage(t, viewer) // board
	clicker := dial(t, srv)
	readMessage(t, clicker)
	readMessage(t, clicker)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	clicker.WriteJSON(map[string]interface{}{
		"type":    MsgReveal,
		"payload": RevealMessage{BoardID: board.ID, Category: 0, Clue: 0},
	})

	for _, conn := range []*websocket.Conn{viewer, clicker} {
		msg := readMessage(t, conn)
		if msg.Type != services.MsgClueRevealed {
			t.Fatalf("expected clue_revealed, got %s", msg.Type)
		}
		var res services.RevealResult
		if err := json.Unmarshal(msg.Payload, &res); err != nil {
			t.Fatalf("decode reveal: %v", err)
		}
		if res.Showing != models.Question || res.Text != board.Categories[0].Clues[0].Question {
			t.Errorf("unexpected reveal %+v", res)
		}
	}
}

// racingGame commits a newer board while the first snapshot is being read
type racingGame struct {
	mockGameService
	hub   *Hub
	next  *models.Board
	raced bool
}

func (g *racingGame) Board() (*models.Board, error) {
	g.mu.Lock()
	current := g.board.Clone()
	race := !g.raced
	if race {
		g.raced = true
		g.board = g.next
		g.status = models.BoardStatus{Generation: g.next.Generation, BoardID: g.next.ID}
	}
	g.mu.Unlock()

	if race {
		g.hub.BroadcastMessage(services.MsgBoardReady, g.next.Clone())
	}
	return current, nil
}

func TestServeWs_SnapshotNeverOvertakesNewerBoard(t *testing.T) {
	game := &racingGame{
		mockGameService: mockGameService{
			board:  &models.Board{ID: "old", Generation: 1},
			status: models.BoardStatus{Generation: 1, BoardID: "old"},
		},
		next: &models.Board{ID: "new", Generation: 2},
	}
	hub, srv := startHub(t, game)
	game.hub = hub
	conn := dial(t, srv)

	var lastBoard string
	for i := 0; i < 3; i++ {
		msg := readMessage(t, conn)
		if msg.Type != services.MsgBoardReady {
			continue
		}
		var b models.Board
		if err := json.Unmarshal(msg.Payload, &b); err != nil {
			t.Fatalf("decode board: %v", err)
		}
		if b.ID == "old" {
			t.Fatalf("superseded board delivered after generation %d", game.next.Generation)
		}
		lastBoard = b.ID
	}
	if lastBoard != "new" {
		t.Errorf("expected the newest board last, got %q", lastBoard)
	}
}
