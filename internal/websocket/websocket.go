package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/internal/models"
	"github.com/abrezinsky/jeopardy/internal/services"
)

// Client message types
const (
	MsgReveal  = "reveal"
	MsgNewGame = "new_game"
	MsgError   = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
	revealWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Board viewers on the LAN open it by IP
	},
}

// RevealMessage is the payload of a client "reveal" message
type RevealMessage struct {
	BoardID  string `json:"board_id"`
	Category int    `json:"category"`
	Clue     int    `json:"clue"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	game       services.GameServicer
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex

	// sent counts broadcasts handed to clients; only run writes it
	sent atomic.Uint64
}

// directMessage goes to a single client. A snapshot is only valid if no
// broadcast was delivered between reading it and delivering it.
type directMessage struct {
	client   *Client
	msgs     []models.WSMessage
	snapshot bool
	seq      uint64
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, game services.GameServicer) *Hub {
	return &Hub{
		log:        log,
		game:       game,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// Stop ends the main loop and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// run owns client registration and delivery. It never calls into the game
// service, which may be holding its lock while it broadcasts.
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", total)

		case dm := <-h.direct:
			h.mutex.RLock()
			registered := h.clients[dm.client]
			h.mutex.RUnlock()
			if !registered {
				continue
			}
			if dm.snapshot && dm.seq != h.sent.Load() {
				// A broadcast overtook the snapshot; it may describe an older board.
				go h.sendSnapshot(dm.client)
				continue
			}
			for _, msg := range dm.msgs {
				h.deliver(dm.client, msg)
			}

		case message := <-h.broadcast:
			h.sent.Add(1)
			h.mutex.RLock()
			for client := range h.clients {
				h.deliver(client, message)
			}
			h.mutex.RUnlock()
		}
	}
}

// deliver queues msg without blocking; a client that cannot keep up is dropped
func (h *Hub) deliver(c *Client, msg models.WSMessage) {
	select {
	case c.send <- msg:
	default:
		go func() {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
		}()
	}
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	select {
	case h.broadcast <- models.WSMessage{Type: msgType, Payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) queueDirect(dm directMessage) {
	select {
	case h.direct <- dm:
	case <-h.done:
	}
}

// sendTo sends a message to one client
func (h *Hub) sendTo(c *Client, msgType string, payload interface{}) {
	h.queueDirect(directMessage{client: c, msgs: []models.WSMessage{{Type: msgType, Payload: payload}}})
}

// sendSnapshot gives a registered client the current status and board. The
// game commits and broadcasts under one lock, so a snapshot read with no
// broadcast delivered since seq is current; run retries any other.
func (h *Hub) sendSnapshot(c *Client) {
	seq := h.sent.Load()
	msgs := []models.WSMessage{{Type: services.MsgBoardStatus, Payload: h.game.Status()}}
	if board, err := h.game.Board(); err == nil {
		msgs = append(msgs, models.WSMessage{Type: services.MsgBoardReady, Payload: board})
	}
	h.queueDirect(directMessage{client: c, msgs: msgs, snapshot: true, seq: seq})
}

// handleMessage processes one message read from a client
func (h *Hub) handleMessage(c *Client, msg clientMessage) {
	switch msg.Type {
	case MsgReveal:
		var req RevealMessage
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendTo(c, MsgError, map[string]string{"error": "invalid reveal payload"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), revealWait)
		defer cancel()
		coord := models.Coord{Category: req.Category, Clue: req.Clue}
		if _, err := h.game.Reveal(ctx, req.BoardID, coord); err != nil {
			h.log.Debug("Reveal rejected", "coord", coord.String(), "error", err)
			h.sendTo(c, MsgError, map[string]string{"error": err.Error()})
		}

	case MsgNewGame:
		h.game.StartNewGame()

	default:
		h.log.Debug("Ignoring message", "type", msg.Type)
	}
}

// clientMessage is a message read from a client, payload left undecoded
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.Debug("Malformed message", "error", err)
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			msgBytes, err := json.Marshal(message)
			if err != nil {
				c.hub.log.Error("Failed to encode message", "type", message.Type, "error", err)
				continue
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from clients
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.sendSnapshot(client)
}
