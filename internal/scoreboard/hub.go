package scoreboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/logging"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

const (
	MessageView  = "view"
	MessageEvent = "event"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func NewHub(ctx context.Context, board *Board, checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		board:       board,
		checkOrigin: checkOrigin,
		clients:     map[*Client]bool{},
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan []byte, 256),
		done:        make(chan struct{}),
		logger:      logging.FromContext(ctx).Named("scoreboard.Hub"),
	}
}

var _ bout.Notifier = (*Hub)(nil)

// Hub streams engine notifications to every connected display.
type Hub struct {
	board       *Board
	checkOrigin func(r *http.Request) bool
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	broadcast   chan []byte
	done        chan struct{}
	logger      *zap.SugaredLogger
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debugf("display connected, %d total", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debugf("display disconnected, %d total", len(h.clients))
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					delete(h.clients, client)
					close(client.send)
					h.logger.Warnf("dropping slow display")
				}
			}
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Notify never blocks. When the broadcast queue is full the event is dropped,
// displays catch up with the next view they request.
func (h *Hub) Notify(evt bout.Event) {
	msg, err := json.Marshal(Message{Type: MessageEvent, Payload: evt})
	if err != nil {
		h.logger.Errorf("marshal event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warnf("broadcast queue full, dropping %s", evt.Kind)
	}
}

// PublishView pushes a full board to every display, used when a new bout is
// put on the mat.
func (h *Hub) PublishView(v View) {
	msg, err := json.Marshal(Message{Type: MessageView, Payload: v})
	if err != nil {
		h.logger.Errorf("marshal view: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warnf("broadcast queue full, dropping view")
	}
}

// ServeWS upgrades the request and sends the current board before streaming
// events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	up := upgrader
	up.CheckOrigin = h.checkOrigin

	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("upgrade: %v", err)
		return
	}

	view, err := json.Marshal(Message{Type: MessageView, Payload: h.board.View(time.Now())})
	if err != nil {
		h.logger.Errorf("marshal view: %v", err)
		_ = conn.Close()
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	client.send <- view

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only consumes control frames, displays do not send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("display read: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.logger.Warnf("display write: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
