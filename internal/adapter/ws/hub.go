package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"casino-core/internal/core/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// event is the wire envelope pushed to round subscribers.
type event struct {
	Type string      `json:"type"` // tick, bet, outcome
	Data interface{} `json:"data"`
}

// tickPayload is the countdown event body.
type tickPayload struct {
	Phase       domain.RoundPhase `json:"phase"`
	SecondsLeft int               `json:"seconds_left"`
}

// client is one subscribed connection with a buffered outbound queue.
type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// Hub fans round events out to every connected spectator. It implements
// ports.RoundBroadcaster; delivery is fire-and-forget, and a client whose
// buffer is full is dropped rather than allowed to stall the scheduler.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Round events are public; spectating needs no origin pinning.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleConnection upgrades the request and pumps events until the peer
// disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Int("clients", total).Msg("round subscriber connected")

	go c.writePump()
	c.readPump(h)
}

// BroadcastTick publishes the countdown state.
func (h *Hub) BroadcastTick(phase domain.RoundPhase, secondsLeft int) {
	h.broadcast(event{Type: "tick", Data: tickPayload{Phase: phase, SecondsLeft: secondsLeft}})
}

// BroadcastBet publishes a newly pooled bet.
func (h *Hub) BroadcastBet(bet domain.RoundBet) {
	h.broadcast(event{Type: "bet", Data: bet})
}

// BroadcastOutcome publishes the resolved round with its revealed seed.
func (h *Hub) BroadcastOutcome(outcome *domain.RoundOutcome) {
	h.broadcast(event{Type: "outcome", Data: outcome})
}

// Shutdown disconnects every subscriber.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
	}
	h.clients = make(map[*client]struct{})
}

func (h *Hub) broadcast(e event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.log.Error().Err(err).Str("type", e.Type).Msg("failed to encode round event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop it, readPump unregisters on close.
			c.close()
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readPump drains inbound frames; subscribers only listen, so everything
// except pong handling is discarded.
func (c *client) readPump(h *Hub) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
