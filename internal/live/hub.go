package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 16
	maxTopics      = 32
)

// Message types broadcast to subscribers.
const (
	TypePoolUpdated     = "pool.updated"
	TypeCampaignUpdated = "campaign.updated"
	TypeBillUpdated     = "bill.updated"
)

// Topic helpers keep the naming in one place.
func PoolTopic(id string) string       { return "pool:" + id }
func CampaignTopic(slug string) string { return "campaign:" + slug }
func BillTopic(id string) string       { return "bill:" + id }

// Message is the JSON frame sent to websocket clients.
type Message struct {
	Type  string    `json:"type"`
	Topic string    `json:"topic"`
	Data  any       `json:"data"`
	At    time.Time `json:"at"`
}

// Publisher is what services use to announce state changes.
type Publisher interface {
	Publish(topic, msgType string, data any)
}

// NopPublisher discards every message.
type NopPublisher struct{}

func (NopPublisher) Publish(string, string, any) {}

type client struct {
	topics map[string]struct{}
	send   chan []byte
}

type envelope struct {
	topic   string
	payload []byte
}

// Hub fans messages out to subscribed websocket clients. One goroutine (Run) owns
// the client set.
type Hub struct {
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan envelope
	clients    map[*client]struct{}
	done       chan struct{}
	now        func() time.Time
}

func NewHub(logger zerolog.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan envelope, 256),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// Run dispatches until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case env := <-h.broadcast:
			h.dispatch(env)
		}
	}
}

func (h *Hub) dispatch(env envelope) {
	for c := range h.clients {
		if _, ok := c.topics[env.topic]; !ok {
			continue
		}
		select {
		case c.send <- env.payload:
		default:
			// Slow consumer.
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn().Str("topic", env.topic).Msg("live client dropped")
		}
	}
}

// Publish queues a message. It never blocks the caller; a full queue drops the message.
func (h *Hub) Publish(topic, msgType string, data any) {
	payload, err := json.Marshal(Message{Type: msgType, Topic: topic, Data: data, At: h.now().UTC()})
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("encode live message")
		return
	}
	select {
	case h.broadcast <- envelope{topic: topic, payload: payload}:
	default:
		h.logger.Warn().Str("topic", topic).Msg("live broadcast queue full")
	}
}

// ServeHTTP upgrades the request and subscribes it to ?topics=a,b.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topics := ParseTopics(r.URL.Query().Get("topics"))
	if len(topics) == 0 {
		http.Error(w, "topics query parameter is required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{topics: topics, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go h.writePump(conn, c)
	h.readPump(conn, c)
}

// readPump only services control frames; clients do not send data.
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ParseTopics splits a comma separated list, keeping only kind:id entries.
func ParseTopics(raw string) map[string]struct{} {
	topics := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		kind, id, ok := strings.Cut(part, ":")
		if !ok || id == "" {
			continue
		}
		switch kind {
		case "pool", "campaign", "bill":
		default:
			continue
		}
		topics[part] = struct{}{}
		if len(topics) >= maxTopics {
			break
		}
	}
	return topics
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

var _ Publisher = (*Hub)(nil)
var _ Publisher = NopPublisher{}
