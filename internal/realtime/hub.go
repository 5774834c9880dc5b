package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

// DestinationAgentChat is where clients send chat messages.
const DestinationAgentChat = "/app/agent-chat"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

var knownTopics = map[string]bool{
	models.TopicShifts:        true,
	models.TopicAgentTasks:    true,
	models.TopicNotifications: true,
	models.TopicAgentChat:     true,
}

// ChatSaver persists and broadcasts chat messages sent over the socket.
type ChatSaver interface {
	Save(ctx context.Context, m models.ChatMessage) (*models.ChatMessage, error)
}

// ClientFrame is a message from a socket client.
type ClientFrame struct {
	Action      string          `json:"action"`
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// ServerFrame is a message to a socket client. Exactly one of Event,
// Receipt or Error is set.
type ServerFrame struct {
	Destination string                `json:"destination"`
	Event       *models.RealtimeEvent `json:"event,omitempty"`
	Receipt     string                `json:"receipt,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Hub upgrades HTTP requests to WebSocket sessions bridged onto the bus.
type Hub struct {
	bus      *Bus
	chat     ChatSaver
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
	wg       sync.WaitGroup
}

func NewHub(bus *Bus, chat ChatSaver, allowedOrigins []string, log *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Hub{
		bus:      bus,
		chat:     chat,
		log:      log,
		sessions: make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				if origin == "" || allowed["*"] || allowed[strings.TrimRight(origin, "/")] {
					return true
				}
				return sameOrigin(origin, r.Host)
			},
		},
	}
}

// sameOrigin reports whether a page served by this host opened the socket.
func sameOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s := &session{
		hub:  h,
		conn: conn,
		send: make(chan ServerFrame, sendBuffer),
		done: make(chan struct{}),
		subs: make(map[string]func()),
	}
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	h.wg.Add(2)
	go s.writePump()
	go s.readPump()
}

// Close ends every open session and waits for them to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	for s := range h.sessions {
		s.stop()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hub) forget(s *session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

type session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan ServerFrame
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	subs map[string]func()
	fwd  sync.WaitGroup
}

func (s *session) readPump() {
	defer s.hub.wg.Done()
	defer s.teardown()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		s.handle(frame)
	}
}

func (s *session) handle(f ClientFrame) {
	switch strings.ToLower(f.Action) {
	case "subscribe":
		if !knownTopics[f.Destination] {
			s.reply(ServerFrame{Destination: f.Destination, Error: "unknown destination"})
			return
		}
		s.subscribe(f.Destination)
		s.reply(ServerFrame{Destination: f.Destination, Receipt: "subscribed"})
	case "unsubscribe":
		s.unsubscribe(f.Destination)
		s.reply(ServerFrame{Destination: f.Destination, Receipt: "unsubscribed"})
	case "send":
		if f.Destination != DestinationAgentChat {
			s.reply(ServerFrame{Destination: f.Destination, Error: "unknown destination"})
			return
		}
		var msg models.ChatMessage
		if len(f.Body) > 0 {
			if err := json.Unmarshal(f.Body, &msg); err != nil {
				s.reply(ServerFrame{Destination: f.Destination, Error: "malformed body"})
				return
			}
		}
		if _, err := s.hub.chat.Save(context.Background(), msg); err != nil {
			s.hub.log.Warn("chat message rejected", zap.Error(err))
			s.reply(ServerFrame{Destination: f.Destination, Error: apperr.Message(err)})
		}
	default:
		s.reply(ServerFrame{Destination: f.Destination, Error: "unknown action"})
	}
}

func (s *session) subscribe(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[topic]; ok {
		return
	}
	ch, cancel := s.hub.bus.Subscribe(topic, sendBuffer)
	s.subs[topic] = cancel

	s.fwd.Add(1)
	go func() {
		defer s.fwd.Done()
		for msg := range ch {
			ev := msg.Event
			select {
			case s.send <- ServerFrame{Destination: msg.Topic, Event: &ev}:
			case <-s.done:
				return
			}
		}
	}()
}

func (s *session) unsubscribe(topic string) {
	s.mu.Lock()
	cancel, ok := s.subs[topic]
	delete(s.subs, topic)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *session) reply(f ServerFrame) {
	select {
	case s.send <- f:
	case <-s.done:
	}
}

// stop signals both pumps to exit. Either side may call it first.
func (s *session) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *session) teardown() {
	s.stop()
	s.mu.Lock()
	for topic, cancel := range s.subs {
		cancel()
		delete(s.subs, topic)
	}
	s.mu.Unlock()
	s.fwd.Wait()
	s.hub.forget(s)
}

func (s *session) writePump() {
	defer s.hub.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.stop()
		s.conn.Close()
	}()

	for {
		select {
		case f := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
