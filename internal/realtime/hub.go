package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

// FriendLister resolves whose presence a user may see.
type FriendLister interface {
	FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Hub owns the websocket connections of this instance.
type Hub struct {
	mu       sync.RWMutex
	clients  map[primitive.ObjectID]map[*client]struct{}
	handlers map[string]ClientHandler

	bus      Bus
	presence Presence
	friends  FriendLister
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

type client struct {
	userID primitive.ObjectID
	conn   *websocket.Conn
	send   chan []byte
}

// NewHub wires a hub to its bus and presence store and starts consuming the bus.
// Presence changes reach nobody until SetFriendLister is called.
func NewHub(bus Bus, presence Presence, log *logrus.Logger) (*Hub, error) {
	h := &Hub{
		clients:  make(map[primitive.ObjectID]map[*client]struct{}),
		handlers: make(map[string]ClientHandler),
		bus:      bus,
		presence: presence,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	h.Handle(EventTyping, h.relayTyping)

	if err := bus.Start(h.deliver); err != nil {
		return nil, err
	}
	return h, nil
}

// SetCheckOrigin replaces the upgrader's origin check.
func (h *Hub) SetCheckOrigin(fn func(r *http.Request) bool) {
	h.upgrader.CheckOrigin = fn
}

// SetFriendLister sets who is told about a user's presence changes.
func (h *Hub) SetFriendLister(friends FriendLister) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.friends = friends
}

// Handle registers fn for client frames of eventType.
func (h *Hub) Handle(eventType string, fn ClientHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[eventType] = fn
}

// Emit publishes an event for userID. Failures are logged and dropped.
func (h *Hub) Emit(userID primitive.ObjectID, eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data, CreatedAt: time.Now()}
	if err := h.bus.Publish(userID, ev); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"userID": userID.Hex(),
			"type":   eventType,
		}).Warn("Failed to publish realtime event")
	}
}

// OnlineAmong reports which of ids currently hold a connection.
func (h *Hub) OnlineAmong(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	return h.presence.OnlineAmong(ctx, ids)
}

// deliver writes ev to every local connection of userID. A client whose
// buffer is full is disconnected.
func (h *Hub) deliver(userID primitive.ObjectID, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Warn("Failed to encode realtime event")
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithField("userID", userID.Hex()).Warn("Dropping slow websocket client")
		c.conn.Close()
	}
}

// ServeWS upgrades the request and serves userID until the socket closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	return h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.mu.Unlock()

	first, err := h.presence.Connect(context.Background(), c.userID)
	if err != nil {
		h.log.WithError(err).Warn("Failed to record presence")
		return
	}
	if first {
		h.broadcastPresence(c.userID, true)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if conns, ok := h.clients[c.userID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.send)
		}
		if len(conns) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()

	last, err := h.presence.Disconnect(context.Background(), c.userID)
	if err != nil {
		h.log.WithError(err).Warn("Failed to clear presence")
		return
	}
	if last {
		h.broadcastPresence(c.userID, false)
	}
}

func (h *Hub) broadcastPresence(userID primitive.ObjectID, online bool) {
	h.mu.RLock()
	friends := h.friends
	h.mu.RUnlock()
	if friends == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	friendIDs, err := friends.FriendIDs(ctx, userID)
	if err != nil {
		h.log.WithError(err).WithField("userID", userID.Hex()).Warn("Failed to load friends for presence")
		return
	}
	status := "offline"
	if online {
		status = "online"
	}
	for _, id := range friendIDs {
		h.Emit(id, EventPresence, map[string]string{"userId": userID.Hex(), "status": status})
	}
}

func (h *Hub) readPump(c *client) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return err
			}
			return nil
		}

		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.log.WithError(err).Debug("Ignoring malformed websocket frame")
			continue
		}

		h.mu.RLock()
		fn, ok := h.handlers[frame.Type]
		h.mu.RUnlock()
		if !ok {
			h.log.WithField("type", frame.Type).Debug("Ignoring unknown websocket frame")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := fn(ctx, c.userID, raw); err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{
				"userID": c.userID.Hex(),
				"type":   frame.Type,
			}).Warn("Websocket frame failed")
		}
		cancel()
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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

// relayTyping forwards a typing indicator to its addressee without storing it.
func (h *Hub) relayTyping(_ context.Context, from primitive.ObjectID, raw json.RawMessage) error {
	var frame struct {
		To     string `json:"to"`
		Typing bool   `json:"typing"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}
	to, err := primitive.ObjectIDFromHex(frame.To)
	if err != nil {
		return err
	}
	h.Emit(to, EventTyping, map[string]interface{}{"from": from.Hex(), "typing": frame.Typing})
	return nil
}

// Close stops consuming the bus.
func (h *Hub) Close() {
	h.bus.Close()
}
