package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to clients.
const (
	EventMessage        = "message"
	EventTyping         = "typing"
	EventPresence       = "presence"
	EventFriendRequest  = "friend_request"
	EventFriendAccepted = "friend_accepted"
	EventNotification   = "notification"
)

// Event is the server-to-client frame.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ClientHandler processes one client frame of a registered type. raw is the
// whole frame.
type ClientHandler func(ctx context.Context, from primitive.ObjectID, raw json.RawMessage) error

// Emitter delivers events to a user's open connections. Delivery is best
// effort: no acknowledgement, ordering or retry.
type Emitter interface {
	Emit(userID primitive.ObjectID, eventType string, data interface{})
}

// Bus moves events to whichever instance holds the user's sockets.
type Bus interface {
	Publish(userID primitive.ObjectID, ev Event) error
	// Start begins delivering published events to deliver.
	Start(deliver func(userID primitive.ObjectID, ev Event)) error
	Close()
}
