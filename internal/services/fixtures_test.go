package services

import (
	"context"
	"sync"
	"testing"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/repository/memstore"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ UserStore         = (*memstore.UserStore)(nil)
	_ FriendStore       = (*memstore.FriendStore)(nil)
	_ PostStore         = (*memstore.PostStore)(nil)
	_ ChatStore         = (*memstore.ChatStore)(nil)
	_ NotificationStore = (*memstore.NotificationStore)(nil)
	_ PresenceReader    = (*realtime.MemoryPresence)(nil)
)

type emitted struct {
	userID    primitive.ObjectID
	eventType string
	data      interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) Emit(userID primitive.ObjectID, eventType string, data interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{userID, eventType, data})
}

func (e *recordingEmitter) of(eventType string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emitted
	for _, ev := range e.events {
		if ev.eventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	events   *recordingEmitter
	presence *realtime.MemoryPresence
	dir      *Directory
	notify   *NotificationService
	friends  *FriendService
	users    *UserService
	posts    *PostService
	chats    *ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	events := &recordingEmitter{}
	presence := realtime.NewMemoryPresence()
	dir := NewDirectory(store.Users(), "http://localhost:5000")
	notify := NewNotificationService(store.Notifications(), store.Users(), events)

	return &fixture{
		store:    store,
		events:   events,
		presence: presence,
		dir:      dir,
		notify:   notify,
		friends:  NewFriendService(store.Friends(), store.Users(), dir, notify, events, presence, 200),
		users:    NewUserService(store.Users(), store.Posts(), store.Friends(), dir),
		posts:    NewPostService(store.Posts(), dir, notify),
		chats:    NewChatService(store.Chats(), store.Friends(), dir, events),
	}
}

func (f *fixture) user(t *testing.T, username string, interests ...string) *models.User {
	t.Helper()
	if interests == nil {
		interests = []string{}
	}
	u, err := f.store.Users().CreateUser(context.Background(), &models.User{
		Username:  username,
		Email:     username + "@connecthub.test",
		Interests: interests,
		Role:      "user",
	})
	require.NoError(t, err)
	return u
}

// befriend runs a request from a to b through acceptance.
func (f *fixture) befriend(t *testing.T, a, b primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	req, err := f.friends.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	_, err = f.friends.RespondToRequest(ctx, req.ID, b, ActionAccept)
	require.NoError(t, err)
}
