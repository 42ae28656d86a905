// Package memstore holds in-memory versions of the Mongo repositories. They
// follow the same contracts, including the repository error sentinels, and
// back the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store keeps every collection behind one lock.
type Store struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]*models.User
	requests      map[primitive.ObjectID]*models.FriendRequest
	posts         map[primitive.ObjectID]*models.Post
	comments      map[primitive.ObjectID]*models.Comment
	chats         map[primitive.ObjectID]*models.Chat
	messages      []models.Message
	notifications map[primitive.ObjectID]*models.Notification

	last time.Time

	// Now is the clock used for timestamps.
	Now func() time.Time
}

// tick reads the clock, nudging it forward so writes never share a
// timestamp. Callers hold mu.
func (s *Store) tick() time.Time {
	now := s.Now()
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	return now
}

func New() *Store {
	return &Store{
		users:         map[primitive.ObjectID]*models.User{},
		requests:      map[primitive.ObjectID]*models.FriendRequest{},
		posts:         map[primitive.ObjectID]*models.Post{},
		comments:      map[primitive.ObjectID]*models.Comment{},
		chats:         map[primitive.ObjectID]*models.Chat{},
		notifications: map[primitive.ObjectID]*models.Notification{},
		Now:           time.Now,
	}
}

// Users returns the user store view.
func (s *Store) Users() *UserStore { return &UserStore{s} }

// Friends returns the friend request store view.
func (s *Store) Friends() *FriendStore { return &FriendStore{s} }

// Posts returns the post and comment store view.
func (s *Store) Posts() *PostStore { return &PostStore{s} }

// Chats returns the chat store view.
func (s *Store) Chats() *ChatStore { return &ChatStore{s} }

// Notifications returns the notification store view.
func (s *Store) Notifications() *NotificationStore { return &NotificationStore{s} }

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}

// UserStore mirrors repository.UserRepository.
type UserStore struct{ s *Store }

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Interests = append([]string{}, u.Interests...)
	return &c
}

func (r *UserStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, repository.ErrDuplicate
		}
	}
	now := r.s.tick()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *UserStore) findOne(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.findOne(func(u *models.User) bool { return u.Email == email })
}

func (r *UserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.findOne(func(u *models.User) bool { return u.Username == username })
}

func (r *UserStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(func(u *models.User) bool { return u.ID == id })
}

func (r *UserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Interests != nil {
		u.Interests = append([]string(nil), (*update.Interests)...)
	}
	u.UpdatedAt = r.s.tick()
	return cloneUser(u), nil
}

func (r *UserStore) SetProfilePicture(_ context.Context, id primitive.ObjectID, path string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.ProfilePicture = path
	u.UpdatedAt = r.s.tick()
	return cloneUser(u), nil
}

func (r *UserStore) UpdateLastActive(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.LastActiveAt = r.s.tick()
	}
	return nil
}

// SetLastActive overrides a user's activity stamp.
func (r *UserStore) SetLastActive(id primitive.ObjectID, at time.Time) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.LastActiveAt = at
	}
}

func (r *UserStore) filter(match func(*models.User) bool, limit int) []models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.User{}
	for _, u := range r.s.users {
		if match(u) {
			out = append(out, *cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *UserStore) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	return r.filter(func(u *models.User) bool { return containsID(ids, u.ID) }, 0), nil
}

func (r *UserStore) FindByInterests(_ context.Context, exclude []primitive.ObjectID, interests []string, limit int) ([]models.User, error) {
	want := make(map[string]struct{}, len(interests))
	for _, tag := range interests {
		want[tag] = struct{}{}
	}
	return r.filter(func(u *models.User) bool {
		if containsID(exclude, u.ID) {
			return false
		}
		for _, tag := range u.Interests {
			if _, ok := want[tag]; ok {
				return true
			}
		}
		return false
	}, limit), nil
}

func (r *UserStore) SearchUsers(_ context.Context, query string, skip, limit int) ([]models.User, int64, error) {
	all := r.filter(func(u *models.User) bool {
		return containsFold(u.Username, query) || containsFold(u.FirstName, query) || containsFold(u.LastName, query)
	}, 0)
	return page(all, skip, limit), int64(len(all)), nil
}

func (r *UserStore) GetInactiveSince(_ context.Context, cutoff time.Time) ([]models.User, error) {
	return r.filter(func(u *models.User) bool {
		return !u.LastActiveAt.IsZero() && u.LastActiveAt.Before(cutoff)
	}, 0), nil
}

// FriendStore mirrors repository.FriendRepository.
type FriendStore struct{ s *Store }

func (r *FriendStore) CreateRequest(_ context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.requests {
		if existing.From == req.From && existing.To == req.To {
			return nil, repository.ErrDuplicate
		}
	}
	now := r.s.tick()
	req.ID = primitive.NewObjectID()
	req.CreatedAt = now
	req.UpdatedAt = now
	stored := *req
	r.s.requests[req.ID] = &stored
	return req, nil
}

func (r *FriendStore) FindBetween(_ context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, req := range r.s.requests {
		if (req.From == a && req.To == b) || (req.From == b && req.To == a) {
			c := *req
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *FriendStore) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (r *FriendStore) filter(match func(*models.FriendRequest) bool) []models.FriendRequest {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.FriendRequest{}
	for _, req := range r.s.requests {
		if match(req) {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *FriendStore) GetPendingByReceiver(_ context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	return r.filter(func(req *models.FriendRequest) bool {
		return req.To == receiverID && req.Status == models.FriendRequestPending
	}), nil
}

func (r *FriendStore) GetByUser(_ context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return r.filter(func(req *models.FriendRequest) bool {
		return req.From == userID || req.To == userID
	}), nil
}

func (r *FriendStore) GetAccepted(_ context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return r.filter(func(req *models.FriendRequest) bool {
		return (req.From == userID || req.To == userID) && req.Status == models.FriendRequestAccepted
	}), nil
}

func (r *FriendStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || req.Status != models.FriendRequestPending {
		return nil, repository.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = r.s.tick()
	c := *req
	return &c, nil
}

func (r *FriendStore) DeleteRequest(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.requests, id)
	return nil
}

// PostStore mirrors repository.PostRepository.
type PostStore struct{ s *Store }

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]primitive.ObjectID{}, p.Likes...)
	return &c
}

func (r *PostStore) CreatePost(_ context.Context, post *models.Post) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	r.s.posts[post.ID] = clonePost(post)
	return post, nil
}

func (r *PostStore) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *PostStore) sorted(match func(*models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range r.s.posts {
		if match(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *PostStore) ListPosts(_ context.Context, skip, limit int) ([]models.Post, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(*models.Post) bool { return true })
	return page(all, skip, limit), int64(len(all)), nil
}

func (r *PostStore) CountByAuthor(_ context.Context, authorID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.sorted(func(p *models.Post) bool { return p.AuthorID == authorID }))), nil
}

func (r *PostStore) SearchPosts(_ context.Context, query string, skip, limit int) ([]models.Post, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(p *models.Post) bool { return containsFold(p.Text, query) })
	return page(all, skip, limit), int64(len(all)), nil
}

func (r *PostStore) DeletePost(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.posts, id)
	for cid, c := range r.s.comments {
		if c.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

func (r *PostStore) AddLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !containsID(p.Likes, userID) {
		p.Likes = append(p.Likes, userID)
	}
	return clonePost(p), nil
}

func (r *PostStore) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	likes := p.Likes[:0]
	for _, id := range p.Likes {
		if id != userID {
			likes = append(likes, id)
		}
	}
	p.Likes = likes
	return clonePost(p), nil
}

func (r *PostStore) CreateComment(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = r.s.tick()
	c := *comment
	r.s.comments[comment.ID] = &c
	if p, ok := r.s.posts[comment.PostID]; ok {
		p.CommentCount++
	}
	return comment, nil
}

func (r *PostStore) GetCommentByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *PostStore) ListComments(_ context.Context, postID primitive.ObjectID, skip, limit int) ([]models.Comment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []models.Comment{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, skip, limit), int64(len(all)), nil
}

func (r *PostStore) DeleteComment(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.comments, comment.ID)
	if p, ok := r.s.posts[comment.PostID]; ok {
		p.CommentCount--
	}
	return nil
}

// ChatStore mirrors repository.ChatRepository.
type ChatStore struct{ s *Store }

func cloneChat(c *models.Chat) *models.Chat {
	out := *c
	out.Participants = append([]primitive.ObjectID(nil), c.Participants...)
	if c.LastMessage != nil {
		m := *c.LastMessage
		out.LastMessage = &m
	}
	return &out
}

func (r *ChatStore) GetOrCreateChat(_ context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := repository.PairKey(a, b)
	for _, c := range r.s.chats {
		if c.PairKey == key {
			return cloneChat(c), nil
		}
	}
	participants := []primitive.ObjectID{a, b}
	if a.Hex() > b.Hex() {
		participants = []primitive.ObjectID{b, a}
	}
	now := r.s.tick()
	chat := &models.Chat{
		ID:           primitive.NewObjectID(),
		Participants: participants,
		PairKey:      key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.chats[chat.ID] = chat
	return cloneChat(chat), nil
}

func (r *ChatStore) GetChatByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneChat(c), nil
}

func (r *ChatStore) ListChats(_ context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Chat{}
	for _, c := range r.s.chats {
		if containsID(c.Participants, userID) {
			out = append(out, *cloneChat(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *ChatStore) AddMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = r.s.tick()
	r.s.messages = append(r.s.messages, *msg)
	if c, ok := r.s.chats[msg.ChatID]; ok {
		m := *msg
		c.LastMessage = &m
		c.UpdatedAt = msg.CreatedAt
	}
	return msg, nil
}

func (r *ChatStore) GetMessages(_ context.Context, chatID primitive.ObjectID, before time.Time, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []models.Message{}
	// Walk newest first so the limit keeps the most recent ones.
	for i := len(r.s.messages) - 1; i >= 0; i-- {
		m := r.s.messages[i]
		if m.ChatID != chatID {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		matched = append(matched, m)
		if limit > 0 && len(matched) == limit {
			break
		}
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched, nil
}

// NotificationStore mirrors repository.NotificationRepository.
type NotificationStore struct{ s *Store }

func (r *NotificationStore) CreateNotification(_ context.Context, notif *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	notif.ID = primitive.NewObjectID()
	notif.CreatedAt = r.s.tick()
	notif.ExpiresAt = notif.CreatedAt.Add(repository.NotificationTTL)
	c := *notif
	r.s.notifications[notif.ID] = &c
	return nil
}

func (r *NotificationStore) GetUserNotifications(_ context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	out := []models.Notification{}
	for _, n := range r.s.notifications {
		if n.UserID == userID && n.ExpiresAt.After(now) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *NotificationStore) GetNotificationByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *NotificationStore) MarkAsRead(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r *NotificationStore) DeleteNotification(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *NotificationStore) GetLatestNotificationByType(_ context.Context, userID primitive.ObjectID, notifType string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || n.Type != notifType {
			continue
		}
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	c := *latest
	return &c, nil
}

func (r *NotificationStore) DeleteExpiredNotifications(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.tick()
	var n int64
	for id, notif := range r.s.notifications {
		if !notif.ExpiresAt.After(now) {
			delete(r.s.notifications, id)
			n++
		}
	}
	return n, nil
}
