package services

import (
	"context"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The services depend on these narrow store interfaces rather than on the
// Mongo repositories directly.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	SetProfilePicture(ctx context.Context, id primitive.ObjectID, path string) (*models.User, error)
	UpdateLastActive(ctx context.Context, id primitive.ObjectID) error
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindByInterests(ctx context.Context, exclude []primitive.ObjectID, interests []string, limit int) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, skip, limit int) ([]models.User, int64, error)
	GetInactiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error)
}

type FriendStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	GetPendingByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error)
	GetAccepted(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.FriendRequestStatus) (*models.FriendRequest, error)
	DeleteRequest(ctx context.Context, id primitive.ObjectID) error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListPosts(ctx context.Context, skip, limit int) ([]models.Post, int64, error)
	CountByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error)
	SearchPosts(ctx context.Context, query string, skip, limit int) ([]models.Post, int64, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListComments(ctx context.Context, postID primitive.ObjectID, skip, limit int) ([]models.Comment, int64, error)
	DeleteComment(ctx context.Context, comment *models.Comment) error
}

type ChatStore interface {
	GetOrCreateChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	AddMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetMessages(ctx context.Context, chatID primitive.ObjectID, before time.Time, limit int) ([]models.Message, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) error
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
	GetLatestNotificationByType(ctx context.Context, userID primitive.ObjectID, notifType string) (*models.Notification, error)
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
}

// PresenceReader reports which users hold an open realtime connection.
type PresenceReader interface {
	OnlineAmong(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}

var (
	_ UserStore         = (*repository.UserRepository)(nil)
	_ FriendStore       = (*repository.FriendRepository)(nil)
	_ PostStore         = (*repository.PostRepository)(nil)
	_ ChatStore         = (*repository.ChatRepository)(nil)
	_ NotificationStore = (*repository.NotificationRepository)(nil)
)
