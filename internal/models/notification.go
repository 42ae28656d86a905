package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationPostLiked      = "post_liked"
	NotificationPostCommented  = "post_commented"
	NotificationUserInactive   = "user_inactive"
)

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID  `bson:"user" json:"user"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	ActorID   *primitive.ObjectID `bson:"actor,omitempty" json:"actor,omitempty"`
	TargetID  *primitive.ObjectID `bson:"target,omitempty" json:"target,omitempty"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time           `bson:"expiresAt" json:"expiresAt"` // auto-deleted by the cleanup job
}
