package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	AuthorID     primitive.ObjectID   `bson:"author" json:"-"`
	Text         string               `bson:"text" json:"text"`
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	Likes        []primitive.ObjectID `bson:"likes" json:"likes"`
	CommentCount int                  `bson:"commentCount" json:"commentCount"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PostView is a post with its author resolved.
type PostView struct {
	Post
	Author   UserSummary `json:"author"`
	ImageURL string      `json:"imageUrl,omitempty"`
}

// PostDetail is a single post with its first comments inlined.
type PostDetail struct {
	PostView
	Comments []CommentView `json:"comments"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PostID    primitive.ObjectID `bson:"post" json:"post"`
	AuthorID  primitive.ObjectID `bson:"author" json:"-"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type CommentView struct {
	Comment
	Author UserSummary `json:"author"`
}
