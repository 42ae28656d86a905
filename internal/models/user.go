package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a ConnectHub account and its public profile.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email" json:"email"`
	HashedPassword string             `bson:"password" json:"-"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Bio            string             `bson:"bio" json:"bio"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Interests      []string           `bson:"interests" json:"interests"`
	Role           string             `bson:"role" json:"role"`
	LastActiveAt   time.Time          `bson:"lastActiveAt,omitempty" json:"lastActiveAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the public projection of a user. It never carries the email
// or password hash.
type UserSummary struct {
	ID                primitive.ObjectID `json:"_id"`
	Username          string             `json:"username"`
	FirstName         string             `json:"firstName"`
	LastName          string             `json:"lastName"`
	Bio               string             `json:"bio,omitempty"`
	ProfilePicture    string             `json:"profilePicture,omitempty"`
	ProfilePictureURL string             `json:"profilePictureUrl,omitempty"`
	Interests         []string           `json:"interests"`
	Online            *bool              `json:"online,omitempty"`
}

// Summary projects u. The picture URL is filled in by the caller, which
// knows the public base URL.
func (u *User) Summary() UserSummary {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Interests:      interests,
	}
}

// ProfileUpdate carries the fields a user may change on their own profile.
// Nil means "leave unchanged".
type ProfileUpdate struct {
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Bio       *string   `json:"bio"`
	Interests *[]string `json:"interests"`
}

// Profile is what GET /api/profile/{username} returns.
type Profile struct {
	UserSummary
	PostCount   int64 `json:"postCount"`
	FriendCount int   `json:"friendCount"`
}
