package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed edge from one user to another. Only Status
// (and UpdatedAt) change after creation.
type FriendRequest struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	From      primitive.ObjectID  `bson:"from" json:"from"`
	To        primitive.ObjectID  `bson:"to" json:"to"`
	Status    FriendRequestStatus `bson:"status" json:"status"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Other returns the endpoint of r that is not userID.
func (r *FriendRequest) Other(userID primitive.ObjectID) primitive.ObjectID {
	if r.From == userID {
		return r.To
	}
	return r.From
}

// FriendRequestView is a request with both endpoints resolved for display.
type FriendRequestView struct {
	ID        primitive.ObjectID  `json:"_id"`
	From      UserSummary         `json:"from"`
	To        UserSummary         `json:"to"`
	Status    FriendRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// View pairs r with the summaries of its endpoints.
func (r *FriendRequest) View(from, to UserSummary) FriendRequestView {
	return FriendRequestView{
		ID:        r.ID,
		From:      from,
		To:        to,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Suggestion is a ranked friend candidate.
type Suggestion struct {
	UserSummary
	CommonInterests []string `json:"commonInterests"`
	SimilarityScore int      `json:"similarityScore"`
}
