package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection("friend_requests"),
	}
}

// pairFilter matches requests between a and b in either direction.
func pairFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{
		"$or": []bson.M{
			{"from": a, "to": b},
			{"from": b, "to": a},
		},
	}
}

func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to send friend request: %w", translate(err))
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

// FindBetween returns any request between a and b, whatever its direction or status.
func (r *FriendRepository) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.collection.FindOne(ctx, pairFilter(a, b)).Decode(&request); err != nil {
		return nil, fmt.Errorf("failed to find friend request: %w", translate(err))
	}
	return &request, nil
}

func (r *FriendRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, fmt.Errorf("failed to find friend request: %w", translate(err))
	}
	return &request, nil
}

// GetPendingByReceiver lists pending requests addressed to receiverID, newest first.
func (r *FriendRepository) GetPendingByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{"to": receiverID, "status": models.FriendRequestPending}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, opts)
}

// GetByUser returns every request touching userID, in either direction.
func (r *FriendRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"from": userID},
			{"to": userID},
		},
	}
	return r.find(ctx, filter, nil)
}

// GetAccepted returns the accepted requests touching userID.
func (r *FriendRepository) GetAccepted(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"from": userID, "status": models.FriendRequestAccepted},
			{"to": userID, "status": models.FriendRequestAccepted},
		},
	}
	return r.find(ctx, filter, nil)
}

// UpdateStatus moves a pending request to status. It matches only pending
// documents, so a concurrent response loses with ErrNotFound.
func (r *FriendRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	filter := bson.M{"_id": id, "status": models.FriendRequestPending}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var request models.FriendRequest
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&request); err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", translate(err))
	}
	return &request, nil
}

func (r *FriendRepository) DeleteRequest(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FriendRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.FriendRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.FriendRequest{}
	for cursor.Next(ctx) {
		var req models.FriendRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, cursor.Err()
}
