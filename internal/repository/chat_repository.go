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

type ChatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{
		chats:    db.Collection("chats"),
		messages: db.Collection("messages"),
	}
}

// PairKey is the order-independent identity of a two-person chat.
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah > bh {
		ah, bh = bh, ah
	}
	return ah + ":" + bh
}

// GetOrCreateChat returns the chat between a and b, creating it on first use.
func (r *ChatRepository) GetOrCreateChat(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	key := PairKey(a, b)
	now := time.Now()
	participants := []primitive.ObjectID{a, b}
	if a.Hex() > b.Hex() {
		participants = []primitive.ObjectID{b, a}
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": participants,
			"pairKey":      key,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var chat models.Chat
	if err := r.chats.FindOneAndUpdate(ctx, bson.M{"pairKey": key}, update, opts).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to open chat: %w", translate(err))
	}
	return &chat, nil
}

func (r *ChatRepository) GetChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to find chat: %w", translate(err))
	}
	return &chat, nil
}

// ListChats returns the user's chats, most recently active first.
func (r *ChatRepository) ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.chats.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, nil
}

// AddMessage stores msg and records it as the chat's last message.
func (r *ChatRepository) AddMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.CreatedAt = time.Now()
	result, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)

	_, err = r.chats.UpdateOne(ctx,
		bson.M{"_id": msg.ChatID},
		bson.M{"$set": bson.M{"lastMessage": msg, "updatedAt": msg.CreatedAt}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}
	return msg, nil
}

// GetMessages returns up to limit messages older than before (zero means now),
// in chronological order.
func (r *ChatRepository) GetMessages(ctx context.Context, chatID primitive.ObjectID, before time.Time, limit int) ([]models.Message, error) {
	if before.IsZero() {
		before = time.Now().Add(time.Second)
	}
	filter := bson.M{"chat": chatID, "createdAt": bson.M{"$lt": before}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
