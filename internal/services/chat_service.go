package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message history bounds.
const (
	RecentMessages     = 50
	DefaultMessagePage = 30
	MaxMessageLength   = 2000
)

type ChatService struct {
	repo      ChatStore
	friends   FriendStore
	directory *Directory
	events    realtime.Emitter
}

func NewChatService(repo ChatStore, friends FriendStore, directory *Directory, events realtime.Emitter) *ChatService {
	return &ChatService{
		repo:      repo,
		friends:   friends,
		directory: directory,
		events:    events,
	}
}

// ListChats returns userID's chats, most recently active first, each with its
// participants and recent history.
func (s *ChatService) ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.ChatView, error) {
	chats, err := s.repo.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []primitive.ObjectID
	for i := range chats {
		ids = append(ids, chats[i].Participants...)
	}
	users, err := s.directory.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ChatView, 0, len(chats))
	for i := range chats {
		msgs, err := s.repo.GetMessages(ctx, chats[i].ID, time.Time{}, RecentMessages)
		if err != nil {
			return nil, err
		}
		views = append(views, s.view(&chats[i], users, msgs))
	}
	return views, nil
}

// OpenChat returns the chat between userID and otherID, creating it on first
// use. Only friends may chat.
func (s *ChatService) OpenChat(ctx context.Context, userID, otherID primitive.ObjectID) (*models.ChatView, error) {
	if otherID.IsZero() {
		return nil, invalid("User ID is required")
	}
	if userID == otherID {
		return nil, invalid("Cannot open a chat with yourself")
	}

	req, err := s.friends.FindBetween(ctx, userID, otherID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err != nil || req.Status != models.FriendRequestAccepted {
		return nil, unauthorized("You can only chat with friends")
	}

	chat, err := s.repo.GetOrCreateChat(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	users, err := s.directory.Summaries(ctx, chat.Participants)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.GetMessages(ctx, chat.ID, time.Time{}, RecentMessages)
	if err != nil {
		return nil, err
	}
	view := s.view(chat, users, msgs)
	return &view, nil
}

// GetMessages returns up to limit messages older than before, oldest first.
func (s *ChatService) GetMessages(ctx context.Context, chatID, userID primitive.ObjectID, before time.Time, limit int) ([]models.Message, error) {
	if _, err := s.participantChat(ctx, chatID, userID); err != nil {
		return nil, err
	}
	_, limit = ClampPage(1, limit, DefaultMessagePage, RecentMessages)
	return s.repo.GetMessages(ctx, chatID, before, limit)
}

// SendMessage stores a message from senderID and pushes it to both participants.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Message text is required")
	}
	if len(text) > MaxMessageLength {
		return nil, invalid("Message is too long")
	}

	chat, err := s.participantChat(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.AddMessage(ctx, &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Text:     text,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range chat.Participants {
		s.events.Emit(p, realtime.EventMessage, msg)
	}
	return msg, nil
}

// HandleSocketMessage is the realtime handler for client "message" frames.
func (s *ChatService) HandleSocketMessage(ctx context.Context, from primitive.ObjectID, raw json.RawMessage) error {
	var frame struct {
		ChatID string `json:"chatId"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return invalid("Malformed message frame")
	}
	chatID, err := primitive.ObjectIDFromHex(frame.ChatID)
	if err != nil {
		return invalid("Invalid chat ID")
	}
	if _, err := s.SendMessage(ctx, chatID, from, frame.Text); err != nil {
		logrus.WithError(err).WithField("userID", from.Hex()).Warn("Socket message rejected")
		return err
	}
	return nil
}

func (s *ChatService) participantChat(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	chat, err := s.repo.GetChatByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Chat not found")
	}
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, unauthorized("Not a participant of this chat")
	}
	return chat, nil
}

func (s *ChatService) view(chat *models.Chat, users map[primitive.ObjectID]models.UserSummary, msgs []models.Message) models.ChatView {
	participants := make([]models.UserSummary, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		u, ok := users[id]
		if !ok {
			u = placeholder(id)
		}
		participants = append(participants, u)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return models.ChatView{Chat: *chat, Participants: participants, Messages: msgs}
}
