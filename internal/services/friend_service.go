package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Respond actions.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// FriendService handles friend suggestions and the friend request lifecycle.
type FriendService struct {
	friendRepo FriendStore
	userRepo   UserStore
	directory  *Directory
	notifier   *NotificationService
	events     realtime.Emitter
	presence   PresenceReader
	poolSize   int
}

// NewFriendService creates a new FriendService. poolSize bounds how many
// candidates are scored per suggestion request.
func NewFriendService(friendRepo FriendStore, userRepo UserStore, directory *Directory, notifier *NotificationService, events realtime.Emitter, presence PresenceReader, poolSize int) *FriendService {
	if poolSize <= 0 {
		poolSize = 200
	}
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		directory:  directory,
		notifier:   notifier,
		events:     events,
		presence:   presence,
		poolSize:   poolSize,
	}
}

// GetSuggestions ranks users sharing interests with userID. A user without
// interests gets no suggestions.
func (s *FriendService) GetSuggestions(ctx context.Context, userID primitive.ObjectID) ([]models.Suggestion, error) {
	me, err := s.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	interests := NormalizeInterests(me.Interests)
	if len(interests) == 0 {
		return []models.Suggestion{}, nil
	}

	linked, err := s.linkedUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := append([]primitive.ObjectID{userID}, linked...)

	candidates, err := s.userRepo.FindByInterests(ctx, exclude, interests, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestion candidates: %w", err)
	}

	return RankCandidates(interests, candidates, MaxSuggestions, s.directory.Summary), nil
}

// linkedUsers is everyone userID already has a request with, in any state.
func (s *FriendService) linkedUsers(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	requests, err := s.friendRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load friend requests: %w", err)
	}
	linked := make([]primitive.ObjectID, 0, len(requests))
	for i := range requests {
		linked = append(linked, requests[i].Other(userID))
	}
	return linked, nil
}

// SendFriendRequest creates a pending request from sender to receiver.
// Any earlier request between the pair, in either direction and in any
// state, blocks a new one.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequestView, error) {
	if receiverID.IsZero() {
		return nil, invalid("Recipient user ID is required")
	}
	if senderID == receiverID {
		return nil, invalid("Cannot send a friend request to yourself")
	}

	receiver, err := s.userRepo.GetUserByID(ctx, receiverID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	_, err = s.friendRepo.FindBetween(ctx, senderID, receiverID)
	switch {
	case err == nil:
		return nil, conflict("Friend request already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	request, err := s.friendRepo.CreateRequest(ctx, &models.FriendRequest{
		From:   senderID,
		To:     receiverID,
		Status: models.FriendRequestPending,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, conflict("Friend request already exists")
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"from": senderID.Hex(),
		"to":   receiverID.Hex(),
	}).Info("Friend request sent")

	fromUser := placeholder(senderID)
	sender, senderErr := s.userRepo.GetUserByID(ctx, senderID)
	if senderErr == nil {
		fromUser = s.directory.Summary(sender)
	}
	view := request.View(fromUser, s.directory.Summary(receiver))

	s.events.Emit(receiverID, realtime.EventFriendRequest, view)
	if senderErr == nil {
		s.notify(ctx, receiverID, models.NotificationFriendRequest, "New friend request",
			fmt.Sprintf("%s wants to be your friend", sender.Username), &senderID, &request.ID)
	}

	return &view, nil
}

// GetPendingRequests lists pending requests addressed to receiverID, newest first.
func (s *FriendService) GetPendingRequests(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.friendRepo.GetPendingByReceiver(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(requests)+1)
	ids = append(ids, receiverID)
	for i := range requests {
		ids = append(ids, requests[i].From)
	}
	users, err := s.directory.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve senders: %w", err)
	}
	resolve := func(id primitive.ObjectID) models.UserSummary {
		if u, ok := users[id]; ok {
			return u
		}
		return placeholder(id)
	}

	views := make([]models.FriendRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, requests[i].View(resolve(requests[i].From), resolve(receiverID)))
	}
	return views, nil
}

// RespondToRequest accepts or rejects a pending request addressed to actorID.
func (s *FriendService) RespondToRequest(ctx context.Context, requestID, actorID primitive.ObjectID, action string) (*models.FriendRequest, error) {
	var status models.FriendRequestStatus
	switch action {
	case ActionAccept:
		status = models.FriendRequestAccepted
	case ActionReject:
		status = models.FriendRequestRejected
	default:
		return nil, invalid("Action must be 'accept' or 'reject'")
	}

	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Friend request not found")
	}
	if err != nil {
		return nil, err
	}

	if request.To != actorID {
		return nil, unauthorized("Not authorized to respond to this request")
	}
	if request.Status != models.FriendRequestPending {
		return nil, conflict("Request has already been processed")
	}

	updated, err := s.friendRepo.UpdateStatus(ctx, requestID, status)
	if errors.Is(err, repository.ErrNotFound) {
		// Someone else resolved it between the read and the write.
		return nil, conflict("Request has already been processed")
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"requestID": requestID.Hex(),
		"status":    status,
	}).Info("Friend request resolved")

	if status == models.FriendRequestAccepted {
		s.events.Emit(updated.From, realtime.EventFriendAccepted, updated)
		if actor, err := s.userRepo.GetUserByID(ctx, actorID); err == nil {
			s.notify(ctx, updated.From, models.NotificationFriendAccepted, "Friend request accepted",
				fmt.Sprintf("%s accepted your friend request", actor.Username), &actorID, &updated.ID)
		}
	}
	return updated, nil
}

// CancelRequest lets the sender withdraw a pending request. Deleting the
// request is what makes the pair requestable again.
func (s *FriendService) CancelRequest(ctx context.Context, requestID, actorID primitive.ObjectID) error {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("Friend request not found")
	}
	if err != nil {
		return err
	}
	if request.From != actorID {
		return unauthorized("Not authorized to cancel this request")
	}
	if request.Status != models.FriendRequestPending {
		return conflict("Request has already been processed")
	}
	return s.friendRepo.DeleteRequest(ctx, requestID)
}

// FriendIDs returns the ids of userID's friends.
func (s *FriendService) FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	accepted, err := s.friendRepo.GetAccepted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve friends: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(accepted))
	for i := range accepted {
		ids = append(ids, accepted[i].Other(userID))
	}
	return ids, nil
}

// AreFriends reports whether an accepted request links a and b.
func (s *FriendService) AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	req, err := s.friendRepo.FindBetween(ctx, a, b)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return req.Status == models.FriendRequestAccepted, nil
}

// GetFriends resolves userID's friends to summaries flagged with presence.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.UserSummary, error) {
	ids, err := s.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}

	summaries, err := s.directory.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	online, err := s.presence.OnlineAmong(ctx, ids)
	if err != nil {
		logrus.WithError(err).Warn("Presence lookup failed, reporting friends offline")
		online = map[primitive.ObjectID]bool{}
	}

	friends := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		summary, ok := summaries[id]
		if !ok {
			continue
		}
		isOnline := online[id]
		summary.Online = &isOnline
		friends = append(friends, summary)
	}
	return friends, nil
}

// RemoveFriend deletes the accepted request linking userID and friendID.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	req, err := s.friendRepo.FindBetween(ctx, userID, friendID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("Not friends with this user")
	}
	if err != nil {
		return err
	}
	if req.Status != models.FriendRequestAccepted {
		return notFound("Not friends with this user")
	}
	return s.friendRepo.DeleteRequest(ctx, req.ID)
}

func (s *FriendService) notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, actor, target *primitive.ObjectID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, notifType, title, message, actor, target); err != nil {
		logrus.WithError(err).WithField("userID", userID.Hex()).Warn("Failed to store notification")
	}
}
