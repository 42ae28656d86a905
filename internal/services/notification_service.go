package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InactivityThreshold is how long a user must be idle before a reminder.
const InactivityThreshold = 7 * 24 * time.Hour

type NotificationService struct {
	repo   NotificationStore
	users  UserStore
	events realtime.Emitter
}

func NewNotificationService(repo NotificationStore, users UserStore, events realtime.Emitter) *NotificationService {
	return &NotificationService{
		repo:   repo,
		users:  users,
		events: events,
	}
}

// Notify stores a notification for userID and pushes it over the realtime
// channel. The push is best effort.
func (s *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, actor, target *primitive.ObjectID) error {
	notif := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		ActorID:  actor,
		TargetID: target,
	}
	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		return err
	}
	s.events.Emit(userID, realtime.EventNotification, notif)
	return nil
}

// GetUserNotifications returns all live notifications for a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

// MarkNotificationAsRead marks one of the user's notifications as read
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, userID, notifID primitive.ObjectID) error {
	if _, err := s.owned(ctx, userID, notifID); err != nil {
		return err
	}
	if err := s.repo.MarkAsRead(ctx, notifID); errors.Is(err, repository.ErrNotFound) {
		return notFound("Notification not found")
	} else if err != nil {
		return err
	}
	return nil
}

// DeleteNotification deletes one of the user's notifications
func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notifID primitive.ObjectID) error {
	if _, err := s.owned(ctx, userID, notifID); err != nil {
		return err
	}
	if err := s.repo.DeleteNotification(ctx, notifID); errors.Is(err, repository.ErrNotFound) {
		return notFound("Notification not found")
	} else if err != nil {
		return err
	}
	return nil
}

func (s *NotificationService) owned(ctx context.Context, userID, notifID primitive.ObjectID) (*models.Notification, error) {
	notif, err := s.repo.GetNotificationByID(ctx, notifID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Notification not found")
	}
	if err != nil {
		return nil, err
	}
	if notif.UserID != userID {
		return nil, unauthorized("Not authorized to modify this notification")
	}
	return notif, nil
}

func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	n, err := s.repo.DeleteExpiredNotifications(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("Deleted %d expired notifications", n)
	return nil
}

// CheckInactiveUsers reminds users idle for InactivityThreshold, at most once
// per threshold window.
func (s *NotificationService) CheckInactiveUsers(ctx context.Context, now time.Time) error {
	users, err := s.users.GetInactiveSince(ctx, now.Add(-InactivityThreshold))
	if err != nil {
		return fmt.Errorf("failed to fetch inactive users: %w", err)
	}

	for _, user := range users {
		existing, err := s.repo.GetLatestNotificationByType(ctx, user.ID, models.NotificationUserInactive)
		if err == nil && existing != nil && now.Sub(existing.CreatedAt) < InactivityThreshold {
			continue
		}

		err = s.Notify(ctx, user.ID, models.NotificationUserInactive,
			"We miss you!",
			"Your friends have been busy. Come back and see what's new on ConnectHub!",
			nil, nil,
		)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to send inactivity notification to user %s", user.ID.Hex())
		}
	}
	return nil
}
