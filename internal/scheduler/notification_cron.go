package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Schedules of the notification jobs.
const (
	CleanupSchedule    = "@daily"
	InactivitySchedule = "0 9 * * *"
)

// NotificationJobs is what the cron jobs run against.
type NotificationJobs interface {
	DeleteExpiredNotifications(ctx context.Context) error
	CheckInactiveUsers(ctx context.Context, now time.Time) error
}

// StartNotificationCronJobs schedules notification cleanup and inactivity
// reminders. Stop the returned cron on shutdown.
func StartNotificationCronJobs(jobs NotificationJobs) (*cron.Cron, error) {
	c := cron.New()

	// Expired notification cleanup
	if _, err := c.AddFunc(CleanupSchedule, func() {
		if err := jobs.DeleteExpiredNotifications(context.Background()); err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	}); err != nil {
		return nil, err
	}

	// Inactive user reminders
	if _, err := c.AddFunc(InactivitySchedule, func() {
		if err := jobs.CheckInactiveUsers(context.Background(), time.Now()); err != nil {
			logrus.WithError(err).Error("CheckInactiveUsers failed")
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	logrus.Info("Notification cron jobs started")
	return c, nil
}
