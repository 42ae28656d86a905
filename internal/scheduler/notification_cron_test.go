package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJobs struct{}

func (noopJobs) DeleteExpiredNotifications(context.Context) error { return nil }
func (noopJobs) CheckInactiveUsers(context.Context, time.Time) error { return nil }

func TestStartNotificationCronJobs(t *testing.T) {
	c, err := StartNotificationCronJobs(noopJobs{})
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 2)
}

func TestSchedulesParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	from := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	daily, err := parser.Parse(CleanupSchedule)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), daily.Next(from))

	morning, err := parser.Parse(InactivitySchedule)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), morning.Next(from))
}
