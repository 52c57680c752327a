package common

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// MinScheduleInterval is the shortest allowed gap between scheduled runs.
// Each run performs a full browser login against the portal.
const MinScheduleInterval = time.Minute

var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a six-field cron expression (seconds first) or a
// descriptor such as "@hourly"
func ParseSchedule(schedule string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched, nil
}

// ValidateSchedule parses the expression and rejects schedules that would
// fire more often than MinScheduleInterval
func ValidateSchedule(schedule string) error {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	// Sample a few consecutive activations; a too-frequent schedule shows up
	// within the first handful.
	t := sched.Next(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 5; i++ {
		next := sched.Next(t)
		if next.IsZero() {
			break
		}
		if gap := next.Sub(t); gap < MinScheduleInterval {
			return fmt.Errorf("schedule fires every %s; minimum interval is %s", gap, MinScheduleInterval)
		}
		t = next
	}
	return nil
}
