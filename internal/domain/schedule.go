package domain

import "fmt"

// ScheduleKind distinguishes the two ways a chat can receive reports.
type ScheduleKind int

const (
	KindDaily ScheduleKind = iota + 1
	KindInterval
)

func (k ScheduleKind) String() string {
	switch k {
	case KindDaily:
		return "daily"
	case KindInterval:
		return "interval"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TimeOfDay is a wall-clock time without date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String returns HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CronSpec returns a standard 5-field spec firing every day at t.
func (t TimeOfDay) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// DailySchedule is the per-chat fixed-time configuration.
// An enabled schedule must have an armed daily timer.
type DailySchedule struct {
	ChatID     int64
	NotifyTime TimeOfDay
	Enabled    bool
}

// IntervalSchedule is the per-chat fixed-interval configuration.
type IntervalSchedule struct {
	ChatID  int64
	Minutes int
	Enabled bool
}
