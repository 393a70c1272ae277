package report

import (
	"sort"
	"time"

	"github.com/biferdou/grallix/internal/model"
)

// ChannelSummary is the weekly progress payload for one channel.
type ChannelSummary struct {
	ChannelID string
	WeekStart time.Time
	WeekEnd   time.Time

	Completed  []model.Task
	InProgress []model.Task
	Upcoming   []model.Task

	// HoursWorked maps user ids to hours logged this week.
	HoursWorked map[string]float64
}

// WeekRange returns Monday 00:00:00.000 and Friday 23:59:59.999 of the
// week containing now, in now's location. Weekends belong to the week
// that started on the preceding Monday.
func WeekRange(now time.Time) (start, end time.Time) {
	offset := (int(now.Weekday()) + 6) % 7 // days since Monday
	y, m, d := now.Date()
	start = time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	end = time.Date(y, m, d-offset+4, 23, 59, 59, int(999*time.Millisecond), now.Location())
	return start, end
}

// WeeklySummary computes a ChannelSummary for every channel with weekly
// summaries enabled, ordered by channel id.
func WeeklySummary(settings model.Settings, tasks []model.Task, logs []model.TimeLog, now time.Time) []ChannelSummary {
	start, end := WeekRange(now)
	upcomingEnd := end.AddDate(0, 0, 7)

	ids := make([]string, 0, len(settings.Channels))
	for id, cs := range settings.Channels {
		if cs.WeeklySummaryEnabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]ChannelSummary, 0, len(ids))
	for _, channelID := range ids {
		s := ChannelSummary{
			ChannelID:   channelID,
			WeekStart:   start,
			WeekEnd:     end,
			Completed:   []model.Task{},
			InProgress:  []model.Task{},
			Upcoming:    []model.Task{},
			HoursWorked: map[string]float64{},
		}

		for _, t := range tasks {
			if t.ChannelID != channelID {
				continue
			}
			if t.CompletedBetween(start, end) {
				s.Completed = append(s.Completed, t)
			}
			if t.Completed {
				continue
			}
			s.InProgress = append(s.InProgress, t)
			if t.DueDate.After(end) && !t.DueDate.After(upcomingEnd) {
				s.Upcoming = append(s.Upcoming, t)
			}
		}

		for _, l := range logs {
			if l.ChannelID != channelID || l.StartTime.Before(start) || l.StartTime.After(end) {
				continue
			}
			s.HoursWorked[l.UserID] += float64(l.Duration) / float64(time.Hour/time.Millisecond)
		}

		out = append(out, s)
	}
	return out
}
