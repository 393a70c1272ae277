// Package report aggregates time logs and tasks into per-user time
// reports and weekly channel summaries.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/store"
)

// UnknownTask labels time logged against a task that no longer resolves.
const UnknownTask = "Unknown Task"

// TaskTime is the time a user logged against one task.
type TaskTime struct {
	TaskID      string
	Description string
	Total       time.Duration
}

// TimeReport is one user's logged time in one channel.
type TimeReport struct {
	TaskTimes map[string]TaskTime
	Total     time.Duration
}

// Entries returns the per-task totals, longest first. Ties are broken by
// task id so the order is stable.
func (r TimeReport) Entries() []TaskTime {
	out := make([]TaskTime, 0, len(r.TaskTimes))
	for _, tt := range r.TaskTimes {
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

// BuildTimeReport sums the logs of userID in channelID per task.
// Descriptions come from tasks as they are now.
func BuildTimeReport(logs []model.TimeLog, tasks []model.Task, channelID, userID string) TimeReport {
	report := TimeReport{TaskTimes: map[string]TaskTime{}}

	for _, l := range logs {
		if l.ChannelID != channelID || l.UserID != userID {
			continue
		}
		tt, ok := report.TaskTimes[l.TaskID]
		if !ok {
			tt = TaskTime{TaskID: l.TaskID, Description: describe(tasks, l.TaskID)}
		}
		tt.Total += l.Elapsed()
		report.TaskTimes[l.TaskID] = tt
		report.Total += l.Elapsed()
	}
	return report
}

func describe(tasks []model.Task, id string) string {
	for _, t := range tasks {
		if t.ID == id {
			return t.Description
		}
	}
	return UnknownTask
}

// Aggregator reads the collections it reports on.
type Aggregator struct {
	c *store.Collections
}

func NewAggregator(c *store.Collections) *Aggregator {
	return &Aggregator{c: c}
}

// TimeReport builds the report for userID in channelID.
func (a *Aggregator) TimeReport(ctx context.Context, channelID, userID string) (TimeReport, error) {
	logs, err := a.c.TimeLogs(ctx)
	if err != nil {
		return TimeReport{}, fmt.Errorf("reading time logs: %w", err)
	}
	tasks, err := a.c.Tasks(ctx)
	if err != nil {
		return TimeReport{}, fmt.Errorf("reading tasks: %w", err)
	}
	return BuildTimeReport(logs.Logs, tasks.Tasks, channelID, userID), nil
}

// WeeklySummary builds the summary of every channel with weekly
// summaries enabled, as of now.
func (a *Aggregator) WeeklySummary(ctx context.Context, now time.Time) ([]ChannelSummary, error) {
	settings, err := a.c.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	tasks, err := a.c.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}
	logs, err := a.c.TimeLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading time logs: %w", err)
	}
	return WeeklySummary(settings, tasks.Tasks, logs.Logs, now), nil
}
