package command

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/report"
)

// Embed colors.
const (
	ColorTaskList = 0xffaa00
	ColorReport   = 0x33ccff
	ColorSuccess  = 0x00cc88
	ColorStandup  = 0x0099ff
	ColorWeekly   = 0x9966ff
)

// Chat platform limits on rich embeds.
const (
	maxFields     = 25
	maxFieldName  = 256
	maxFieldValue = 1024
)

const (
	unknownUser = "Unknown User"
	dateLayout  = "Jan 2, 2006"
)

// Field is one titled block of an Embed.
type Field struct {
	Name  string
	Value string
}

// Embed is a platform-neutral rich message.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
}

// AddField appends a field, trimming it to the platform limits. Fields
// past the limit are dropped.
func (e *Embed) AddField(name, value string) {
	if len(e.Fields) >= maxFields {
		return
	}
	if name == "" {
		name = "\u200b"
	}
	if value == "" {
		value = "\u200b"
	}
	e.Fields = append(e.Fields, Field{
		Name:  truncate(name, maxFieldName),
		Value: truncate(value, maxFieldValue),
	})
}

// UserResolver looks up a display name for a user id.
type UserResolver interface {
	Username(ctx context.Context, userID string) (string, error)
}

// nameCache resolves each user at most once per reply.
type nameCache struct {
	users  UserResolver
	logger *log.Logger
	names  map[string]string
}

func newNameCache(users UserResolver, logger *log.Logger) *nameCache {
	return &nameCache{users: users, logger: logger, names: map[string]string{}}
}

func (n *nameCache) lookup(ctx context.Context, userID string) string {
	if name, ok := n.names[userID]; ok {
		return name
	}
	name := unknownUser
	if n.users != nil {
		resolved, err := n.users.Username(ctx, userID)
		switch {
		case err != nil:
			n.logger.Printf("resolving user %s: %v", userID, err)
		case resolved != "":
			name = resolved
		}
	}
	n.names[userID] = name
	return name
}

// FormatHMS renders d as "Xh Ym Zs".
func FormatHMS(d time.Duration) string {
	return fmt.Sprintf("%dh %dm %ds", int64(d/time.Hour), int64(d%time.Hour/time.Minute), int64(d%time.Minute/time.Second))
}

// FormatHM renders d as "Xh Ym".
func FormatHM(d time.Duration) string {
	return fmt.Sprintf("%dh %dm", int64(d/time.Hour), int64(d%time.Hour/time.Minute))
}

// TaskListEmbed lists tasks with their assignee and due date.
func TaskListEmbed(ctx context.Context, list []model.Task, names *nameCache) *Embed {
	e := &Embed{
		Title:       "📋 Active Tasks",
		Description: "Here are your active tasks:",
		Color:       ColorTaskList,
	}
	for _, t := range list {
		e.AddField("ID: "+t.ID, fmt.Sprintf("**%s**\nAssigned to: %s\nDue: %s",
			t.Description, names.lookup(ctx, t.UserID), t.DueDate.Format(model.DueDateLayout)))
	}
	if hidden := len(list) - len(e.Fields); hidden > 0 {
		e.Footer = fmt.Sprintf("…and %d more", hidden)
	}
	return e
}

// TimeReportEmbed shows per-task totals and the overall total.
func TimeReportEmbed(username string, r report.TimeReport) *Embed {
	e := &Embed{
		Title:       "⏱️ Time Report",
		Description: "Time report for " + username,
		Color:       ColorReport,
	}

	entries := r.Entries()
	if len(entries) == 0 {
		e.Description = username + " has no time logged."
	}
	for _, tt := range entries {
		e.AddField(tt.Description, "Time logged: "+FormatHM(tt.Total))
	}
	if r.Total > 0 {
		// The total must survive the field limit.
		if len(e.Fields) == maxFields {
			e.Fields = e.Fields[:maxFields-1]
		}
		e.AddField("Total Time", FormatHM(r.Total))
	}
	return e
}

// SetupEmbed confirms a channel configuration change.
func SetupEmbed(channelName string, cs model.ChannelSettings) *Embed {
	if channelName == "" {
		channelName = "this channel"
	}
	e := &Embed{
		Title:       "⚙️ Grallix Configuration",
		Description: "Configuration updated for channel " + channelName,
		Color:       ColorSuccess,
	}

	var enabled, disabled []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"Daily Standups", cs.StandupEnabled},
		{"Weekly Summaries", cs.WeeklySummaryEnabled},
	} {
		if f.on {
			enabled = append(enabled, f.name)
		} else {
			disabled = append(disabled, f.name)
		}
	}
	if len(enabled) > 0 {
		e.AddField("✅ Enabled Features", strings.Join(enabled, "\n"))
	}
	if len(disabled) > 0 {
		e.AddField("❌ Disabled Features", strings.Join(disabled, "\n"))
	}
	return e
}

// StandupPromptEmbed is the daily standup question.
func StandupPromptEmbed() *Embed {
	e := &Embed{
		Title:       "🌞 Daily Standup",
		Description: "What are you working on today?",
		Color:       ColorStandup,
		Footer:      "Grallix will collect responses for the daily summary",
	}
	e.AddField("How to respond", "Reply to this message with your tasks for today")
	return e
}

// StandupSummaryEmbed lists the collected responses of a standup.
func StandupSummaryEmbed(st model.Standup) *Embed {
	e := &Embed{
		Title:       "📋 Daily Standup Summary",
		Description: "Summary for " + st.Date.Format(dateLayout),
		Color:       ColorSuccess,
	}
	for _, r := range st.Responses {
		e.AddField(r.Username, r.Content)
	}
	return e
}

// WeeklySummaryEmbed renders a channel's weekly progress.
func WeeklySummaryEmbed(ctx context.Context, s report.ChannelSummary, users UserResolver, logger *log.Logger) *Embed {
	e := &Embed{
		Title: "📊 Weekly Progress Summary",
		Description: fmt.Sprintf("Summary for week of %s to %s",
			s.WeekStart.Format(dateLayout), s.WeekEnd.Format(dateLayout)),
		Color: ColorWeekly,
	}

	e.AddField("✅ Completed Tasks", bullets(s.Completed, false, "None"))
	e.AddField("🔄 In Progress", bullets(s.InProgress, true, "None"))
	e.AddField("📅 Upcoming Deadlines", bullets(s.Upcoming, true, "None"))

	hours := "No time logged this week"
	if len(s.HoursWorked) > 0 {
		ids := make([]string, 0, len(s.HoursWorked))
		for id := range s.HoursWorked {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		names := newNameCache(users, logger)
		lines := make([]string, 0, len(ids))
		for _, id := range ids {
			lines = append(lines, fmt.Sprintf("- %s: %.1f hours", names.lookup(ctx, id), s.HoursWorked[id]))
		}
		hours = strings.Join(lines, "\n")
	}
	e.AddField("⏱️ Hours Logged", hours)
	return e
}

func bullets(list []model.Task, withDue bool, empty string) string {
	if len(list) == 0 {
		return empty
	}
	lines := make([]string, 0, len(list))
	for _, t := range list {
		if withDue {
			lines = append(lines, fmt.Sprintf("- %s (due: %s)", t.Description, t.DueDate.Format(model.DueDateLayout)))
		} else {
			lines = append(lines, "- "+t.Description)
		}
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const ellipsis = "…"
	cut := n - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
