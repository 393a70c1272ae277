package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biferdou/grallix/internal/clock"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/report"
	"github.com/biferdou/grallix/internal/store"
	"github.com/biferdou/grallix/internal/tasks"
	"github.com/biferdou/grallix/internal/timer"
	"github.com/biferdou/grallix/tests/testutil"
)

type fakeUsers map[string]string

func (f fakeUsers) Username(_ context.Context, id string) (string, error) {
	if name, ok := f[id]; ok {
		return name, nil
	}
	return "", errors.New("unknown member")
}

type harness struct {
	d      *Dispatcher
	clk    *clock.Fake
	c      *store.Collections
	logBuf *bytes.Buffer
}

func newHarness(t *testing.T, c *store.Collections) harness {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	reg := tasks.NewRegistry(c, clk)
	buf := &bytes.Buffer{}
	d := NewDispatcher(
		reg,
		timer.NewEngine(reg, c, clk),
		report.NewAggregator(c),
		c,
		fakeUsers{"u1": "alice"},
		log.New(buf, "", 0),
	)
	return harness{d: d, clk: clk, c: c, logBuf: buf}
}

func req(cmd, sub string, opts map[string]string) Request {
	return Request{
		Command:    cmd,
		Subcommand: sub,
		Options:    opts,
		ChannelID:  "c1",
		UserID:     "u1",
		Username:   "alice",
	}
}

func TestEndToEnd_WriteReport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testutil.NewTestCollections(t))

	resp := h.d.Handle(ctx, req("task", "add", map[string]string{
		"description": "Write report",
		"duedate":     "2025-01-10",
	}))
	require.True(t, strings.HasPrefix(resp.Content, "✅ Task created! ID: "), resp.Content)
	assert.True(t, resp.Ephemeral)
	id := strings.TrimPrefix(resp.Content, "✅ Task created! ID: ")

	resp = h.d.Handle(ctx, req("task", "list", nil))
	require.NotNil(t, resp.Embed)
	require.Len(t, resp.Embed.Fields, 1)
	assert.Equal(t, "ID: "+id, resp.Embed.Fields[0].Name)
	assert.Equal(t, "**Write report**\nAssigned to: alice\nDue: 2025-01-10", resp.Embed.Fields[0].Value)

	resp = h.d.Handle(ctx, req("time", "start", map[string]string{"taskid": id}))
	assert.Equal(t, "⏱️ Timer started for task: Write report", resp.Content)

	h.clk.Advance(5000 * time.Millisecond)
	resp = h.d.Handle(ctx, req("time", "stop", nil))
	assert.Equal(t, "⏱️ Timer stopped for task: Write report\nTime logged: 0h 0m 5s", resp.Content)

	r, err := report.NewAggregator(h.c).TimeReport(ctx, "c1", "u1")
	require.NoError(t, err)
	require.Len(t, r.TaskTimes, 1)
	assert.Equal(t, "Write report", r.TaskTimes[id].Description)
	assert.Equal(t, 5000*time.Millisecond, r.TaskTimes[id].Total)
	assert.Equal(t, 5000*time.Millisecond, r.Total)

	resp = h.d.Handle(ctx, req("time", "report", nil))
	require.NotNil(t, resp.Embed)
	assert.Equal(t, []Field{
		{Name: "Write report", Value: "Time logged: 0h 0m"},
		{Name: "Total Time", Value: "0h 0m"},
	}, resp.Embed.Fields)

	resp = h.d.Handle(ctx, req("task", "complete", map[string]string{"taskid": id}))
	assert.Equal(t, "✅ Task marked as completed!", resp.Content)

	resp = h.d.Handle(ctx, req("task", "list", nil))
	assert.Nil(t, resp.Embed)
	assert.Equal(t, "No active tasks found.", resp.Content)
}

func TestHandle_UserErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, store.NewCollections(store.NewMemoryStore()))

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"bad date", req("task", "add", map[string]string{"description": "x", "duedate": "soon"}),
			"❌ Invalid date format. Please use YYYY-MM-DD."},
		{"missing option", req("task", "add", map[string]string{"duedate": "2025-01-10"}),
			`❌ Missing required option "description".`},
		{"unknown task", req("task", "complete", map[string]string{"taskid": "nope"}),
			"❌ Task not found. Check the task ID and try again."},
		{"start unknown", req("time", "start", map[string]string{"taskid": "nope"}),
			"❌ Task not found"},
		{"stop idle", req("time", "stop", nil), "❌ No active timer found"},
		{"unknown command", req("deploy", "", nil), `❌ Unknown command "deploy".`},
		{"setup without permission", req("setup", "", map[string]string{"standups": "true", "weekly": "true"}),
			`❌ You need the "Manage Channels" permission to configure Grallix.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.d.Handle(ctx, tt.req)
			assert.Equal(t, tt.want, resp.Content)
			assert.True(t, resp.Ephemeral)
		})
	}
	assert.Empty(t, h.logBuf.String())
}

func TestHandle_DoubleStart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, store.NewCollections(store.NewMemoryStore()))

	resp := h.d.Handle(ctx, req("task", "add", map[string]string{"description": "x", "duedate": "2025-01-10"}))
	id := strings.TrimPrefix(resp.Content, "✅ Task created! ID: ")

	h.d.Handle(ctx, req("time", "start", map[string]string{"taskid": id}))
	resp = h.d.Handle(ctx, req("time", "start", map[string]string{"taskid": id}))
	assert.Equal(t, "❌ You already have an active timer", resp.Content)
}

func TestHandle_Setup(t *testing.T) {
	ctx := context.Background()
	c := store.NewCollections(store.NewMemoryStore())
	h := newHarness(t, c)

	r := req("setup", "", map[string]string{"standups": "true", "weekly": "false"})
	r.CanManageChannels = true
	r.ChannelName = "#general"

	resp := h.d.Handle(ctx, r)
	require.NotNil(t, resp.Embed)
	assert.Equal(t, "Configuration updated for channel #general", resp.Embed.Description)
	assert.Equal(t, []Field{
		{Name: "✅ Enabled Features", Value: "Daily Standups"},
		{Name: "❌ Disabled Features", Value: "Weekly Summaries"},
	}, resp.Embed.Fields)

	settings, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelSettings{StandupEnabled: true}, settings.Channel("c1"))

	r.Options["weekly"] = "maybe"
	resp = h.d.Handle(ctx, r)
	assert.Equal(t, `❌ Option "weekly" must be true or false.`, resp.Content)
}

// brokenStore fails every read.
type brokenStore struct {
	*store.MemoryStore
}

func (brokenStore) ReadTasks(context.Context) (store.TaskData, error) {
	return store.TaskData{}, errors.New("disk on fire")
}

func TestHandle_StoreErrorIsGeneric(t *testing.T) {
	h := newHarness(t, store.NewCollections(brokenStore{store.NewMemoryStore()}))

	resp := h.d.Handle(context.Background(), req("task", "list", nil))
	assert.Equal(t, genericFailure, resp.Content)
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, h.logBuf.String(), "disk on fire")
}

func TestTaskList_UnknownUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, store.NewCollections(store.NewMemoryStore()))

	r := req("task", "add", map[string]string{"description": "x", "duedate": "2025-01-10"})
	r.UserID = "ghost"
	h.d.Handle(ctx, r)

	resp := h.d.Handle(ctx, req("task", "list", nil))
	require.NotNil(t, resp.Embed)
	assert.Contains(t, resp.Embed.Fields[0].Value, "Assigned to: Unknown User")
}

func TestTaskListEmbed_CapsFields(t *testing.T) {
	list := make([]model.Task, 30)
	for i := range list {
		list[i] = model.Task{ID: fmt.Sprint(i), Description: "t"}
	}
	e := TaskListEmbed(context.Background(), list, newNameCache(nil, log.Default()))
	assert.Len(t, e.Fields, maxFields)
	assert.Equal(t, "…and 5 more", e.Footer)
}

func TestTimeReportEmbed_Empty(t *testing.T) {
	e := TimeReportEmbed("alice", report.BuildTimeReport(nil, nil, "c1", "u1"))
	assert.Equal(t, "alice has no time logged.", e.Description)
	assert.Empty(t, e.Fields)
}

func TestFormatDurations(t *testing.T) {
	d := 2*time.Hour + 3*time.Minute + 4*time.Second + 500*time.Millisecond
	assert.Equal(t, "2h 3m 4s", FormatHMS(d))
	assert.Equal(t, "2h 3m", FormatHM(d))
	assert.Equal(t, "0h 0m 0s", FormatHMS(0))
}

func TestWeeklySummaryEmbed(t *testing.T) {
	start, end := report.WeekRange(time.Date(2025, 1, 10, 16, 0, 0, 0, time.UTC))
	s := report.ChannelSummary{
		ChannelID:   "c1",
		WeekStart:   start,
		WeekEnd:     end,
		Completed:   []model.Task{{Description: "Ship"}},
		InProgress:  []model.Task{{Description: "Write", DueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)}},
		Upcoming:    []model.Task{},
		HoursWorked: map[string]float64{"u1": 1.25, "u9": 3},
	}

	e := WeeklySummaryEmbed(context.Background(), s, fakeUsers{"u1": "alice"}, log.New(&bytes.Buffer{}, "", 0))
	assert.Equal(t, "Summary for week of Jan 6, 2025 to Jan 10, 2025", e.Description)
	assert.Equal(t, []Field{
		{Name: "✅ Completed Tasks", Value: "- Ship"},
		{Name: "🔄 In Progress", Value: "- Write (due: 2025-01-15)"},
		{Name: "📅 Upcoming Deadlines", Value: "None"},
		{Name: "⏱️ Hours Logged", Value: "- alice: 1.2 hours\n- Unknown User: 3.0 hours"},
	}, e.Fields)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	out := truncate(strings.Repeat("é", 10), 9)
	assert.LessOrEqual(t, len(out), 9)
	assert.True(t, strings.HasSuffix(out, "…"))
}
