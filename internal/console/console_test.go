package console

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biferdou/grallix/internal/command"
	"github.com/biferdou/grallix/internal/model"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`task list`, []string{"task", "list"}},
		{`  task   add  "Write report" 2025-01-10 `, []string{"task", "add", "Write report", "2025-01-10"}},
		{`task add 'it''s' x`, []string{"task", "add", "its", "x"}},
		{`task add it\'s x`, []string{"task", "add", "it's", "x"}},
		{`a ""`, []string{"a", ""}},
		{``, nil},
	}
	for _, tt := range tests {
		got, err := tokenize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := tokenize(`task add "open`)
	assert.Error(t, err)
	_, err = tokenize(`task add x\`)
	assert.Error(t, err)
}

func TestParseLine(t *testing.T) {
	req, err := parseLine(`/task add "Write report" 2025-01-10`)
	require.NoError(t, err)
	assert.Equal(t, "task", req.Command)
	assert.Equal(t, "add", req.Subcommand)
	assert.Equal(t, map[string]string{"description": "Write report", "duedate": "2025-01-10"}, req.Options)

	req, err = parseLine(`task add duedate=2025-01-10 "a=b c"`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"description": "a=b c", "duedate": "2025-01-10"}, req.Options)

	req, err = parseLine(`setup weekly=false true`)
	require.NoError(t, err)
	assert.Empty(t, req.Subcommand)
	assert.Equal(t, map[string]string{"standups": "true", "weekly": "false"}, req.Options)

	req, err = parseLine(`time stop`)
	require.NoError(t, err)
	assert.Empty(t, req.Options)

	for _, bad := range []string{"", "deploy", "task", "task rename x", "time stop now", `"unterminated`} {
		_, err := parseLine(bad)
		assert.Error(t, err, bad)
	}
}

type recordingHandler struct {
	got []command.Request
}

func (h *recordingHandler) Handle(_ context.Context, req command.Request) command.Response {
	h.got = append(h.got, req)
	return command.Response{Content: "✅ Task created! ID: 42"}
}

type fixedTimer struct {
	at model.ActiveTimer
}

func (f fixedTimer) Active(userID string) (model.ActiveTimer, bool) {
	return f.at, userID == "u1"
}

func TestModel_SubmitRunsCommand(t *testing.T) {
	h := &recordingHandler{}
	m := New(context.Background(), h, nil, Identity{UserID: "u1", Username: "alice", ChannelID: "c1"})
	m.input.SetValue(`task add "Write report" 2025-01-10`)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	msg := cmd()
	require.IsType(t, responseMsg{}, msg)
	require.Len(t, h.got, 1)
	assert.Equal(t, "u1", h.got[0].UserID)
	assert.Equal(t, "c1", h.got[0].ChannelID)
	assert.True(t, h.got[0].CanManageChannels)

	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.busy)
	assert.Contains(t, strings.Join(m.output, "\n"), "Task created! ID: 42")
}

func TestModel_ParseErrorStaysLocal(t *testing.T) {
	h := &recordingHandler{}
	m := New(context.Background(), h, nil, Identity{UserID: "u1"})
	m.input.SetValue("deploy now")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Empty(t, h.got)
	assert.Contains(t, strings.Join(m.output, "\n"), `unknown command "deploy"`)
}

func TestModel_HistoryRecall(t *testing.T) {
	m := New(context.Background(), &recordingHandler{}, nil, Identity{UserID: "u1"})
	for _, line := range []string{"task list", "time report"} {
		m.input.SetValue(line)
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = next.(Model)
		m.busy = false
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, "time report", m.input.Value())
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, "task list", m.input.Value())
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, next.(Model).input.Value())
}

func TestModel_StatusBarShowsTimer(t *testing.T) {
	start := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
	m := New(context.Background(), &recordingHandler{}, fixedTimer{at: model.ActiveTimer{
		TaskID: "t1", StartTime: start, Description: "Write report",
	}}, Identity{UserID: "u1"})
	m.now = func() time.Time { return start.Add(90 * time.Second) }

	bar := m.statusBar()
	assert.Contains(t, bar, "Write report")
	assert.Contains(t, bar, "0h 1m 30s")
}

func TestRenderEmbed(t *testing.T) {
	e := &command.Embed{
		Title:  "📋 Active Tasks",
		Color:  command.ColorTaskList,
		Fields: []command.Field{{Name: "ID: 1", Value: "**Write report**\nDue: 2025-01-10"}},
		Footer: "…and 2 more",
	}
	out := renderEmbed(e, 80)
	assert.Contains(t, out, "Active Tasks")
	assert.Contains(t, out, "Write report")
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "and 2 more")
}

func TestModel_ViewDrawsDivider(t *testing.T) {
	m := New(context.Background(), &recordingHandler{}, nil, Identity{UserID: "u1", ChannelID: "c1"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	m = next.(Model)

	assert.Equal(t, 15, m.viewport.Height)
	assert.Contains(t, m.View(), strings.Repeat("─", 40))
}
