// Package console is a terminal front end that runs chat commands
// locally, as a fixed user in a fixed channel.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/biferdou/grallix/internal/command"
	"github.com/biferdou/grallix/internal/keys"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/theme"
)

// Identity is who the console acts as.
type Identity struct {
	UserID      string
	Username    string
	ChannelID   string
	ChannelName string
}

// Handler runs a command request.
type Handler interface {
	Handle(ctx context.Context, req command.Request) command.Response
}

// TimerView reports a user's running timer.
type TimerView interface {
	Active(userID string) (model.ActiveTimer, bool)
}

// responseMsg carries a command's reply back to the UI.
type responseMsg struct {
	resp command.Response
}

// tickMsg refreshes the running timer display.
type tickMsg time.Time

// Model is the root Bubble Tea model of the console.
type Model struct {
	ctx      context.Context
	handler  Handler
	timers   TimerView
	identity Identity
	now      func() time.Time

	keys     *keys.KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model

	output  []string
	history []string
	histPos int
	busy    bool
	width   int
	height  int
}

// New creates a console model that sends commands to h.
func New(ctx context.Context, h Handler, timers TimerView, id Identity) Model {
	ti := textinput.New()
	ti.Placeholder = `task add "Write report" 2025-01-10`
	ti.Prompt = "/"
	ti.Focus()
	ti.Width = 74

	vp := viewport.New(80, 20)

	m := Model{
		ctx:      ctx,
		handler:  h,
		timers:   timers,
		identity: id,
		now:      time.Now,
		keys:     keys.DefaultKeyMap(),
		help:     help.New(),
		input:    ti,
		viewport: vp,
		width:    80,
		height:   24,
	}
	m.appendOutput(theme.HelpStyle.Render("Commands: task add|list|complete, time start|stop|report, setup"))
	return m
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages for the console.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-5, 1)
		m.refresh()
		return m, nil

	case tickMsg:
		return m, tick()

	case responseMsg:
		m.busy = false
		m.appendOutput(renderResponse(msg.resp, m.width))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Prev):
			m.recall(-1)
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.recall(1)
			return m, nil
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" || m.busy {
		return m, nil
	}

	m.history = append(m.history, line)
	m.histPos = len(m.history)
	m.appendOutput(theme.PromptStyle.Render("> /" + line))

	req, err := parseLine(line)
	if err != nil {
		m.appendOutput(theme.ErrorStyle.Render("❌ " + err.Error()))
		return m, nil
	}
	req.UserID = m.identity.UserID
	req.Username = m.identity.Username
	req.ChannelID = m.identity.ChannelID
	req.ChannelName = m.identity.ChannelName
	req.CanManageChannels = true

	m.busy = true
	ctx, h := m.ctx, m.handler
	return m, func() tea.Msg {
		return responseMsg{resp: h.Handle(ctx, req)}
	}
}

func (m *Model) recall(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.histPos = min(max(m.histPos+delta, 0), len(m.history))
	if m.histPos == len(m.history) {
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.histPos])
	m.input.CursorEnd()
}

func (m *Model) appendOutput(block string) {
	m.output = append(m.output, block)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.output, "\n"))
	m.viewport.GotoBottom()
}

// View renders the console.
func (m Model) View() string {
	header := theme.HeaderStyle.Width(m.width).Render(
		fmt.Sprintf("grallix console · %s in %s", m.identity.Username, m.channelLabel()))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		theme.DividerStyle.Render(strings.Repeat("─", max(m.width, 1))),
		m.input.View(),
		m.statusBar(),
	)
}

func (m Model) channelLabel() string {
	if m.identity.ChannelName != "" {
		return m.identity.ChannelName
	}
	return m.identity.ChannelID
}

func (m Model) statusBar() string {
	left := theme.StatusBarStyle.Render("no timer running")
	if m.timers != nil {
		if at, ok := m.timers.Active(m.identity.UserID); ok {
			elapsed := m.now().Sub(at.StartTime).Truncate(time.Second)
			left = theme.TimerStyle.Render(fmt.Sprintf("⏱ %s · %s", at.Description, command.FormatHMS(elapsed)))
		}
	}
	right := m.help.View(m.keys)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderResponse formats a reply for the terminal.
func renderResponse(resp command.Response, width int) string {
	var parts []string
	if resp.Content != "" {
		if strings.HasPrefix(resp.Content, "❌") {
			parts = append(parts, theme.ErrorStyle.Render(resp.Content))
		} else {
			parts = append(parts, resp.Content)
		}
	}
	if resp.Embed != nil {
		parts = append(parts, renderEmbed(resp.Embed, width))
	}
	return strings.Join(parts, "\n")
}

func renderEmbed(e *command.Embed, width int) string {
	lines := []string{theme.EmbedTitleStyle(e.Color).Render(e.Title)}
	if e.Description != "" {
		lines = append(lines, e.Description)
	}
	for _, f := range e.Fields {
		lines = append(lines, "", theme.FieldNameStyle.Render(f.Name), strings.ReplaceAll(f.Value, "**", ""))
	}
	if e.Footer != "" {
		lines = append(lines, "", theme.HelpStyle.Render(e.Footer))
	}
	style := theme.EmbedStyle(e.Color)
	if width > 4 {
		style = style.Width(width - 4)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// Run starts the console and blocks until the user quits.
func Run(ctx context.Context, h Handler, timers TimerView, id Identity) error {
	p := tea.NewProgram(New(ctx, h, timers, id), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}
