package command

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/biferdou/grallix/internal/apperr"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/report"
	"github.com/biferdou/grallix/internal/store"
	"github.com/biferdou/grallix/internal/tasks"
	"github.com/biferdou/grallix/internal/timer"
)

// genericFailure is the reply for errors that are not the user's fault.
const genericFailure = "There was an error while executing this command!"

// Request is a parsed command invocation.
type Request struct {
	Command    string
	Subcommand string

	// Options holds option values by name. Booleans are "true"/"false".
	Options map[string]string

	ChannelID   string
	ChannelName string
	UserID      string
	Username    string

	// CanManageChannels is set when the caller may change channel settings.
	CanManageChannels bool
}

// Response is the reply to a Request.
type Response struct {
	Content   string
	Embed     *Embed
	Ephemeral bool
}

// Dispatcher routes requests to the core components.
type Dispatcher struct {
	tasks   *tasks.Registry
	timer   *timer.Engine
	reports *report.Aggregator
	c       *store.Collections
	users   UserResolver
	logger  *log.Logger
}

func NewDispatcher(
	reg *tasks.Registry,
	engine *timer.Engine,
	reports *report.Aggregator,
	c *store.Collections,
	users UserResolver,
	logger *log.Logger,
) *Dispatcher {
	return &Dispatcher{
		tasks:   reg,
		timer:   engine,
		reports: reports,
		c:       c,
		users:   users,
		logger:  logger,
	}
}

// Handle runs req and returns the reply. It never fails: user errors
// become their message, anything else is logged and reported generically.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	resp, err := d.route(ctx, req)
	if err == nil {
		return resp
	}
	if e, ok := apperr.As(err); ok {
		return Response{Content: "❌ " + e.Message, Ephemeral: true}
	}
	d.logger.Printf("command %s: %v", req.name(), err)
	return Response{Content: genericFailure, Ephemeral: true}
}

func (d *Dispatcher) route(ctx context.Context, req Request) (Response, error) {
	if _, ok := Lookup(req.Command, req.Subcommand); !ok {
		return Response{}, apperr.Validationf("Unknown command %q.", req.name())
	}

	switch req.name() {
	case "task add":
		return d.addTask(ctx, req)
	case "task list":
		return d.listTasks(ctx, req)
	case "task complete":
		return d.completeTask(ctx, req)
	case "time start":
		return d.startTimer(ctx, req)
	case "time stop":
		return d.stopTimer(ctx, req)
	case "time report":
		return d.timeReport(ctx, req)
	case "setup":
		return d.setup(ctx, req)
	}
	return Response{}, apperr.Validationf("Unknown command %q.", req.name())
}

func (d *Dispatcher) addTask(ctx context.Context, req Request) (Response, error) {
	description, err := req.require("description")
	if err != nil {
		return Response{}, err
	}
	raw, err := req.require("duedate")
	if err != nil {
		return Response{}, err
	}
	due, err := tasks.ParseDueDate(raw)
	if err != nil {
		return Response{}, err
	}

	id, err := d.tasks.Add(ctx, req.ChannelID, req.UserID, description, due)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: "✅ Task created! ID: " + id, Ephemeral: true}, nil
}

func (d *Dispatcher) listTasks(ctx context.Context, req Request) (Response, error) {
	list, err := d.tasks.List(ctx, req.ChannelID, "")
	if err != nil {
		return Response{}, err
	}
	if len(list) == 0 {
		return Response{Content: "No active tasks found.", Ephemeral: true}, nil
	}

	names := newNameCache(d.users, d.logger)
	return Response{Embed: TaskListEmbed(ctx, list, names)}, nil
}

func (d *Dispatcher) completeTask(ctx context.Context, req Request) (Response, error) {
	id, err := req.require("taskid")
	if err != nil {
		return Response{}, err
	}
	ok, err := d.tasks.Complete(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if !ok {
		return Response{Content: "❌ Task not found. Check the task ID and try again.", Ephemeral: true}, nil
	}
	return Response{Content: "✅ Task marked as completed!", Ephemeral: true}, nil
}

func (d *Dispatcher) startTimer(ctx context.Context, req Request) (Response, error) {
	id, err := req.require("taskid")
	if err != nil {
		return Response{}, err
	}
	task, err := d.timer.Start(ctx, req.ChannelID, req.UserID, id)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: "⏱️ Timer started for task: " + describeTask(task.Description), Ephemeral: true}, nil
}

func (d *Dispatcher) stopTimer(ctx context.Context, req Request) (Response, error) {
	res, err := d.timer.Stop(ctx, req.UserID)
	if err != nil {
		return Response{}, err
	}
	content := fmt.Sprintf("⏱️ Timer stopped for task: %s\nTime logged: %s",
		describeTask(res.Description), FormatHMS(res.Duration))
	return Response{Content: content, Ephemeral: true}, nil
}

func (d *Dispatcher) timeReport(ctx context.Context, req Request) (Response, error) {
	r, err := d.reports.TimeReport(ctx, req.ChannelID, req.UserID)
	if err != nil {
		return Response{}, err
	}
	return Response{Embed: TimeReportEmbed(req.Username, r)}, nil
}

func (d *Dispatcher) setup(ctx context.Context, req Request) (Response, error) {
	if !req.CanManageChannels {
		return Response{
			Content:   `❌ You need the "Manage Channels" permission to configure Grallix.`,
			Ephemeral: true,
		}, nil
	}

	standups, err := req.requireBool("standups")
	if err != nil {
		return Response{}, err
	}
	weekly, err := req.requireBool("weekly")
	if err != nil {
		return Response{}, err
	}

	cs := model.ChannelSettings{StandupEnabled: standups, WeeklySummaryEnabled: weekly}
	err = d.c.UpdateSettings(ctx, func(s *model.Settings) error {
		s.Channels[req.ChannelID] = cs
		return nil
	})
	if err != nil {
		return Response{}, fmt.Errorf("saving channel settings: %w", err)
	}
	return Response{Embed: SetupEmbed(req.ChannelName, cs)}, nil
}

func (r Request) name() string {
	if r.Subcommand == "" {
		return r.Command
	}
	return r.Command + " " + r.Subcommand
}

func (r Request) require(name string) (string, error) {
	v := strings.TrimSpace(r.Options[name])
	if v == "" {
		return "", apperr.Validationf("Missing required option %q.", name)
	}
	return v, nil
}

func (r Request) requireBool(name string) (bool, error) {
	v, err := r.require(name)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.Validationf("Option %q must be true or false.", name)
	}
	return b, nil
}

func describeTask(description string) string {
	if description == "" {
		return report.UnknownTask
	}
	return description
}
