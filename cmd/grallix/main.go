package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/biferdou/grallix/internal/clock"
	"github.com/biferdou/grallix/internal/command"
	"github.com/biferdou/grallix/internal/console"
	"github.com/biferdou/grallix/internal/credential"
	"github.com/biferdou/grallix/internal/discord"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/report"
	"github.com/biferdou/grallix/internal/schedule"
	"github.com/biferdou/grallix/internal/store"
	"github.com/biferdou/grallix/internal/tasks"
	"github.com/biferdou/grallix/internal/timer"
)

type options struct {
	configPath string
	setup      bool
	console    bool
	userID     string
	username   string
	channelID  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "path to config file")
	flag.BoolVar(&opts.setup, "init", false, "run the interactive setup wizard")
	flag.BoolVar(&opts.console, "console", false, "run commands in a local terminal instead of Discord")
	flag.StringVar(&opts.userID, "user", "local", "console: user id to act as")
	flag.StringVar(&opts.username, "username", "", "console: display name (defaults to $USER)")
	flag.StringVar(&opts.channelID, "channel", "console", "console: channel id to act in")
	flag.Parse()

	if opts.setup {
		if err := runInit(opts.configPath); err != nil {
			fmt.Fprintln(os.Stderr, "init failed:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts); err != nil {
		log.Fatalf("grallix: %v", err)
	}
}

// core holds the components shared by every front end.
type core struct {
	c       *store.Collections
	clock   clock.Clock
	tasks   *tasks.Registry
	timer   *timer.Engine
	reports *report.Aggregator
}

func run(opts options) error {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Database.Backend, err)
	}
	c := store.NewCollections(backend)
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("closing store: %v", err)
		}
	}()

	clk := clock.Real{}
	reg := tasks.NewRegistry(c, clk)
	k := core{
		c:       c,
		clock:   clk,
		tasks:   reg,
		timer:   timer.NewEngine(reg, c, clk),
		reports: report.NewAggregator(c),
	}

	if opts.console {
		return runConsole(ctx, k, opts)
	}
	return runBot(ctx, k, cfg)
}

func runBot(ctx context.Context, k core, cfg *model.AppConfig) error {
	logger := log.Default()

	token, err := credential.DiscordToken()
	if err != nil {
		return fmt.Errorf("loading discord token (run with -init to store one): %w", err)
	}

	bot, err := discord.New(token, cfg.Discord.GuildID, logger)
	if err != nil {
		return err
	}

	d := command.NewDispatcher(k.tasks, k.timer, k.reports, k.c, bot, logger)
	windows := schedule.NewWindows(k.c, k.clock, cfg.Scheduler.StandupWindow(), logger)
	bot.Attach(d, windows)

	sched, err := schedule.New(cfg.Scheduler, k.c, k.reports, windows, bot, k.clock, logger)
	if err != nil {
		return err
	}

	if err := bot.Open(ctx); err != nil {
		return err
	}
	sched.Start(ctx)
	log.Printf("grallix running with %s store; press Ctrl+C to stop", cfg.Database.Backend)

	<-ctx.Done()
	log.Printf("shutting down")

	sched.Stop()
	return bot.Close()
}

// staticUsers resolves the console's single user.
type staticUsers map[string]string

func (s staticUsers) Username(_ context.Context, id string) (string, error) {
	if name, ok := s[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("user %s is not known to the console", id)
}

func runConsole(ctx context.Context, k core, opts options) error {
	username := opts.username
	if username == "" {
		username = os.Getenv("USER")
	}
	if username == "" {
		username = opts.userID
	}

	// The terminal belongs to the UI; logs go to a file.
	logFile, err := tea.LogToFile(filepath.Join(os.TempDir(), "grallix-console.log"), "grallix")
	if err != nil {
		return fmt.Errorf("opening console log: %w", err)
	}
	defer logFile.Close()

	d := command.NewDispatcher(k.tasks, k.timer, k.reports, k.c, staticUsers{opts.userID: username}, log.Default())
	return console.Run(ctx, d, k.timer, console.Identity{
		UserID:    opts.userID,
		Username:  username,
		ChannelID: opts.channelID,
	})
}
