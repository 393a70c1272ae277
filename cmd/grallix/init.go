package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/robfig/cron/v3"

	"github.com/biferdou/grallix/internal/credential"
	"github.com/biferdou/grallix/internal/model"
)

// runInit walks through the configuration interactively and writes it
// to path. The bot token goes to the keyring, never to the file.
func runInit(path string) error {
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return err
	}

	var token string
	window := strconv.Itoa(cfg.Scheduler.StandupWindowSec)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage backend").
				Description("Where tasks, time logs and standups are kept").
				Options(
					huh.NewOption("JSON files - a directory of .json collections", model.BackendFile),
					huh.NewOption("SQLite - a single local database file", model.BackendSQLite),
					huh.NewOption("MongoDB - a shared database server", model.BackendMongo),
					huh.NewOption("Memory - nothing is saved (testing only)", model.BackendMemory),
				).
				Value(&cfg.Database.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Data directory").
				Value(&cfg.Database.Path).
				Validate(validateRequired("Data directory")),
		).WithHideFunc(func() bool { return cfg.Database.Backend != model.BackendFile }),
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite database file").
				Value(&cfg.Database.SQLitePath).
				Validate(validateRequired("Database file")),
		).WithHideFunc(func() bool { return cfg.Database.Backend != model.BackendSQLite }),
		huh.NewGroup(
			huh.NewInput().
				Title("MongoDB URI").
				Placeholder("mongodb://localhost:27017").
				Value(&cfg.Database.MongoURI).
				Validate(validateMongoURI),
			huh.NewInput().
				Title("Database name").
				Value(&cfg.Database.MongoDatabase).
				Validate(validateRequired("Database name")),
		).WithHideFunc(func() bool { return cfg.Database.Backend != model.BackendMongo }),
		huh.NewGroup(
			huh.NewInput().
				Title("Daily standup schedule").
				Description("Cron expression (minute hour day month weekday)").
				Value(&cfg.Scheduler.DailyStandup).
				Validate(validateCron),
			huh.NewInput().
				Title("Weekly summary schedule").
				Value(&cfg.Scheduler.WeeklySummary).
				Validate(validateCron),
			huh.NewInput().
				Title("Standup reply window (seconds)").
				Value(&window).
				Validate(validatePositive),
			huh.NewInput().
				Title("Timezone").
				Description(`IANA name such as "Europe/Paris", or "Local"`).
				Value(&cfg.Scheduler.Timezone).
				Validate(validateTimezone),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Discord server ID").
				Description("Registers commands on one server instantly; leave empty to register globally").
				Value(&cfg.Discord.GuildID),
			huh.NewInput().
				Title("Discord bot token").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(os.Stderr, "aborted, nothing saved")
			return nil
		}
		return err
	}

	cfg.Scheduler.StandupWindowSec, _ = strconv.Atoi(strings.TrimSpace(window))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := model.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Println("wrote", path)

	if token = strings.TrimSpace(token); token != "" {
		if err := credential.Set(credential.DiscordTokenKey, token); err != nil {
			return err
		}
		fmt.Println("stored bot token in the system keyring")
	}
	return nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateMongoURI(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "mongodb://") && !strings.HasPrefix(s, "mongodb+srv://") {
		return fmt.Errorf("URI must start with mongodb:// or mongodb+srv://")
	}
	return nil
}

func validateCron(s string) error {
	if _, err := cron.ParseStandard(s); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number of seconds")
	}
	return nil
}

func validateTimezone(s string) error {
	if s == "" || s == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}
