// Package schedule runs the daily standup and weekly summary jobs and
// collects standup replies.
package schedule

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/biferdou/grallix/internal/clock"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/report"
	"github.com/biferdou/grallix/internal/store"
)

// Poster publishes scheduled messages to channels.
type Poster interface {
	// PostStandupPrompt posts the prompt and returns its message id.
	PostStandupPrompt(ctx context.Context, channelID string) (string, error)
	PostStandupSummary(ctx context.Context, standup model.Standup) error
	PostWeeklySummary(ctx context.Context, summary report.ChannelSummary) error
}

// StandupChannels returns the ids of channels with standups enabled,
// sorted.
func StandupChannels(settings model.Settings) []string {
	ids := []string{}
	for id, cs := range settings.Channels {
		if cs.StandupEnabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Scheduler fires the scheduled jobs on their cron expressions.
type Scheduler struct {
	cron    *cron.Cron
	c       *store.Collections
	agg     *report.Aggregator
	windows *Windows
	poster  Poster
	clock   clock.Clock
	loc     *time.Location
	logger  *log.Logger

	mu      sync.Mutex
	ctx     context.Context
	running bool
}

// New parses the configured expressions and registers both jobs.
func New(
	cfg model.SchedulerConfig,
	c *store.Collections,
	agg *report.Aggregator,
	windows *Windows,
	poster Poster,
	clk clock.Clock,
	logger *log.Logger,
) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		c:       c,
		agg:     agg,
		windows: windows,
		poster:  poster,
		clock:   clk,
		loc:     loc,
		logger:  logger,
		ctx:     context.Background(),
	}

	if _, err := s.cron.AddFunc(cfg.DailyStandup, func() { s.RunDailyStandup(s.context()) }); err != nil {
		return nil, fmt.Errorf("parsing daily standup schedule %q: %w", cfg.DailyStandup, err)
	}
	if _, err := s.cron.AddFunc(cfg.WeeklySummary, func() { s.RunWeeklySummary(s.context()) }); err != nil {
		return nil, fmt.Errorf("parsing weekly summary schedule %q: %w", cfg.WeeklySummary, err)
	}

	return s, nil
}

// Start begins firing jobs. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.ctx = ctx
	s.running = true
	s.cron.Start()
}

// Stop halts the triggers, waits for running jobs, then flushes every
// open standup window.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running {
		<-s.cron.Stop().Done()
	}
	s.windows.CloseAll()
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// RunDailyStandup prompts every standup channel and opens a reply
// window for each prompt. A summary is posted when the window closes
// with at least one response.
func (s *Scheduler) RunDailyStandup(ctx context.Context) {
	settings, err := s.c.Settings(ctx)
	if err != nil {
		s.logger.Printf("standup: reading settings: %v", err)
		return
	}

	for _, channelID := range StandupChannels(settings) {
		promptID, err := s.poster.PostStandupPrompt(ctx, channelID)
		if err != nil {
			s.logger.Printf("standup: posting prompt to %s: %v", channelID, err)
			continue
		}
		s.windows.Open(ctx, promptID, channelID, s.postStandupSummary)
	}
}

func (s *Scheduler) postStandupSummary(st model.Standup) {
	if len(st.Responses) == 0 {
		return
	}
	if err := s.poster.PostStandupSummary(context.Background(), st); err != nil {
		s.logger.Printf("standup: posting summary to %s: %v", st.ChannelID, err)
	}
}

// RunWeeklySummary posts the weekly summary to every channel that has
// it enabled. Week boundaries follow the scheduler's timezone.
func (s *Scheduler) RunWeeklySummary(ctx context.Context) {
	summaries, err := s.agg.WeeklySummary(ctx, s.clock.Now().In(s.loc))
	if err != nil {
		s.logger.Printf("weekly summary: %v", err)
		return
	}

	for _, summary := range summaries {
		if err := s.poster.PostWeeklySummary(ctx, summary); err != nil {
			s.logger.Printf("weekly summary: posting to %s: %v", summary.ChannelID, err)
		}
	}
}
