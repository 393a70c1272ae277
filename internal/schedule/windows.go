package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/biferdou/grallix/internal/clock"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/store"
)

// Reply is a chat message answering a standup prompt.
type Reply struct {
	PromptID  string
	UserID    string
	Username  string
	Content   string
	Timestamp time.Time
}

// window gathers the replies to one prompt.
type window struct {
	channelID string
	responses []model.StandupResponse
	onClose   func(model.Standup)
	done      chan struct{}
	closeOnce sync.Once
}

func (w *window) stop() {
	w.closeOnce.Do(func() { close(w.done) })
}

// Windows tracks the open standup collection windows, keyed by the
// message id of their prompt. Every window that is opened persists
// exactly one Standup when it closes, even with no responses.
type Windows struct {
	mu   sync.Mutex
	open map[string]*window
	wg   sync.WaitGroup

	c        *store.Collections
	clock    clock.Clock
	duration time.Duration
	logger   *log.Logger
}

// NewWindows returns a collector whose windows stay open for duration.
func NewWindows(c *store.Collections, clk clock.Clock, duration time.Duration, logger *log.Logger) *Windows {
	return &Windows{
		open:     make(map[string]*window),
		c:        c,
		clock:    clk,
		duration: duration,
		logger:   logger,
	}
}

// Open starts collecting replies to promptID. The window closes when its
// duration elapses, when ctx is cancelled, or on CloseAll; onClose (may
// be nil) then receives the persisted Standup.
func (w *Windows) Open(ctx context.Context, promptID, channelID string, onClose func(model.Standup)) {
	win := &window{
		channelID: channelID,
		responses: []model.StandupResponse{},
		onClose:   onClose,
		done:      make(chan struct{}),
	}

	w.mu.Lock()
	if prev, ok := w.open[promptID]; ok {
		prev.stop()
	}
	w.open[promptID] = win
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		t := time.NewTimer(w.duration)
		defer t.Stop()

		select {
		case <-t.C:
		case <-ctx.Done():
		case <-win.done:
		}
		w.finish(promptID, win)
	}()
}

// Collect appends r to the window of its prompt. It reports false when
// r does not answer an open prompt.
func (w *Windows) Collect(r Reply) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	win, ok := w.open[r.PromptID]
	if !ok {
		return false
	}
	win.responses = append(win.responses, model.StandupResponse{
		UserID:    r.UserID,
		Username:  r.Username,
		Content:   r.Content,
		Timestamp: r.Timestamp.UnixMilli(),
	})
	return true
}

// OpenCount returns the number of windows still collecting.
func (w *Windows) OpenCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.open)
}

// CloseAll closes every open window and waits until each has been
// persisted.
func (w *Windows) CloseAll() {
	w.mu.Lock()
	for _, win := range w.open {
		win.stop()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Windows) finish(promptID string, win *window) {
	w.mu.Lock()
	if w.open[promptID] == win {
		delete(w.open, promptID)
	}
	standup := model.Standup{
		ChannelID: win.channelID,
		Date:      w.clock.Now(),
		Responses: win.responses,
	}
	w.mu.Unlock()

	// The triggering context may already be cancelled; the standup is
	// still written.
	err := w.c.UpdateStandups(context.Background(), func(d *store.StandupData) error {
		d.Standups = append(d.Standups, standup)
		return nil
	})
	if err != nil {
		w.logger.Printf("standup: saving responses for channel %s: %v", win.channelID, err)
	}

	if win.onClose != nil {
		win.onClose(standup)
	}
}
