package task

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Reminder is the payload pushed to every client when a task's
// reminder falls due.
type Reminder struct {
	ID       string `json:"id"`
	Reminder int64  `json:"reminder"`
}

// reminderDelay returns the time until the reminder for t is due and
// whether a reminder should be armed at all.
func reminderDelay(t Task, now time.Time) (time.Duration, bool) {
	if t.Done {
		return 0, false
	}

	at := time.Unix(t.Due-t.Reminder, 0)
	delay := at.Sub(now)
	if delay < 0 {
		return 0, false
	}
	return delay, true
}

// armedReminder carries a generation stamp so a firing timer can tell
// whether it was replaced or canceled in the meantime.
type armedReminder struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler arms one timer per task and pushes the reminder when it
// fires.
type Scheduler struct {
	logger    zerolog.Logger
	publisher capability.Publisher

	mu     sync.Mutex
	gen    uint64
	timers map[string]armedReminder
}

// NewScheduler creates an empty reminder scheduler.
func NewScheduler(publisher capability.Publisher, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		logger:    logger,
		publisher: publisher,
		timers:    make(map[string]armedReminder),
	}
}

// Schedule arms the reminder timer for t, replacing an armed one. Done
// tasks and reminders lying in the past are silently not armed.
func (s *Scheduler) Schedule(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if armed, ok := s.timers[t.ID]; ok {
		armed.timer.Stop()
		delete(s.timers, t.ID)
	}

	delay, ok := reminderDelay(t, time.Now())
	if !ok {
		return
	}

	s.gen++
	gen := s.gen
	id, reminder := t.ID, t.Reminder
	timer := time.AfterFunc(delay, func() {
		s.fire(id, reminder, gen)
	})
	s.timers[t.ID] = armedReminder{timer: timer, gen: gen}

	s.logger.Debug().
		Str("component", "task").
		Str("id", t.ID).
		Dur("delay", delay).
		Msg("reminder armed")
}

// Cancel disarms the reminder timer for id, if armed.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if armed, ok := s.timers[id]; ok {
		armed.timer.Stop()
		delete(s.timers, id)
	}
}

// Stop disarms every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, armed := range s.timers {
		armed.timer.Stop()
		delete(s.timers, id)
	}
}

// Armed returns the number of armed reminders.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) fire(id string, reminder int64, gen uint64) {
	s.mu.Lock()
	armed, ok := s.timers[id]
	if !ok || armed.gen != gen {
		// Replaced or canceled while the callback was starting
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	s.logger.Info().
		Str("component", "task").
		Str("id", id).
		Msg("reminder due")
	s.publisher.Publish(knut.CapabilityTask, knut.TaskReminder, Reminder{ID: id, Reminder: reminder})
}
