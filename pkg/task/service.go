package task

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// ErrUnknownTask indicates a request for a task id that is not known.
var ErrUnknownTask = errors.New("unknown task id")

// Service owns all tasks. Every update writes through to the store and
// pushes the new state to all clients; a failing store logs a warning
// and the in-memory state stays authoritative.
type Service struct {
	logger    zerolog.Logger
	publisher capability.Publisher
	store     *Store
	scheduler *Scheduler

	mu    sync.RWMutex
	tasks map[string]Task
}

// NewService creates an empty task service backed by store.
func NewService(store *Store, publisher capability.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		logger:    logger,
		publisher: publisher,
		store:     store,
		scheduler: NewScheduler(publisher, logger),
		tasks:     make(map[string]Task),
	}
}

// Load reads every persisted task and arms its reminder.
func (s *Service) Load() error {
	tasks, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	s.mu.Lock()
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	s.mu.Unlock()

	for _, t := range tasks {
		s.scheduler.Schedule(t)
	}

	s.logger.Info().
		Str("component", "task").
		Int("count", len(tasks)).
		Msg("tasks loaded")
	return nil
}

// Get returns one task.
func (s *Service) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownTask, id)
	}
	return t, nil
}

// All returns every task ordered by id.
func (s *Service) All() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// Upsert creates or updates a task from a partial update. An empty id
// creates a new task under a fresh uuid; an unknown non-empty id is
// rejected. It reports whether a task was created.
func (s *Service) Upsert(p Patch) (Task, bool, error) {
	s.mu.Lock()

	var t Task
	created := p.ID == ""
	if created {
		t = Task{ID: uuid.New().String()}
	} else {
		existing, ok := s.tasks[p.ID]
		if !ok {
			s.mu.Unlock()
			return Task{}, false, fmt.Errorf("%w: %q", ErrUnknownTask, p.ID)
		}
		t = existing
	}

	reschedule := t.merge(p) || created
	s.tasks[t.ID] = t
	s.mu.Unlock()

	if reschedule {
		s.scheduler.Schedule(t)
	}
	s.persist(t)
	s.publisher.Publish(knut.CapabilityTask, knut.TaskResponse, t)

	event := s.logger.Debug().
		Str("component", "task").
		Str("id", t.ID)
	if created {
		event.Msg("task created")
	} else {
		event.Msg("task updated")
	}
	return t, created, nil
}

// Delete removes a task together with its file and reminder.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.tasks[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownTask, id)
	}
	delete(s.tasks, id)
	s.mu.Unlock()

	s.scheduler.Cancel(id)
	if err := s.store.Delete(id); err != nil {
		s.logger.Warn().
			Str("component", "task").
			Str("id", id).
			Err(err).
			Msg("task file not removed")
	}

	s.logger.Debug().
		Str("component", "task").
		Str("id", id).
		Msg("task deleted")
	return nil
}

// Stop disarms every reminder.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

func (s *Service) persist(t Task) {
	if err := s.store.Save(t); err != nil {
		s.logger.Warn().
			Str("component", "task").
			Str("id", t.ID).
			Err(err).
			Msg("task not persisted")
	}
}
