package temperature

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// DefaultUnit is the unit every reading is reported in.
const DefaultUnit = "°C"

// DefaultPollInterval is the default time between backend polls.
const DefaultPollInterval = 60 * time.Second

// ErrUnknownBackend indicates a request for a backend id that is not
// registered.
var ErrUnknownBackend = errors.New("unknown temperature backend")

// Status is one backend's reading as it travels on the wire. Condition
// carries the icon code point, not the condition name.
type Status struct {
	ID          string  `json:"id"`
	Location    string  `json:"location"`
	Unit        string  `json:"unit"`
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
}

// Config tunes the temperature service; zero values pick defaults.
type Config struct {
	// PollInterval is the time between backend polls.
	PollInterval time.Duration

	// HistorySize bounds the number of readings kept per backend.
	HistorySize int
}

// Service owns the registered temperature backends. A poller records
// each backend's readings into a bounded history and pushes a status
// to all clients when a reading changes.
type Service struct {
	logger      zerolog.Logger
	publisher   capability.Publisher
	interval    time.Duration
	historySize int

	mu        sync.RWMutex
	backends  map[string]Backend
	order     []string
	histories map[string]*history
	last      map[string]float64

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates an empty temperature service.
func NewService(cfg Config, publisher capability.Publisher, logger zerolog.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	return &Service{
		logger:      logger,
		publisher:   publisher,
		interval:    cfg.PollInterval,
		historySize: cfg.HistorySize,
		backends:    make(map[string]Backend),
		histories:   make(map[string]*history),
		last:        make(map[string]float64),
	}
}

// AddBackend registers a backend. Duplicate ids are rejected.
func (s *Service) AddBackend(b Backend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.backends[b.ID()]; ok {
		return fmt.Errorf("backend id %q is not unique", b.ID())
	}

	s.backends[b.ID()] = b
	s.order = append(s.order, b.ID())
	s.histories[b.ID()] = newHistory(s.historySize)

	s.logger.Debug().
		Str("component", "temperature").
		Str("id", b.ID()).
		Str("location", b.Location()).
		Msg("backend added")
	return nil
}

// Status returns the live reading of one backend.
func (s *Service) Status(id string) (Status, error) {
	s.mu.RLock()
	b, ok := s.backends[id]
	s.mu.RUnlock()

	if !ok {
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
	return s.read(b)
}

// Statuses returns the reading of every backend in registration order,
// skipping backends that fail to read.
func (s *Service) Statuses() []Status {
	s.mu.RLock()
	backends := make([]Backend, 0, len(s.order))
	for _, id := range s.order {
		backends = append(backends, s.backends[id])
	}
	s.mu.RUnlock()

	statuses := make([]Status, 0, len(backends))
	for _, b := range backends {
		status, err := s.read(b)
		if err != nil {
			s.logger.Warn().
				Str("component", "temperature").
				Err(err).
				Msg("backend not readable")
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// History returns the recorded series of one backend as parallel value
// and unix time slices, oldest first.
func (s *Service) History(id string) ([]float64, []int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
	values, times := h.snapshot()
	return values, times, nil
}

// Start begins polling the backends.
func (s *Service) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.logger.Debug().
		Str("component", "temperature").
		Dur("interval", s.interval).
		Msg("poller started")
}

// Stop ends polling.
func (s *Service) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Service) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	s.poll()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll reads every backend once, records the reading and pushes the
// status when the reading changed since the last poll.
func (s *Service) poll() {
	s.mu.RLock()
	backends := make([]Backend, 0, len(s.order))
	for _, id := range s.order {
		backends = append(backends, s.backends[id])
	}
	s.mu.RUnlock()

	now := time.Now().Unix()
	var changed []Status
	for _, b := range backends {
		status, err := s.read(b)
		if err != nil {
			s.logger.Warn().
				Str("component", "temperature").
				Err(err).
				Msg("backend not readable")
			continue
		}

		s.mu.Lock()
		s.histories[b.ID()].add(now, status.Temperature)
		prev, seen := s.last[b.ID()]
		s.last[b.ID()] = status.Temperature
		s.mu.Unlock()

		if !seen || prev != status.Temperature {
			changed = append(changed, status)
		}
	}

	for _, status := range changed {
		s.publisher.Publish(knut.CapabilityTemperature, knut.TemperatureStatusResponse, status)
	}
}

// read builds the wire status from one backend.
func (s *Service) read(b Backend) (Status, error) {
	value, err := b.Current()
	if err != nil {
		return Status{}, fmt.Errorf("read %q: %w", b.ID(), err)
	}

	return Status{
		ID:          b.ID(),
		Location:    b.Location(),
		Unit:        DefaultUnit,
		Condition:   conditionIcon(b.Condition()),
		Temperature: value,
	}, nil
}
