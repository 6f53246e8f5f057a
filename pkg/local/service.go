package local

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Status is the location state as it travels on the wire. Sunrise and
// sunset are the next such events in unix seconds.
type Status struct {
	ID         string `json:"id"`
	IsDaylight bool   `json:"isDaylight"`
	Location   string `json:"location"`
	Sunrise    int64  `json:"sunrise"`
	Sunset     int64  `json:"sunset"`
}

// Config describes the observed location.
type Config struct {
	// ID is the unique id of the location service.
	ID string

	// Name is the human-readable location name.
	Name string

	// Latitude in degrees, positive north.
	Latitude float64

	// Longitude in degrees, positive east.
	Longitude float64

	// Elevation above sea level in meters.
	Elevation float64
}

// Service tracks the sun at a fixed location. A one-shot timer armed
// for the next sun event keeps the daylight flag current and pushes
// the status to all clients whenever the flag flips.
type Service struct {
	logger    zerolog.Logger
	publisher capability.Publisher

	id        string
	location  string
	latitude  float64
	longitude float64
	elevation float64

	now func() time.Time

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	running  bool
	sunrise  time.Time
	sunset   time.Time
	daylight bool
}

// NewService creates a location service with the sun state already
// computed. The daylight timer is not armed until Start.
func NewService(cfg Config, publisher capability.Publisher, logger zerolog.Logger) *Service {
	s := &Service{
		logger:    logger,
		publisher: publisher,
		id:        cfg.ID,
		location:  cfg.Name,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		elevation: cfg.Elevation,
		now:       time.Now,
	}

	s.mu.Lock()
	s.refresh()
	s.mu.Unlock()
	return s
}

// Status returns the current location state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Start arms the daylight timer for the next sun event.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.arm()

	s.logger.Debug().
		Str("component", "local").
		Str("location", s.location).
		Time("sunrise", s.sunrise).
		Time("sunset", s.sunset).
		Bool("daylight", s.daylight).
		Msg("daylight timer started")
}

// Stop disarms the daylight timer.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// refresh recomputes the next sun events and the daylight flag and
// reports whether the flag changed. Callers hold mu.
func (s *Service) refresh() bool {
	now := s.now()
	s.sunrise, s.sunset = nextSunEvents(now, s.latitude, s.longitude, s.elevation)

	was := s.daylight
	s.daylight = daylight(s.sunrise, s.sunset, now)
	return s.daylight != was
}

// arm schedules the timer for the next sun event. Callers hold mu.
func (s *Service) arm() {
	at := s.sunrise
	if s.daylight {
		at = s.sunset
	}

	s.gen++
	gen := s.gen
	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, func() { s.advance(gen) })

	s.logger.Debug().
		Str("component", "local").
		Str("location", s.location).
		Dur("delay", delay).
		Msg("daylight timer armed")
}

// advance is the timer callback: it moves on to the next sun event,
// re-arms and pushes the status when the daylight flag flipped.
func (s *Service) advance(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		// Stopped or re-armed while the callback was starting
		s.mu.Unlock()
		return
	}

	changed := s.refresh()
	status := s.status()
	s.arm()
	s.mu.Unlock()

	if !changed {
		return
	}

	s.logger.Info().
		Str("component", "local").
		Str("location", s.location).
		Bool("daylight", status.IsDaylight).
		Msg("daylight changed")
	s.publisher.Publish(knut.CapabilityLocal, knut.LocalResponse, status)
}

// status builds the wire status. Callers hold mu.
func (s *Service) status() Status {
	return Status{
		ID:         s.id,
		IsDaylight: s.daylight,
		Location:   s.location,
		Sunrise:    s.sunrise.Unix(),
		Sunset:     s.sunset.Unix(),
	}
}
