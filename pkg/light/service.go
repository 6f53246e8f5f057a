package light

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/capability"
	"github.com/knut-protocol/knut-go/pkg/knut"
)

// Service owns every registered light and room plus the fleet
// aggregate. All state access is serialized through its mutex; pushes
// are published after the lock is released.
type Service struct {
	logger    zerolog.Logger
	publisher capability.Publisher

	mu        sync.RWMutex
	lights    map[string]*Light
	order     []string
	rooms     map[string]*Room
	roomOrder []string
	fleet     Aggregate
}

// NewService creates an empty light service. publisher carries status
// and aggregate pushes to all connected clients.
func NewService(publisher capability.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		logger:    logger,
		publisher: publisher,
		lights:    make(map[string]*Light),
		rooms:     make(map[string]*Room),
	}
}

// AddLight registers a light and files it into its room. Duplicate ids
// are rejected.
func (s *Service) AddLight(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lights[cfg.ID]; ok {
		return fmt.Errorf("light id %q is not unique", cfg.ID)
	}

	l := New(cfg)
	s.lights[cfg.ID] = l
	s.order = append(s.order, cfg.ID)

	room, ok := s.rooms[cfg.Room]
	if !ok {
		room = newRoom(cfg.Room)
		s.rooms[cfg.Room] = room
		s.roomOrder = append(s.roomOrder, cfg.Room)
		s.logger.Debug().
			Str("component", "light").
			Str("room", cfg.Room).
			Msg("room added")
	}
	room.add(l)
	s.fleet = s.fleetAggregate()

	s.logger.Debug().
		Str("component", "light").
		Str("id", cfg.ID).
		Str("room", cfg.Room).
		Msg("light added")
	return nil
}

// Status returns the status of one light.
func (s *Service) Status(id string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lights[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownLight, id)
	}
	return l.Status(), nil
}

// Statuses returns the status of every light in registration order.
func (s *Service) Statuses() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]Status, 0, len(s.order))
	for _, id := range s.order {
		statuses = append(statuses, s.lights[id].Status())
	}
	return statuses
}

// Fleet returns the aggregate over all lights.
func (s *Service) Fleet() Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fleet
}

// RoomsList returns every room's aggregate keyed by room name.
func (s *Service) RoomsList() map[string]Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make(map[string]Aggregate, len(s.rooms))
	for name, room := range s.rooms {
		rooms[name] = room.Aggregate()
	}
	return rooms
}

// ApplyCommand runs one light command through the state machine,
// pushes the new status and any changed aggregates, and returns the
// status for the response. A rejected dim level leaves the light
// untouched but still reports its current status.
func (s *Service) ApplyCommand(cmd Command) (Status, error) {
	s.mu.Lock()

	l, ok := s.lights[cmd.ID]
	if !ok {
		s.mu.Unlock()
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownLight, cmd.ID)
	}

	if err := l.apply(cmd); err != nil {
		s.logger.Error().
			Str("component", "light").
			Str("id", cmd.ID).
			Err(err).
			Msg("command not applied")
	}
	status := l.Status()

	room := s.rooms[l.Room()]
	roomChanged := room.refresh()
	roomStatus := room.Status()
	fleetChanged := s.refreshFleet()
	fleet := s.fleet

	s.mu.Unlock()

	s.publisher.Publish(knut.CapabilityLight, knut.LightStatusResponse, status)
	if roomChanged {
		s.publisher.Publish(knut.CapabilityLight, knut.RoomResponse, roomStatus)
	}
	if fleetChanged {
		s.publisher.Publish(knut.CapabilityLight, knut.AllLightsResponse, fleetState{State: fleet})
	}
	return status, nil
}

// SwitchRoom applies an on/off target to every member of a room. Each
// member pushes its new status; the room and fleet aggregates
// recompute exactly once afterwards.
func (s *Service) SwitchRoom(name string, target bool) (RoomStatus, error) {
	s.mu.Lock()

	room, ok := s.rooms[name]
	if !ok {
		s.mu.Unlock()
		return RoomStatus{}, fmt.Errorf("unknown room %q", name)
	}

	statuses := make([]Status, 0, len(room.members))
	for _, member := range room.members {
		if err := member.switchTo(target); err != nil {
			s.logger.Warn().
				Str("component", "light").
				Str("id", member.ID()).
				Err(err).
				Msg("switch not applied")
		}
		statuses = append(statuses, member.Status())
	}

	roomChanged := room.refresh()
	roomStatus := room.Status()
	fleetChanged := s.refreshFleet()
	fleet := s.fleet

	s.mu.Unlock()

	for _, status := range statuses {
		s.publisher.Publish(knut.CapabilityLight, knut.LightStatusResponse, status)
	}
	if roomChanged {
		s.publisher.Publish(knut.CapabilityLight, knut.RoomResponse, roomStatus)
	}
	if fleetChanged {
		s.publisher.Publish(knut.CapabilityLight, knut.AllLightsResponse, fleetState{State: fleet})
	}
	return roomStatus, nil
}

// SwitchAll applies an on/off target to every light. Per-light pushes
// first, then one recompute per room, then one fleet recompute.
func (s *Service) SwitchAll(target bool) {
	s.mu.Lock()

	statuses := make([]Status, 0, len(s.order))
	for _, id := range s.order {
		l := s.lights[id]
		if err := l.switchTo(target); err != nil {
			s.logger.Warn().
				Str("component", "light").
				Str("id", id).
				Err(err).
				Msg("switch not applied")
		}
		statuses = append(statuses, l.Status())
	}

	var changedRooms []RoomStatus
	for _, name := range s.roomOrder {
		room := s.rooms[name]
		if room.refresh() {
			changedRooms = append(changedRooms, room.Status())
		}
	}
	fleetChanged := s.refreshFleet()
	fleet := s.fleet

	s.mu.Unlock()

	for _, status := range statuses {
		s.publisher.Publish(knut.CapabilityLight, knut.LightStatusResponse, status)
	}
	for _, roomStatus := range changedRooms {
		s.publisher.Publish(knut.CapabilityLight, knut.RoomResponse, roomStatus)
	}
	if fleetChanged {
		s.publisher.Publish(knut.CapabilityLight, knut.AllLightsResponse, fleetState{State: fleet})
	}
}

// refreshFleet recomputes the fleet aggregate. Caller holds the lock.
func (s *Service) refreshFleet() bool {
	next := s.fleetAggregate()
	if next == s.fleet {
		return false
	}
	s.fleet = next
	return true
}

// fleetAggregate computes the aggregate over all lights. Caller holds
// the lock.
func (s *Service) fleetAggregate() Aggregate {
	all := make([]*Light, 0, len(s.lights))
	for _, l := range s.lights {
		all = append(all, l)
	}
	return aggregateOf(all)
}

// fleetState is the AllLightsResponse payload.
type fleetState struct {
	State Aggregate `json:"state"`
}
