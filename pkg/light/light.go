package light

import (
	"errors"
	"fmt"
)

// ErrUnknownLight indicates a request for a light id that is not
// registered.
var ErrUnknownLight = errors.New("unknown light id")

// errDimlevelRange indicates a dim level outside [0,100].
var errDimlevelRange = errors.New("dim level must be in range [0,100]")

// defaultSavedDimlevel is restored the first time a fresh dimmable
// light is switched on.
const defaultSavedDimlevel = 100

// Status is the full state of one light as it travels on the wire.
// Unsupported trait fields encode as null.
type Status struct {
	ID             string  `json:"id"`
	Location       string  `json:"location"`
	Room           string  `json:"room"`
	State          bool    `json:"state"`
	HasTemperature bool    `json:"hasTemperature"`
	HasDimlevel    bool    `json:"hasDimlevel"`
	HasColor       bool    `json:"hasColor"`
	Temperature    *int    `json:"temperature"`
	ColorCold      *string `json:"colorCold"`
	ColorWarm      *string `json:"colorWarm"`
	Dimlevel       *int    `json:"dimlevel"`
	Color          *string `json:"color"`
}

// Command is a requested state change for one light. Dimlevel,
// Temperature and Color distinguish absent from zero valued.
type Command struct {
	ID          string  `json:"id"`
	State       bool    `json:"state"`
	Dimlevel    *int    `json:"dimlevel,omitempty"`
	Temperature *int    `json:"temperature,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// Backend is the hardware side of a light. Apply pushes a freshly
// computed status out to the device.
type Backend interface {
	Apply(status Status) error
}

// Config declares one light.
type Config struct {
	ID             string
	Location       string
	Room           string
	HasDimlevel    bool
	HasTemperature bool
	HasColor       bool
	ColorCold      string
	ColorWarm      string

	// Backend is the hardware binding; nil for a purely virtual light.
	Backend Backend
}

// Light is one light's in-memory state. Access is serialized by the
// owning Service.
type Light struct {
	id       string
	location string
	room     string

	hasDimlevel    bool
	hasTemperature bool
	hasColor       bool

	state         bool
	dimlevel      int
	savedDimlevel int
	temperature   int
	color         string
	colorCold     string
	colorWarm     string

	backend Backend
}

// New creates a light from its declaration.
func New(cfg Config) *Light {
	l := &Light{
		id:             cfg.ID,
		location:       cfg.Location,
		room:           cfg.Room,
		hasDimlevel:    cfg.HasDimlevel,
		hasTemperature: cfg.HasTemperature,
		hasColor:       cfg.HasColor,
		colorCold:      cfg.ColorCold,
		colorWarm:      cfg.ColorWarm,
		backend:        cfg.Backend,
	}
	if l.hasDimlevel {
		l.savedDimlevel = defaultSavedDimlevel
	}
	return l
}

// ID returns the unique light id.
func (l *Light) ID() string { return l.id }

// Room returns the room the light is located in.
func (l *Light) Room() string { return l.room }

// State returns the current on/off state.
func (l *Light) State() bool { return l.state }

// Status returns the light's full wire status.
func (l *Light) Status() Status {
	s := Status{
		ID:             l.id,
		Location:       l.location,
		Room:           l.room,
		State:          l.state,
		HasTemperature: l.hasTemperature,
		HasDimlevel:    l.hasDimlevel,
		HasColor:       l.hasColor,
	}
	if l.hasTemperature {
		temperature := l.temperature
		colorCold := l.colorCold
		colorWarm := l.colorWarm
		s.Temperature = &temperature
		s.ColorCold = &colorCold
		s.ColorWarm = &colorWarm
	}
	if l.hasDimlevel {
		dimlevel := l.dimlevel
		s.Dimlevel = &dimlevel
	}
	if l.hasColor {
		color := l.color
		s.Color = &color
	}
	return s
}

// apply runs the state machine for one command. The light is mutated
// in place; the error reports a rejected dim level with everything
// else untouched.
func (l *Light) apply(cmd Command) error {
	var applyErr error

	switch {
	case !l.hasDimlevel:
		l.state = cmd.State

	case cmd.Dimlevel != nil:
		applyErr = l.applyDimlevel(cmd.State, *cmd.Dimlevel)

	default:
		// No level given: plain switch with save/restore.
		if !l.state && cmd.State {
			l.state = true
			l.dimlevel = l.savedDimlevel
		} else if l.state && !cmd.State {
			l.state = false
			if l.dimlevel > 0 {
				l.savedDimlevel = l.dimlevel
			} else {
				l.savedDimlevel = 1
			}
			l.dimlevel = 0
		}
	}

	if l.hasTemperature && cmd.Temperature != nil {
		l.temperature = *cmd.Temperature
	}
	if l.hasColor && cmd.Color != nil {
		l.color = *cmd.Color
	}

	if applyErr != nil {
		return applyErr
	}
	if l.backend != nil {
		if err := l.backend.Apply(l.Status()); err != nil {
			return fmt.Errorf("backend apply: %w", err)
		}
	}
	return nil
}

// applyDimlevel handles a command that carries an explicit level.
func (l *Light) applyDimlevel(state bool, dimlevel int) error {
	if dimlevel < 0 || dimlevel > 100 {
		return fmt.Errorf("%w: %d", errDimlevelRange, dimlevel)
	}

	switch {
	case !l.state && (state || dimlevel > 0):
		l.state = true
		if dimlevel > 0 {
			l.dimlevel = dimlevel
		} else {
			l.dimlevel = l.savedDimlevel
		}

	case l.state && (!state || dimlevel == 0):
		l.state = false
		if l.dimlevel > 0 {
			l.savedDimlevel = l.dimlevel
		} else {
			l.savedDimlevel = 1
		}
		l.dimlevel = 0

	default:
		l.state = state
		l.dimlevel = dimlevel
		if dimlevel > 0 {
			l.savedDimlevel = dimlevel
		}
	}
	return nil
}

// switchTo applies a bare on/off target, the room and fleet switch
// path.
func (l *Light) switchTo(state bool) error {
	return l.apply(Command{ID: l.id, State: state})
}
