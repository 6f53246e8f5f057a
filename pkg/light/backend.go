package light

import "github.com/rs/zerolog"

// DummyBackend is a virtual light. It accepts every status without
// talking to hardware, for development setups and tests.
type DummyBackend struct {
	logger zerolog.Logger
}

// NewDummyBackend creates a virtual light backend.
func NewDummyBackend(logger zerolog.Logger) *DummyBackend {
	return &DummyBackend{logger: logger}
}

// Apply accepts the status.
func (b *DummyBackend) Apply(status Status) error {
	b.logger.Debug().
		Str("component", "light").
		Str("id", status.ID).
		Bool("state", status.State).
		Msg("dummy backend applied status")
	return nil
}

var _ Backend = (*DummyBackend)(nil)
