package light

import (
	"encoding/json"
	"fmt"
)

// Aggregate is the summarized on/off state of a group of lights.
type Aggregate uint8

const (
	// AggregateOff means every light in the group is off.
	AggregateOff Aggregate = iota

	// AggregateOn means every light in the group is on.
	AggregateOn

	// AggregateMixed means the group holds both on and off lights.
	AggregateMixed
)

// String returns the aggregate name.
func (a Aggregate) String() string {
	switch a {
	case AggregateOff:
		return "off"
	case AggregateOn:
		return "on"
	case AggregateMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the aggregate as its name.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an aggregate from its name.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	switch name {
	case "off":
		*a = AggregateOff
	case "on":
		*a = AggregateOn
	case "mixed":
		*a = AggregateMixed
	default:
		return fmt.Errorf("unknown aggregate state %q", name)
	}
	return nil
}

// aggregateOf reduces a set of light states to their aggregate. An
// empty group is Off.
func aggregateOf(lights []*Light) Aggregate {
	var on, off bool
	for _, l := range lights {
		if l.State() {
			on = true
		} else {
			off = true
		}
	}

	switch {
	case on && off:
		return AggregateMixed
	case on:
		return AggregateOn
	default:
		return AggregateOff
	}
}
