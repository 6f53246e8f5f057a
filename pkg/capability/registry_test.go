package capability

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// fakeCapability answers with a configurable handler.
type fakeCapability struct {
	id     knut.CapabilityID
	name   string
	handle func(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any)
}

func (f *fakeCapability) ID() knut.CapabilityID { return f.id }
func (f *fakeCapability) Name() string          { return f.name }

func (f *fakeCapability) Handle(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any) {
	if f.handle == nil {
		return knut.MessageNull, nil
	}
	return f.handle(msgType, payload)
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	light := &fakeCapability{id: knut.CapabilityLight, name: "light"}
	require.NoError(t, reg.Register(light))

	got, ok := reg.Get(knut.CapabilityLight)
	require.True(t, ok)
	assert.Equal(t, light, got)

	_, ok = reg.Get(knut.CapabilityTask)
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	require.NoError(t, reg.Register(&fakeCapability{id: knut.CapabilityLight, name: "light"}))

	err := reg.Register(&fakeCapability{id: knut.CapabilityLight, name: "light-2"})
	require.ErrorIs(t, err, ErrDuplicateCapability)

	// The first registration stays in place
	got, ok := reg.Get(knut.CapabilityLight)
	require.True(t, ok)
	assert.Equal(t, "light", got.Name())
}

func TestRegistryCapabilitiesOrdered(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	require.NoError(t, reg.Register(&fakeCapability{id: knut.CapabilityTask, name: "task"}))
	require.NoError(t, reg.Register(&fakeCapability{id: knut.CapabilityTemperature, name: "temperature"}))
	require.NoError(t, reg.Register(&fakeCapability{id: knut.CapabilityLight, name: "light"}))

	list := reg.Capabilities()
	require.Len(t, list, 3)
	assert.Equal(t, knut.CapabilityTemperature, list[0].ID())
	assert.Equal(t, knut.CapabilityLight, list[1].ID())
	assert.Equal(t, knut.CapabilityTask, list[2].ID())
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	require.NoError(t, reg.Register(&fakeCapability{
		id:   knut.CapabilityLocal,
		name: "local",
		handle: func(msgType knut.MessageType, payload json.RawMessage) (knut.MessageType, any) {
			if msgType == knut.LocalRequest {
				return knut.LocalResponse, map[string]any{"isDaylight": true}
			}
			return knut.MessageNull, nil
		},
	}))

	req, err := knut.NewMessage(knut.CapabilityLocal, knut.LocalRequest, nil)
	require.NoError(t, err)

	resp := reg.Dispatch(req)
	assert.Equal(t, knut.CapabilityLocal, resp.CapabilityID)
	assert.Equal(t, knut.LocalResponse, resp.MessageType)
	assert.Contains(t, string(resp.Payload), "isDaylight")
}

func TestRegistryDispatchUnknownMessageType(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	require.NoError(t, reg.Register(&fakeCapability{id: knut.CapabilityLight, name: "light"}))

	req, err := knut.NewMessage(knut.CapabilityLight, knut.MessageType(0x7777), nil)
	require.NoError(t, err)

	resp := reg.Dispatch(req)
	assert.True(t, resp.IsNull(), "unknown message type must yield NULL")
}

func TestRegistryDispatchUnknownCapabilityPassesThrough(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	req, err := knut.NewMessage(knut.CapabilityID(77), knut.MessageType(5), map[string]any{"echo": 1})
	require.NoError(t, err)

	resp := reg.Dispatch(req)
	assert.Equal(t, req.CapabilityID, resp.CapabilityID)
	assert.Equal(t, req.MessageType, resp.MessageType)
	assert.JSONEq(t, string(req.Payload), string(resp.Payload))
}

func TestRegistryDispatchRecoversPanic(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	require.NoError(t, reg.Register(&fakeCapability{
		id:   knut.CapabilityTask,
		name: "task",
		handle: func(knut.MessageType, json.RawMessage) (knut.MessageType, any) {
			panic("handler bug")
		},
	}))

	req, err := knut.NewMessage(knut.CapabilityTask, knut.TaskRequest, map[string]any{"id": "x"})
	require.NoError(t, err)

	resp := reg.Dispatch(req)
	assert.True(t, resp.IsNull(), "panic must degrade to NULL")
	assert.Equal(t, knut.CapabilityTask, resp.CapabilityID)
}

func TestRegistryDispatchUnencodablePayload(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	require.NoError(t, reg.Register(&fakeCapability{
		id:   knut.CapabilityLight,
		name: "light",
		handle: func(knut.MessageType, json.RawMessage) (knut.MessageType, any) {
			return knut.LightStatusResponse, func() {}
		},
	}))

	req, err := knut.NewMessage(knut.CapabilityLight, knut.LightStatusRequest, nil)
	require.NoError(t, err)

	resp := reg.Dispatch(req)
	assert.True(t, resp.IsNull())
}
