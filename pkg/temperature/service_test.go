package temperature

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// fakeBackend reports a settable reading.
type fakeBackend struct {
	id       string
	location string

	mu        sync.Mutex
	value     float64
	condition string
	err       error
}

func (b *fakeBackend) ID() string       { return b.id }
func (b *fakeBackend) Location() string { return b.location }

func (b *fakeBackend) Current() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.err
}

func (b *fakeBackend) Condition() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.condition
}

func (b *fakeBackend) set(value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = value
}

// recordedPush is one captured Publish call.
type recordedPush struct {
	capID   knut.CapabilityID
	msgType knut.MessageType
	payload any
}

// pushRecorder captures pushes instead of queueing them.
type pushRecorder struct {
	mu     sync.Mutex
	pushes []recordedPush
}

func (p *pushRecorder) Publish(capID knut.CapabilityID, msgType knut.MessageType, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, recordedPush{capID: capID, msgType: msgType, payload: payload})
}

func (p *pushRecorder) statuses() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	var statuses []Status
	for _, push := range p.pushes {
		if status, ok := push.payload.(Status); ok {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

func TestServiceAddBackend(t *testing.T) {
	svc := NewService(Config{}, &pushRecorder{}, zerolog.Nop())

	require.NoError(t, svc.AddBackend(&fakeBackend{id: "garden", location: "garden fence"}))
	require.Error(t, svc.AddBackend(&fakeBackend{id: "garden"}))
}

func TestServiceStatus(t *testing.T) {
	svc := NewService(Config{}, &pushRecorder{}, zerolog.Nop())
	backend := &fakeBackend{id: "garden", location: "garden fence", value: 21.5, condition: "day-sunny"}
	require.NoError(t, svc.AddBackend(backend))

	status, err := svc.Status("garden")
	require.NoError(t, err)
	assert.Equal(t, Status{
		ID:          "garden",
		Location:    "garden fence",
		Unit:        "°C",
		Condition:   "",
		Temperature: 21.5,
	}, status)

	_, err = svc.Status("ghost")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestServiceStatusesSkipsFailingBackend(t *testing.T) {
	svc := NewService(Config{}, &pushRecorder{}, zerolog.Nop())
	require.NoError(t, svc.AddBackend(&fakeBackend{id: "garden", value: 21.5}))
	require.NoError(t, svc.AddBackend(&fakeBackend{id: "cellar", err: errors.New("sensor timeout")}))
	require.NoError(t, svc.AddBackend(&fakeBackend{id: "attic", value: 28}))

	statuses := svc.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "garden", statuses[0].ID)
	assert.Equal(t, "attic", statuses[1].ID)
}

func TestServicePollRecordsAndPushes(t *testing.T) {
	rec := &pushRecorder{}
	svc := NewService(Config{PollInterval: 20 * time.Millisecond, HistorySize: 8}, rec, zerolog.Nop())
	backend := &fakeBackend{id: "garden", location: "garden fence", value: 20, condition: "day-sunny"}
	require.NoError(t, svc.AddBackend(backend))

	svc.Start(context.Background())
	defer svc.Stop()

	// The first reading is announced
	require.Eventually(t, func() bool {
		return len(rec.statuses()) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 20.0, rec.statuses()[0].Temperature)

	// An unchanged reading is polled but not pushed again
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.statuses(), 1)

	values, _, err := svc.History("garden")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(values), 2)

	// A changed reading is pushed once
	backend.set(21)
	require.Eventually(t, func() bool {
		statuses := rec.statuses()
		return len(statuses) == 2 && statuses[1].Temperature == 21
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServiceHistoryBounded(t *testing.T) {
	rec := &pushRecorder{}
	svc := NewService(Config{PollInterval: 5 * time.Millisecond, HistorySize: 4}, rec, zerolog.Nop())
	require.NoError(t, svc.AddBackend(&fakeBackend{id: "garden", value: 20}))

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		values, _, err := svc.History("garden")
		return err == nil && len(values) == 4
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	values, times, err := svc.History("garden")
	require.NoError(t, err)
	assert.Len(t, values, 4)
	assert.Len(t, times, 4)

	_, _, err = svc.History("ghost")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestServiceStartStopIdempotent(t *testing.T) {
	svc := NewService(Config{PollInterval: 10 * time.Millisecond}, &pushRecorder{}, zerolog.Nop())
	require.NoError(t, svc.AddBackend(&fakeBackend{id: "garden", value: 20}))

	svc.Start(context.Background())
	svc.Start(context.Background())
	svc.Stop()
	svc.Stop()
}
