package task

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

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

func (p *pushRecorder) byType(msgType knut.MessageType) []recordedPush {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []recordedPush
	for _, push := range p.pushes {
		if push.msgType == msgType {
			matched = append(matched, push)
		}
	}
	return matched
}

func (p *pushRecorder) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = nil
}

func newTestService(t *testing.T) (*Service, *pushRecorder, string) {
	t.Helper()

	dir := t.TempDir()
	rec := &pushRecorder{}
	svc := NewService(NewStore(dir, zerolog.Nop()), rec, zerolog.Nop())
	t.Cleanup(svc.Stop)
	return svc, rec, dir
}

func TestServiceUpsertCreates(t *testing.T) {
	svc, rec, dir := newTestService(t)

	created, wasCreated, err := svc.Upsert(Patch{
		Title:    strp("water plants"),
		Author:   strp("ada"),
		Due:      int64p(time.Now().Unix() + 3600),
		Reminder: int64p(600),
	})
	require.NoError(t, err)
	assert.True(t, wasCreated)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "water plants", created.Title)

	// Write-through: the task file exists immediately
	_, err = os.Stat(filepath.Join(dir, created.ID+".json"))
	assert.NoError(t, err)

	// The new state is pushed to all clients
	pushes := rec.byType(knut.TaskResponse)
	require.Len(t, pushes, 1)
	assert.Equal(t, created, pushes[0].payload)

	// The reminder is armed
	assert.Equal(t, 1, svc.scheduler.Armed())
}

func TestServiceUpsertUpdates(t *testing.T) {
	svc, rec, _ := newTestService(t)

	created, _, err := svc.Upsert(Patch{Title: strp("water plants")})
	require.NoError(t, err)
	rec.reset()

	updated, wasCreated, err := svc.Upsert(Patch{ID: created.ID, Done: boolp(true)})
	require.NoError(t, err)
	assert.False(t, wasCreated)
	assert.True(t, updated.Done)
	assert.Equal(t, "water plants", updated.Title)

	pushes := rec.byType(knut.TaskResponse)
	require.Len(t, pushes, 1)
	assert.Equal(t, updated, pushes[0].payload)
}

func TestServiceUpsertUnknownID(t *testing.T) {
	svc, rec, _ := newTestService(t)

	_, _, err := svc.Upsert(Patch{ID: "ghost", Title: strp("nope")})
	require.ErrorIs(t, err, ErrUnknownTask)
	assert.Empty(t, rec.byType(knut.TaskResponse))
}

func TestServiceDelete(t *testing.T) {
	svc, _, dir := newTestService(t)

	created, _, err := svc.Upsert(Patch{
		Title: strp("buy milk"),
		Due:   int64p(time.Now().Unix() + 3600),
	})
	require.NoError(t, err)
	require.Equal(t, 1, svc.scheduler.Armed())

	require.NoError(t, svc.Delete(created.ID))
	assert.Empty(t, svc.All())
	assert.Equal(t, 0, svc.scheduler.Armed())

	_, err = os.Stat(filepath.Join(dir, created.ID+".json"))
	assert.True(t, os.IsNotExist(err))

	require.ErrorIs(t, svc.Delete(created.ID), ErrUnknownTask)
}

func TestServiceLoadRestoresTasks(t *testing.T) {
	dir := t.TempDir()
	rec := &pushRecorder{}

	first := NewService(NewStore(dir, zerolog.Nop()), rec, zerolog.Nop())
	pending, _, err := first.Upsert(Patch{
		Title:    strp("water plants"),
		Due:      int64p(time.Now().Unix() + 3600),
		Reminder: int64p(600),
	})
	require.NoError(t, err)
	done, _, err := first.Upsert(Patch{Title: strp("buy milk"), Done: boolp(true)})
	require.NoError(t, err)
	first.Stop()

	second := NewService(NewStore(dir, zerolog.Nop()), rec, zerolog.Nop())
	t.Cleanup(second.Stop)
	require.NoError(t, second.Load())

	all := second.All()
	require.Len(t, all, 2)
	got := map[string]Task{all[0].ID: all[0], all[1].ID: all[1]}
	assert.Equal(t, pending, got[pending.ID])
	assert.Equal(t, done, got[done.ID])

	// Only the pending future task re-arms its reminder
	assert.Equal(t, 1, second.scheduler.Armed())
}

func TestServiceKeepsTaskWhenStoreFails(t *testing.T) {
	rec := &pushRecorder{}
	svc := NewService(NewStore("", zerolog.Nop()), rec, zerolog.Nop())
	t.Cleanup(svc.Stop)

	created, _, err := svc.Upsert(Patch{Title: strp("memory only")})
	require.NoError(t, err)

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "memory only", got.Title)
	assert.Len(t, rec.byType(knut.TaskResponse), 1)
}

func TestServiceAllOrdered(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, title := range []string{"c", "a", "b"} {
		_, _, err := svc.Upsert(Patch{Title: strp(title)})
		require.NoError(t, err)
	}

	all := svc.All()
	require.Len(t, all, 3)
	assert.True(t, all[0].ID < all[1].ID && all[1].ID < all[2].ID)
}
