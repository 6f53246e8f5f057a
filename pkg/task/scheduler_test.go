package task

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knut-protocol/knut-go/pkg/knut"
)

// reminderSink captures reminder pushes on a channel.
type reminderSink struct {
	ch chan Reminder
}

func newReminderSink() *reminderSink {
	return &reminderSink{ch: make(chan Reminder, 16)}
}

func (p *reminderSink) Publish(capID knut.CapabilityID, msgType knut.MessageType, payload any) {
	if r, ok := payload.(Reminder); ok {
		p.ch <- r
	}
}

func TestReminderDelay(t *testing.T) {
	now := time.Unix(850, 0)

	tests := []struct {
		name  string
		task  Task
		want  time.Duration
		armed bool
	}{
		{
			name:  "due in the future",
			task:  Task{Due: 1000, Reminder: 100},
			want:  50 * time.Second,
			armed: true,
		},
		{
			name:  "no lead time",
			task:  Task{Due: 1000},
			want:  150 * time.Second,
			armed: true,
		},
		{
			name:  "reminder exactly now",
			task:  Task{Due: 950, Reminder: 100},
			want:  0,
			armed: true,
		},
		{
			name: "reminder already passed",
			task: Task{Due: 900, Reminder: 100},
		},
		{
			name: "due already passed",
			task: Task{Due: 100, Reminder: 10},
		},
		{
			name: "done task",
			task: Task{Due: 1000, Reminder: 100, Done: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, armed := reminderDelay(tt.task, now)
			assert.Equal(t, tt.armed, armed)
			if tt.armed {
				assert.Equal(t, tt.want, delay)
			}
		})
	}
}

func TestSchedulerFires(t *testing.T) {
	sink := newReminderSink()
	sched := NewScheduler(sink, zerolog.Nop())
	defer sched.Stop()

	sched.Schedule(Task{ID: "t1", Due: time.Now().Unix() + 2, Reminder: 0})
	require.Equal(t, 1, sched.Armed())

	select {
	case r := <-sink.ch:
		assert.Equal(t, Reminder{ID: "t1", Reminder: 0}, r)
	case <-time.After(5 * time.Second):
		t.Fatal("reminder did not fire")
	}
	assert.Equal(t, 0, sched.Armed())
}

func TestSchedulerSkipsDoneAndPast(t *testing.T) {
	sink := newReminderSink()
	sched := NewScheduler(sink, zerolog.Nop())
	defer sched.Stop()

	sched.Schedule(Task{ID: "done", Due: time.Now().Unix() + 60, Done: true})
	sched.Schedule(Task{ID: "past", Due: time.Now().Unix() - 60})
	assert.Equal(t, 0, sched.Armed())
}

func TestSchedulerCancel(t *testing.T) {
	sink := newReminderSink()
	sched := NewScheduler(sink, zerolog.Nop())
	defer sched.Stop()

	sched.Schedule(Task{ID: "t1", Due: time.Now().Unix() + 60})
	require.Equal(t, 1, sched.Armed())

	sched.Cancel("t1")
	assert.Equal(t, 0, sched.Armed())

	// Canceling an unknown id is fine
	sched.Cancel("ghost")
}

func TestSchedulerReplacesOnReschedule(t *testing.T) {
	sink := newReminderSink()
	sched := NewScheduler(sink, zerolog.Nop())
	defer sched.Stop()

	task := Task{ID: "t1", Due: time.Now().Unix() + 60}
	sched.Schedule(task)
	sched.Schedule(task)
	assert.Equal(t, 1, sched.Armed())

	// Rescheduling a now-done task disarms it
	task.Done = true
	sched.Schedule(task)
	assert.Equal(t, 0, sched.Armed())
}

func TestSchedulerStop(t *testing.T) {
	sink := newReminderSink()
	sched := NewScheduler(sink, zerolog.Nop())

	sched.Schedule(Task{ID: "t1", Due: time.Now().Unix() + 60})
	sched.Schedule(Task{ID: "t2", Due: time.Now().Unix() + 60})
	require.Equal(t, 2, sched.Armed())

	sched.Stop()
	assert.Equal(t, 0, sched.Armed())
}
