package task

import "testing"

func strp(v string) *string { return &v }
func boolp(v bool) *bool    { return &v }
func int64p(v int64) *int64 { return &v }

func TestMerge(t *testing.T) {
	base := Task{
		ID:          "t1",
		Assignee:    "ada",
		Author:      "bob",
		Title:       "water plants",
		Description: "the ones on the balcony",
		Due:         1000,
		Reminder:    100,
	}

	tests := []struct {
		name           string
		patch          Patch
		want           Task
		wantReschedule bool
	}{
		{
			name:  "empty patch changes nothing",
			patch: Patch{ID: "t1"},
			want:  base,
		},
		{
			name:  "text fields do not reschedule",
			patch: Patch{ID: "t1", Title: strp("water all plants"), Assignee: strp("bob")},
			want: Task{
				ID: "t1", Assignee: "bob", Author: "bob",
				Title: "water all plants", Description: "the ones on the balcony",
				Due: 1000, Reminder: 100,
			},
		},
		{
			name:           "due change reschedules",
			patch:          Patch{ID: "t1", Due: int64p(2000)},
			want:           withDue(base, 2000),
			wantReschedule: true,
		},
		{
			name:           "reminder change reschedules",
			patch:          Patch{ID: "t1", Reminder: int64p(600)},
			want:           withReminder(base, 600),
			wantReschedule: true,
		},
		{
			name:           "marking done reschedules",
			patch:          Patch{ID: "t1", Done: boolp(true)},
			want:           withDone(base, true),
			wantReschedule: true,
		},
		{
			name:  "same values do not reschedule",
			patch: Patch{ID: "t1", Due: int64p(1000), Reminder: int64p(100), Done: boolp(false)},
			want:  base,
		},
		{
			name:           "zero due is a value, not absence",
			patch:          Patch{ID: "t1", Due: int64p(0)},
			want:           withDue(base, 0),
			wantReschedule: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base
			reschedule := got.merge(tt.patch)
			if got != tt.want {
				t.Errorf("merged = %+v, want %+v", got, tt.want)
			}
			if reschedule != tt.wantReschedule {
				t.Errorf("reschedule = %v, want %v", reschedule, tt.wantReschedule)
			}
		})
	}
}

func withDue(t Task, due int64) Task {
	t.Due = due
	return t
}

func withReminder(t Task, reminder int64) Task {
	t.Reminder = reminder
	return t
}

func withDone(t Task, done bool) Task {
	t.Done = done
	return t
}
