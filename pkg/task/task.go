package task

// Task is one shared reminder. Due is in unix seconds; Reminder is the
// number of seconds before Due at which clients are notified.
type Task struct {
	ID          string `json:"id"`
	Assignee    string `json:"assignee"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
	Due         int64  `json:"due"`
	Reminder    int64  `json:"reminder"`
}

// Patch is a partial task update as sent by clients. Absent fields
// keep their current value.
type Patch struct {
	ID          string  `json:"id"`
	Assignee    *string `json:"assignee,omitempty"`
	Author      *string `json:"author,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Done        *bool   `json:"done,omitempty"`
	Due         *int64  `json:"due,omitempty"`
	Reminder    *int64  `json:"reminder,omitempty"`
}

// merge applies the present fields of p onto t. It reports whether an
// input of the reminder schedule (due, reminder or done) changed.
func (t *Task) merge(p Patch) bool {
	var reschedule bool

	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Author != nil {
		t.Author = *p.Author
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Done != nil && t.Done != *p.Done {
		t.Done = *p.Done
		reschedule = true
	}
	if p.Due != nil && t.Due != *p.Due {
		t.Due = *p.Due
		reschedule = true
	}
	if p.Reminder != nil && t.Reminder != *p.Reminder {
		t.Reminder = *p.Reminder
		reschedule = true
	}
	return reschedule
}
