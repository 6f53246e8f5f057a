// Package task implements the task capability: shared reminders with
// a due date, persisted as one JSON file per task and announced to
// every client when the reminder falls due.
package task
