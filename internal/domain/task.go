package domain

import (
	"strings"
	"time"
)

// TaskStatus enumerates the closed status vocabulary for tasks.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskPriority enumerates task urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ParseTaskStatus accepts only the closed status vocabulary. There is no
// transition graph: any of the three states may follow any other.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	switch TaskStatus(value) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return TaskStatus(value), true
	default:
		return "", false
	}
}

// ParseTaskPriority validates a priority value.
func ParseTaskPriority(value string) (TaskPriority, bool) {
	switch TaskPriority(value) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return TaskPriority(value), true
	default:
		return "", false
	}
}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func ParseDueDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// UserRef is a weak reference to a user, resolved on read.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// Task is work an admin delegates to a user.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    TaskPriority
	DueDate     time.Time
	Status      TaskStatus
	AssignedTo  string
	AssignedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by the store on read; nil when the referenced user is gone.
	Assignee *UserRef
	Assigner *UserRef
}

// IsAssignedTo reports whether the task is delegated to the given user.
func (t *Task) IsAssignedTo(userID string) bool {
	return t != nil && userID != "" && t.AssignedTo == userID
}
