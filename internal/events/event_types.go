package events

import (
	"time"

	"github.com/spec-kit/task-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskCreated       EventType = "task_created"
	EventTaskUpdated       EventType = "task_updated"
	EventTaskStatusChanged EventType = "task_status_changed"
	EventTaskDeleted       EventType = "task_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TaskID    string      `json:"task_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	Title      string              `json:"title"`
	Priority   domain.TaskPriority `json:"priority"`
	DueDate    time.Time           `json:"due_date"`
	AssignedTo string              `json:"assigned_to"`
}

// TaskUpdatedPayload payload.
type TaskUpdatedPayload struct {
	Fields        []string `json:"fields"`
	AssignedTo    string   `json:"assigned_to"`
	OldAssignedTo string   `json:"old_assigned_to,omitempty"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	OldStatus  domain.TaskStatus `json:"old_status"`
	NewStatus  domain.TaskStatus `json:"new_status"`
	AssignedTo string            `json:"assigned_to"`
}

// TaskDeletedPayload payload.
type TaskDeletedPayload struct {
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
}
