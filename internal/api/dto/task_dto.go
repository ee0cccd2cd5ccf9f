package dto

import (
	"time"

	"github.com/spec-kit/task-service/internal/domain"
)

// CreateTaskRequest payload for POST /task/create.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
	AssignedTo  string `json:"assignedTo"`
}

// UpdateTaskRequest payload for PUT /task/update/:id. Omitted fields stay nil.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	AssignedTo  *string `json:"assignedTo"`
}

// UpdateStatusRequest payload for PATCH /task/status/:id.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TaskUserRef is a resolved user reference. Name and email are empty when
// the referenced user no longer exists.
type TaskUserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    string       `json:"priority"`
	DueDate     time.Time    `json:"dueDate"`
	Status      string       `json:"status"`
	AssignedTo  *TaskUserRef `json:"assignedTo"`
	AssignedBy  *TaskUserRef `json:"assignedBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskPagination describes a page of tasks.
type TaskPagination struct {
	TotalTasks  int64 `json:"totalTasks"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
}

// NewTaskResponse maps a task to its public view.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Status:      string(task.Status),
		AssignedTo:  userRef(task.AssignedTo, task.Assignee),
		AssignedBy:  userRef(task.AssignedBy, task.Assigner),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// NewTaskResponses maps a page of tasks.
func NewTaskResponses(tasks []domain.Task) []TaskResponse {
	items := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, NewTaskResponse(&tasks[i]))
	}
	return items
}

func userRef(id string, resolved *domain.UserRef) *TaskUserRef {
	if resolved != nil {
		return &TaskUserRef{ID: resolved.ID, Name: resolved.Name, Email: resolved.Email}
	}
	if id == "" {
		return nil
	}
	return &TaskUserRef{ID: id}
}
