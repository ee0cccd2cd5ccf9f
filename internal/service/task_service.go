package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/policy"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// TaskService coordinates task workflows. Every operation follows the same
// order: policy precheck, load target (404), policy check, mutate.
type TaskService struct {
	tasks      repository.TaskRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TaskDependencies bundles collaborators for the task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
	AssignedTo  string
}

// TaskUpdateInput describes a partial update. A nil field is left unchanged;
// a non-nil field is applied even when empty.
type TaskUpdateInput struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *string
	AssignedTo  *string
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:      deps.TaskRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTask creates a task assigned by the calling admin.
func (s *TaskService) CreateTask(ctx context.Context, caller *domain.Identity, input TaskCreateInput) (*domain.Task, error) {
	if err := policy.Precheck(caller, policy.ActionCreateTask); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	assignedTo := strings.TrimSpace(input.AssignedTo)
	if title == "" || description == "" || input.Priority == "" || input.DueDate == "" || assignedTo == "" {
		return nil, apperrors.NewValidationError("All fields are required")
	}
	priority, ok := domain.ParseTaskPriority(input.Priority)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid priority value")
	}
	dueDate, ok := domain.ParseDueDate(input.DueDate)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid due date")
	}
	if err := s.ensureUserExists(ctx, assignedTo); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		Status:      domain.TaskStatusPending,
		AssignedTo:  assignedTo,
		AssignedBy:  caller.ID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskCreated,
		TaskID:  task.ID,
		ActorID: caller.ID,
		Payload: events.TaskCreatedPayload{
			Title:      task.Title,
			Priority:   task.Priority,
			DueDate:    task.DueDate,
			AssignedTo: task.AssignedTo,
		},
	})
	return s.reload(ctx, task)
}

// ListAllTasks returns every task, earliest due date first.
func (s *TaskService) ListAllTasks(ctx context.Context, caller *domain.Identity, page repository.Page) ([]domain.Task, int64, error) {
	if err := policy.Precheck(caller, policy.ActionListAllTasks); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repository.TaskFilter{}, page)
}

// ListMyTasks returns the tasks assigned to the caller.
func (s *TaskService) ListMyTasks(ctx context.Context, caller *domain.Identity, page repository.Page) ([]domain.Task, int64, error) {
	if err := policy.Precheck(caller, policy.ActionListOwnTasks); err != nil {
		return nil, 0, err
	}
	callerID := caller.ID
	return s.list(ctx, repository.TaskFilter{AssignedTo: &callerID}, page)
}

// GetTask returns a task to an admin or its assignee.
func (s *TaskService) GetTask(ctx context.Context, caller *domain.Identity, taskID string) (*domain.Task, error) {
	return s.loadAuthorized(ctx, caller, policy.ActionReadTask, taskID)
}

// UpdateTask applies the fields present in input.
func (s *TaskService) UpdateTask(ctx context.Context, caller *domain.Identity, taskID string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.loadAuthorized(ctx, caller, policy.ActionUpdateTask, taskID)
	if err != nil {
		return nil, err
	}

	oldAssignee := task.AssignedTo
	changed, err := applyUpdate(task, input)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return task, nil
	}
	if input.AssignedTo != nil {
		if err := s.ensureUserExists(ctx, task.AssignedTo); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Update(ctx, task, changed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Task")
		}
		return nil, apperrors.NewInternalError(err)
	}
	fields := make([]string, 0, len(changed))
	for _, field := range changed {
		fields = append(fields, string(field))
	}
	payload := events.TaskUpdatedPayload{Fields: fields, AssignedTo: task.AssignedTo}
	if oldAssignee != task.AssignedTo {
		payload.OldAssignedTo = oldAssignee
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskUpdated,
		TaskID:  task.ID,
		ActorID: caller.ID,
		Payload: payload,
	})
	return s.reload(ctx, task)
}

// UpdateStatus moves a task to any status in the closed vocabulary. Callers
// who may not touch the task get 403 whatever status they send.
func (s *TaskService) UpdateStatus(ctx context.Context, caller *domain.Identity, taskID, status string) (*domain.Task, error) {
	task, err := s.loadAuthorized(ctx, caller, policy.ActionUpdateTaskStatus, taskID)
	if err != nil {
		return nil, err
	}
	newStatus, ok := domain.ParseTaskStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid status value")
	}

	oldStatus := task.Status
	if err := s.tasks.UpdateStatus(ctx, task.ID, newStatus); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Task")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if oldStatus != newStatus {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventTaskStatusChanged,
			TaskID:  task.ID,
			ActorID: caller.ID,
			Payload: events.TaskStatusChangedPayload{
				OldStatus:  oldStatus,
				NewStatus:  newStatus,
				AssignedTo: task.AssignedTo,
			},
		})
	}
	return s.reload(ctx, task)
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, caller *domain.Identity, taskID string) error {
	task, err := s.loadAuthorized(ctx, caller, policy.ActionDeleteTask, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Task")
		}
		return apperrors.NewInternalError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskDeleted,
		TaskID:  task.ID,
		ActorID: caller.ID,
		Payload: events.TaskDeletedPayload{Title: task.Title, AssignedTo: task.AssignedTo},
	})
	return nil
}

func (s *TaskService) loadAuthorized(ctx context.Context, caller *domain.Identity, action policy.Action, taskID string) (*domain.Task, error) {
	if err := policy.Precheck(caller, action); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Task")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := policy.Authorize(caller, action, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) list(ctx context.Context, filter repository.TaskFilter, page repository.Page) ([]domain.Task, int64, error) {
	tasks, total, err := s.tasks.CountAndPage(ctx, filter, page)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	return tasks, total, nil
}

func (s *TaskService) ensureUserExists(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Assigned user")
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

// reload re-reads the task so user references come back resolved.
func (s *TaskService) reload(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	fresh, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("Task")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return fresh, nil
}

// applyUpdate copies the present fields onto task and names them.
func applyUpdate(task *domain.Task, input TaskUpdateInput) ([]repository.TaskField, error) {
	var changed []repository.TaskField
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("Title cannot be empty")
		}
		task.Title = title
		changed = append(changed, repository.TaskFieldTitle)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
		changed = append(changed, repository.TaskFieldDescription)
	}
	if input.Priority != nil {
		priority, ok := domain.ParseTaskPriority(*input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("Invalid priority value")
		}
		task.Priority = priority
		changed = append(changed, repository.TaskFieldPriority)
	}
	if input.DueDate != nil {
		dueDate, ok := domain.ParseDueDate(*input.DueDate)
		if !ok {
			return nil, apperrors.NewValidationError("Invalid due date")
		}
		task.DueDate = dueDate
		changed = append(changed, repository.TaskFieldDueDate)
	}
	if input.AssignedTo != nil {
		assignedTo := strings.TrimSpace(*input.AssignedTo)
		if assignedTo == "" {
			return nil, apperrors.NewValidationError("assignedTo cannot be empty")
		}
		task.AssignedTo = assignedTo
		changed = append(changed, repository.TaskFieldAssignedTo)
	}
	return changed, nil
}

func (s *TaskService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
