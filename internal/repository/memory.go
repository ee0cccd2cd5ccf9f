package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/task-service/internal/domain"
)

var (
	_ UserRepository = (*MemoryUserRepository)(nil)
	_ TaskRepository = (*MemoryTaskRepository)(nil)
)

// MemoryUserRepository keeps users in process memory. It backs development
// mode when no database is configured, and the tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	order   []string
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *MemoryUserRepository) CountAndPage(_ context.Context, page Page) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start, end := page.window(len(r.order))
	users := make([]domain.User, 0, end-start)
	for _, id := range r.order[start:end] {
		user := r.byID[id]
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, int64(len(r.order)), nil
}

// Delete removes a user. The service never deletes users; this exists so
// dangling task references and stale sessions can be exercised.
func (r *MemoryUserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemoryUserRepository) ref(id string) *domain.UserRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil
	}
	return &domain.UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
}

// MemoryTaskRepository keeps tasks in process memory, resolving user
// references against a MemoryUserRepository.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	users *MemoryUserRepository
	now   func() time.Time
}

// NewMemoryTaskRepository returns an empty store.
func NewMemoryTaskRepository(users *MemoryUserRepository) *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[string]domain.Task),
		users: users,
		now:   time.Now,
	}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	stored := *task
	stored.Assignee, stored.Assigner = nil, nil
	r.tasks[task.ID] = stored
	return nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task *domain.Task, fields []TaskField) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[task.ID]
	if !ok {
		return ErrNotFound
	}
	if len(fields) == 0 {
		return nil
	}
	for _, field := range fields {
		switch field {
		case TaskFieldTitle:
			stored.Title = task.Title
		case TaskFieldDescription:
			stored.Description = task.Description
		case TaskFieldPriority:
			stored.Priority = task.Priority
		case TaskFieldDueDate:
			stored.DueDate = task.DueDate
		case TaskFieldAssignedTo:
			stored.AssignedTo = task.AssignedTo
		default:
			return fmt.Errorf("unknown task field %q", field)
		}
	}
	stored.UpdatedAt = r.now()
	r.tasks[task.ID] = stored
	task.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryTaskRepository) UpdateStatus(_ context.Context, id string, status domain.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = r.now()
	r.tasks[id] = stored
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	task, ok := r.tasks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	r.resolve(&task)
	return &task, nil
}

func (r *MemoryTaskRepository) CountAndPage(_ context.Context, filter TaskFilter, page Page) ([]domain.Task, int64, error) {
	r.mu.RLock()
	matched := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if filter.AssignedTo != nil && task.AssignedTo != *filter.AssignedTo {
			continue
		}
		matched = append(matched, task)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DueDate.Equal(matched[j].DueDate) {
			return matched[i].DueDate.Before(matched[j].DueDate)
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	start, end := page.window(len(matched))
	result := make([]domain.Task, 0, end-start)
	for _, task := range matched[start:end] {
		r.resolve(&task)
		result = append(result, task)
	}
	return result, int64(len(matched)), nil
}

func (r *MemoryTaskRepository) resolve(task *domain.Task) {
	if r.users == nil {
		return
	}
	task.Assignee = r.users.ref(task.AssignedTo)
	task.Assigner = r.users.ref(task.AssignedBy)
}
