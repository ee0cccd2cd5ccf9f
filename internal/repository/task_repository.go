package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/task-service/internal/domain"
)

// TaskField names an editable task field.
type TaskField string

const (
	TaskFieldTitle       TaskField = "title"
	TaskFieldDescription TaskField = "description"
	TaskFieldPriority    TaskField = "priority"
	TaskFieldDueDate     TaskField = "dueDate"
	TaskFieldAssignedTo  TaskField = "assignedTo"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssignedTo *string
}

// TaskRepository encapsulates task persistence. Reads resolve the assignee
// and assigner references; a reference to a missing user resolves to nil.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task, fields []TaskField) error
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	CountAndPage(ctx context.Context, filter TaskFilter, page Page) ([]domain.Task, int64, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskSelect = `
        SELECT t.id, t.title, t.description, t.priority, t.due_date, t.status,
               t.assigned_to, t.assigned_by, t.created_at, t.updated_at,
               ua.id, ua.name, ua.email, ub.id, ub.name, ub.email
        FROM tasks t
        LEFT JOIN users ua ON ua.id = t.assigned_to
        LEFT JOIN users ub ON ub.id = t.assigned_by`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, priority, due_date, status, assigned_to, assigned_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Priority,
		task.DueDate,
		task.Status,
		task.AssignedTo,
		task.AssignedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

// Update writes only the named fields of task. Status is written only by
// UpdateStatus. Concurrent writes to different fields never undo each other.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task, fields []TaskField) error {
	if !validID(task.ID) {
		return ErrNotFound
	}
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, field := range fields {
		column, value, err := taskColumn(task, field)
		if err != nil {
			return err
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, task.ID)

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id=$%d RETURNING updated_at`, strings.Join(sets, ", "), len(args))
	err := r.pool.QueryRow(ctx, query, args...).Scan(&task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func taskColumn(task *domain.Task, field TaskField) (string, any, error) {
	switch field {
	case TaskFieldTitle:
		return "title", task.Title, nil
	case TaskFieldDescription:
		return "description", task.Description, nil
	case TaskFieldPriority:
		return "priority", task.Priority, nil
	case TaskFieldDueDate:
		return "due_date", task.DueDate, nil
	case TaskFieldAssignedTo:
		return "assigned_to", task.AssignedTo, nil
	default:
		return "", nil, fmt.Errorf("unknown task field %q", field)
	}
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	rows, err := r.pool.Query(ctx, taskSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return &tasks[0], nil
}

func (r *taskRepository) CountAndPage(ctx context.Context, filter TaskFilter, page Page) ([]domain.Task, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssignedTo != nil {
		if !validID(*filter.AssignedTo) {
			return []domain.Task{}, 0, nil
		}
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page.Beyond(total) {
		return []domain.Task{}, total, nil
	}
	offset, _ := page.Offset()

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.due_date ASC, t.created_at ASC LIMIT %d OFFSET %d`,
		taskSelect, where, page.Size, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func scanTasks(rows pgx.Rows) ([]domain.Task, error) {
	result := []domain.Task{}
	for rows.Next() {
		var task domain.Task
		var assigneeID, assigneeName, assigneeEmail *string
		var assignerID, assignerName, assignerEmail *string
		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.DueDate,
			&task.Status,
			&task.AssignedTo,
			&task.AssignedBy,
			&task.CreatedAt,
			&task.UpdatedAt,
			&assigneeID,
			&assigneeName,
			&assigneeEmail,
			&assignerID,
			&assignerName,
			&assignerEmail,
		); err != nil {
			return nil, err
		}
		task.Assignee = userRef(assigneeID, assigneeName, assigneeEmail)
		task.Assigner = userRef(assignerID, assignerName, assignerEmail)
		result = append(result, task)
	}
	return result, rows.Err()
}

func userRef(id, name, email *string) *domain.UserRef {
	if id == nil {
		return nil
	}
	ref := &domain.UserRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	if email != nil {
		ref.Email = *email
	}
	return ref
}
