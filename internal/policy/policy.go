// Package policy decides which authenticated callers may perform which task
// operations. Routes and services consult the same table.
package policy

import (
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// Action names a task operation.
type Action string

const (
	ActionCreateTask       Action = "task:create"
	ActionListAllTasks     Action = "task:list_all"
	ActionListOwnTasks     Action = "task:list_own"
	ActionReadTask         Action = "task:read"
	ActionUpdateTask       Action = "task:update"
	ActionUpdateTaskStatus Action = "task:update_status"
	ActionDeleteTask       Action = "task:delete"
	ActionListUsers        Action = "user:list"
)

// Rule is the access condition attached to an action.
type Rule int

const (
	// RuleAuthenticated admits any authenticated caller.
	RuleAuthenticated Rule = iota
	// RuleAdmin admits admins only.
	RuleAdmin
	// RuleAdminOrAssignee admits admins and the task's assignee.
	RuleAdminOrAssignee
)

var rules = map[Action]Rule{
	ActionCreateTask:       RuleAdmin,
	ActionListAllTasks:     RuleAdmin,
	ActionListOwnTasks:     RuleAuthenticated,
	ActionReadTask:         RuleAdminOrAssignee,
	ActionUpdateTask:       RuleAdmin,
	ActionUpdateTaskStatus: RuleAdminOrAssignee,
	ActionDeleteTask:       RuleAdmin,
	ActionListUsers:        RuleAuthenticated,
}

// RuleFor returns the rule for an action. Unknown actions are admin-only.
func RuleFor(action Action) Rule {
	rule, ok := rules[action]
	if !ok {
		return RuleAdmin
	}
	return rule
}

// Precheck applies the part of the rule that needs no target resource. It
// runs before the task is loaded, so role-gated operations answer 403 even
// for missing tasks.
func Precheck(identity *domain.Identity, action Action) error {
	if identity == nil {
		return apperrors.NewUnauthorized("Not authorized")
	}
	if RuleFor(action) == RuleAdmin {
		return auth.RequireRole(identity, domain.RoleAdmin)
	}
	return nil
}

// Authorize applies the full rule against a loaded task.
func Authorize(identity *domain.Identity, action Action, task *domain.Task) error {
	if err := Precheck(identity, action); err != nil {
		return err
	}
	if RuleFor(action) != RuleAdminOrAssignee {
		return nil
	}
	if identity.IsAdmin() || task.IsAssignedTo(identity.ID) {
		return nil
	}
	if action == ActionUpdateTaskStatus {
		return apperrors.NewForbidden("You are not authorized to update this task")
	}
	return apperrors.NewForbidden("Access denied")
}
