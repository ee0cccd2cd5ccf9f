package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/observability"
	"github.com/spec-kit/task-service/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Tasks   *handlers.TasksHandler
	Guard   *auth.AccessGuard
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	users := app.Group("/user")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Post("/logout", cfg.Users.Logout)
	users.Get("/profile", cfg.Guard.Handle, cfg.Users.Profile)
	users.Get("/list", cfg.Guard.Handle, requireAction(policy.ActionListUsers), cfg.Users.List)

	tasks := app.Group("/task", cfg.Guard.Handle)
	tasks.Post("/create", requireAction(policy.ActionCreateTask), cfg.Tasks.Create)
	tasks.Get("/all", requireAction(policy.ActionListAllTasks), cfg.Tasks.All)
	tasks.Get("/my", requireAction(policy.ActionListOwnTasks), cfg.Tasks.My)
	tasks.Put("/update/:id", requireAction(policy.ActionUpdateTask), cfg.Tasks.Update)
	tasks.Patch("/status/:id", requireAction(policy.ActionUpdateTaskStatus), cfg.Tasks.Status)
	tasks.Delete("/delete/:id", requireAction(policy.ActionDeleteTask), cfg.Tasks.Delete)
	tasks.Get("/:id", requireAction(policy.ActionReadTask), cfg.Tasks.Get)
}
