package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	"github.com/spec-kit/task-service/internal/service"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// TasksHandler manages task endpoints.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// Create handles POST /task/create.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	task, err := h.service.CreateTask(c.UserContext(), identity, service.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Task created successfully",
		"task":    dto.NewTaskResponse(task),
	})
}

// All handles GET /task/all.
func (h *TasksHandler) All(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c)
	tasks, total, err := h.service.ListAllTasks(c.UserContext(), identity, page)
	if err != nil {
		return err
	}
	return c.JSON(taskPage(tasks, total, page))
}

// My handles GET /task/my.
func (h *TasksHandler) My(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c)
	tasks, total, err := h.service.ListMyTasks(c.UserContext(), identity, page)
	if err != nil {
		return err
	}
	return c.JSON(taskPage(tasks, total, page))
}

// Get handles GET /task/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	task, err := h.service.GetTask(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "task": dto.NewTaskResponse(task)})
}

// Update handles PUT /task/update/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	task, err := h.service.UpdateTask(c.UserContext(), identity, c.Params("id"), service.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task updated successfully",
		"task":    dto.NewTaskResponse(task),
	})
}

// Status handles PATCH /task/status/:id.
func (h *TasksHandler) Status(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	task, err := h.service.UpdateStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task status updated successfully",
		"task":    dto.NewTaskResponse(task),
	})
}

// Delete handles DELETE /task/delete/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTask(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Task deleted successfully"})
}

func taskPage(tasks []domain.Task, total int64, page repository.Page) fiber.Map {
	return fiber.Map{
		"success": true,
		"tasks":   dto.NewTaskResponses(tasks),
		"pagination": dto.TaskPagination{
			TotalTasks:  total,
			CurrentPage: page.Number,
			TotalPages:  page.TotalPages(total),
			PageSize:    page.Size,
		},
	}
}

func currentIdentity(c *fiber.Ctx) (*domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Not authorized, token missing")
	}
	return identity, nil
}

// pageFromQuery reads page and limit; absent or non-numeric values use the defaults.
func pageFromQuery(c *fiber.Ctx) repository.Page {
	return repository.NewPage(
		parseInt(c.Query("page"), repository.DefaultPage),
		parseInt(c.Query("limit"), repository.DefaultPageSize),
	)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
