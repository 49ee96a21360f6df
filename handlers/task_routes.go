// handlers/task_routes.go
package handlers

import (
	"log"

	"academy-reward-system/middleware"
	"academy-reward-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps the engine's typed errors to HTTP responses. Unexpected
// errors are logged with context and surfaced as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	status := services.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("💥 [HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  string(services.KindOf(err)),
	})
}

// academyIDParam reads the optional academy scope from the query string.
func academyIDParam(c *fiber.Ctx) *string {
	v := c.Query("academy_id")
	if v == "" {
		return nil
	}
	return &v
}

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService, rewardService *services.RewardService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/tasks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		tasks, err := taskService.ListTasks(userID, academyIDParam(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(tasks)
	})

	secured.Post("/tasks/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")
		if _, err := uuid.Parse(taskID); err != nil {
			return respondError(c, services.Validation("invalid task ID"))
		}

		attempt, err := taskService.StartTask(taskID, userID, academyIDParam(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Task started",
			"attempt": attempt,
		})
	})

	secured.Post("/tasks/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")
		if _, err := uuid.Parse(taskID); err != nil {
			return respondError(c, services.Validation("invalid task ID"))
		}

		result, err := taskService.CompleteTask(c.Context(), taskID, userID, academyIDParam(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	secured.Post("/tasks/:id/feedback", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.Params("id")
		if _, err := uuid.Parse(taskID); err != nil {
			return respondError(c, services.Validation("invalid task ID"))
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, services.Validation("invalid request body"))
		}

		feedback, err := taskService.SubmitFeedback(taskID, userID, req.Content)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(feedback)
	})

	// Admin surprise boost — credits through the ledger like any other event.
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/points/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID      string `json:"user_id"`
			Points      int64  `json:"points"`
			Description string `json:"description"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, services.Validation("invalid request body"))
		}
		if req.UserID == "" || req.Points <= 0 {
			return respondError(c, services.Validation("user_id and a positive points value are required"))
		}
		if req.Description == "" {
			req.Description = "Surprise points"
		}

		if _, err := rewardService.EnsureUser(req.UserID); err != nil {
			return respondError(c, err)
		}
		if err := rewardService.Credit(req.UserID, req.Points, nil, nil, req.Description); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "Points granted",
			"user_id": req.UserID,
			"points":  req.Points,
		})
	})
}
