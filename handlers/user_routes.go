// handlers/user_routes.go
package handlers

import (
	"academy-reward-system/middleware"
	"academy-reward-system/models"
	"academy-reward-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupUserRoutes(app *fiber.App, rewardService *services.RewardService, levelService *services.LevelService, tokenManager *services.TokenManager) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		user, err := rewardService.EnsureUser(userID)
		if err != nil {
			return respondError(c, err)
		}
		level, err := levelService.CurrentLevel(userID)
		if err != nil {
			return respondError(c, err)
		}

		response := fiber.Map{
			"point_count":           user.PointCount,
			"last_week_point_count": user.LastWeekPointCount,
			"raffle_amount":         user.RaffleAmount,
		}
		if level != nil {
			response["level"] = fiber.Map{
				"id":   level.ID,
				"name": level.Name,
			}
		}
		return c.JSON(response)
	})

	secured.Get("/user/notifications", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var notifications []models.Notification
		if err := rewardService.DB.
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(50).
			Find(&notifications).Error; err != nil {
			return respondError(c, err)
		}
		return c.JSON(notifications)
	})

	secured.Post("/user/notifications/:id/read", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		notificationID := c.Params("id")
		if _, err := uuid.Parse(notificationID); err != nil {
			return respondError(c, services.Validation("invalid notification ID"))
		}

		res := rewardService.DB.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Update("read", true)
		if res.Error != nil {
			return respondError(c, res.Error)
		}
		if res.RowsAffected == 0 {
			return respondError(c, services.NotFound("notification not found"))
		}
		return c.JSON(fiber.Map{"message": "OK", "read": true})
	})

	// Social account linking. The OAuth dance happens upstream; this endpoint
	// receives the resulting credential set and enforces the one-active-account
	// invariant.
	secured.Post("/user/social/twitter", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			TwitterUserID string `json:"twitter_user_id"`
			AccessToken   string `json:"access_token"`
			RefreshToken  string `json:"refresh_token"`
			ExpiresIn     int    `json:"expires_in"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, services.Validation("invalid request body"))
		}
		if req.TwitterUserID == "" || req.AccessToken == "" || req.RefreshToken == "" {
			return respondError(c, services.Validation("twitter_user_id, access_token and refresh_token are required"))
		}

		acct, err := tokenManager.Connect(userID, req.TwitterUserID, req.AccessToken, req.RefreshToken, req.ExpiresIn)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(acct)
	})

	secured.Delete("/user/social/twitter", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := tokenManager.Disconnect(userID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Social account disconnected"})
	})
}
