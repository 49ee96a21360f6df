// handlers/quiz_routes.go
package handlers

import (
	"academy-reward-system/middleware"
	"academy-reward-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuizRoutes(app *fiber.App, quizService *services.QuizService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/quiz/answer", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			QuestionID  string `json:"question_id"`
			ChoiceID    string `json:"choice_id"`
			SecondsLeft int    `json:"seconds_left"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, services.Validation("invalid request body"))
		}

		result, err := quizService.SubmitAnswer(userID, req.QuestionID, req.ChoiceID, req.SecondsLeft)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	secured.Post("/quiz/finish", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			AcademyID string `json:"academy_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, services.Validation("invalid request body"))
		}

		result, err := quizService.FinishQuiz(userID, req.AcademyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})
}
