package comment

import (
	"backend-picshare/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/:id/comments", func(c *fiber.Ctx) error {
		var input CreateCommentInput
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		created, err := svc.CreateComment(c.UserContext(), c.Params("id"), input.Text, auth.FromFiber(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})
}
