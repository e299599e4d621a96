package post

import (
	"backend-picshare/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var input CreatePostInput
		if err := c.BodyParser(&input); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		created, err := svc.CreatePost(c.UserContext(), input, auth.FromFiber(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		deleted, err := svc.DeletePost(c.UserContext(), c.Params("id"), auth.FromFiber(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Post deleted", "post": deleted})
	})

	r.Post("/:id/like", func(c *fiber.Ctx) error {
		updated, err := svc.ToggleLike(c.UserContext(), c.Params("id"), auth.FromFiber(c))
		if err != nil {
			return err
		}
		return c.JSON(updated)
	})
}
