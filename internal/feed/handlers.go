package feed

import (
	"backend-picshare/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		items, err := svc.ListPosts(c.UserContext(), auth.FromFiber(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"posts": items})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		detail, err := svc.GetPost(c.UserContext(), c.Params("id"), auth.FromFiber(c))
		if err != nil {
			return err
		}
		return c.JSON(detail)
	})
}
