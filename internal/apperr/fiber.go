package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// FiberHandler renders every error returned by a handler as
// {message, status, violations?}.
func FiberHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &fiberErr):
			appErr = &Error{Kind: kindForStatus(fiberErr.Code), Message: fiberErr.Message, Status: fiberErr.Code}
		default:
			appErr = Internal(err)
		}

		if appErr.Kind == KindInternal {
			logger.Error().
				Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		}
		return c.Status(appErr.Status).JSON(appErr)
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		return KindAuthorization
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return KindValidation
	case fiber.StatusConflict:
		return KindConflict
	}
	if status >= fiber.StatusInternalServerError {
		return KindInternal
	}
	return KindValidation
}
