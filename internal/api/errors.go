package api

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/model"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func handleError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Status: status, Message: message})
}

// writeError maps a domain error to its HTTP status.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var (
		ve   validator.ValidationErrors
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &ve):
		return handleError(c, fiber.StatusBadRequest, describeValidation(ve))
	case model.IsValidation(err):
		return handleError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrOpenIntervalConflict):
		return handleError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return handleError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &ferr):
		return handleError(c, ferr.Code, ferr.Message)
	default:
		h.logger.Error("request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
		msg := "internal error"
		if errors.Is(err, model.ErrStoreUnavailable) {
			msg = model.ErrStoreUnavailable.Error()
		}
		return handleError(c, fiber.StatusInternalServerError, msg)
	}
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+": is required")
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s: must match %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// ErrorHandler renders errors escaping handlers, such as unknown routes or
// recovered panics, in the ErrorResponse shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		status = ferr.Code
	}
	return handleError(c, status, err.Error())
}
