package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/orders"
)

// ErrorHandler renders every handler error as {"success": false, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	logServerError(c, status, err)
	return c.Status(status).JSON(body)
}

func logServerError(c *fiber.Ctx, status int, err error) {
	if status >= fiber.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}
}

func errorResponse(err error) (int, fiber.Map) {
	body := fiber.Map{"success": false, "message": err.Error()}

	var fe *fiber.Error
	var ve *orders.ValidationError
	var ae *gateway.APIError
	switch {
	case errors.As(err, &fe):
		return fe.Code, body
	case errors.As(err, &ve):
		body["field"] = ve.Field
		return fiber.StatusUnprocessableEntity, body
	case errors.Is(err, gateway.ErrSessionExpired):
		body["message"] = "Your session has expired. Please log in again."
		body["logout"] = true
		return fiber.StatusUnauthorized, body
	case errors.As(err, &ae):
		body["message"] = ae.UserMessage()
		if len(ae.FieldErrors) > 0 {
			body["errors"] = ae.FieldErrors
		}
		return gatewayStatus(ae.Status), body
	case errors.Is(err, orders.ErrSubmitInFlight),
		errors.Is(err, orders.ErrActionUnavailable),
		errors.Is(err, orders.ErrDialogClosed),
		errors.Is(err, orders.ErrNotLoaded):
		return fiber.StatusConflict, body
	case errors.Is(err, orders.ErrUnknownTab),
		errors.Is(err, orders.ErrUnknownDialog),
		errors.Is(err, orders.ErrMalformedDraft):
		return fiber.StatusBadRequest, body
	}

	body["message"] = "internal server error"
	return fiber.StatusInternalServerError, body
}

// gatewayStatus keeps client errors as they are and reports upstream failures
// as a bad gateway. A 401 from the gateway never reaches here: it either
// refreshes or expires the session.
func gatewayStatus(status int) int {
	if status >= 400 && status < 500 {
		return status
	}
	return fiber.StatusBadGateway
}
