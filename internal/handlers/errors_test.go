package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/orders"
)

func TestErrorResponse(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"fiber error", fiber.NewError(fiber.StatusNotFound, "order view is not open"), http.StatusNotFound, "order view is not open"},
		{"validation", &orders.ValidationError{Field: "reason", Message: "Please provide a reason for cancellation"}, http.StatusUnprocessableEntity, "Please provide a reason for cancellation"},
		{"gateway client error", &gateway.APIError{Status: 409, Message: "Order already delivered"}, http.StatusConflict, "Order already delivered"},
		{"gateway outage", &gateway.APIError{Status: 503, Message: "Service unavailable"}, http.StatusBadGateway, "Service unavailable"},
		{"session expired", fmt.Errorf("%w: refresh rejected", gateway.ErrSessionExpired), http.StatusUnauthorized, "Your session has expired. Please log in again."},
		{"in flight", orders.ErrSubmitInFlight, http.StatusConflict, orders.ErrSubmitInFlight.Error()},
		{"unavailable", orders.ErrActionUnavailable, http.StatusConflict, orders.ErrActionUnavailable.Error()},
		{"unknown dialog", fmt.Errorf("%w: %q", orders.ErrUnknownDialog, "refund"), http.StatusBadRequest, `unknown dialog: "refund"`},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := errorResponse(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestErrorResponse_FieldErrorsAndLogout(t *testing.T) {
	_, body := errorResponse(&gateway.APIError{
		Status:      422,
		Message:     "Validation failed",
		FieldErrors: orders.FieldErrors{"driverPhone": "Invalid phone"},
	})
	assert.Equal(t, orders.FieldErrors{"driverPhone": "Invalid phone"}, body["errors"])

	_, body = errorResponse(gateway.ErrSessionExpired)
	assert.Equal(t, true, body["logout"])
}
