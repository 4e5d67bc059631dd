package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/middleware"
	"github.com/example/materialsdesk/internal/orders"
	"github.com/example/materialsdesk/internal/services"
)

// OrderViewHandler drives the order detail views of the current session.
type OrderViewHandler struct {
	workspace *services.Workspace
}

// NewOrderViewHandler constructs OrderViewHandler.
func NewOrderViewHandler(workspace *services.Workspace) *OrderViewHandler {
	return &OrderViewHandler{workspace: workspace}
}

// Open opens (or reopens) the detail view of an order.
func (h *OrderViewHandler) Open(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	view := h.workspace.View(sess, leadIDParam(c))
	return respondWithView(c, view, view.Open(c.UserContext()))
}

// Get returns the current state of an open view.
func (h *OrderViewHandler) Get(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return respondWithView(c, view, nil)
}

// Refresh re-fetches the order of an open view.
func (h *OrderViewHandler) Refresh(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return respondWithView(c, view, view.Refresh(c.UserContext()))
}

// Close closes the view and discards its drafts.
func (h *OrderViewHandler) Close(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.workspace.Close(sess, leadIDParam(c)) {
		return fiber.NewError(fiber.StatusNotFound, "order view is not open")
	}
	return c.JSON(fiber.Map{"success": true})
}

type switchTabRequest struct {
	Tab orders.Tab `json:"tab"`
}

// SwitchTab changes the visible section of the view.
func (h *OrderViewHandler) SwitchTab(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}

	var req switchTabRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return respondWithView(c, view, view.SwitchTab(req.Tab))
}

// OpenDialog opens a workflow dialog with its prefilled draft.
func (h *OrderViewHandler) OpenDialog(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return respondWithView(c, view, view.OpenDialog(c.Params("dialog")))
}

// PatchDialog merges the request body into the dialog's draft.
func (h *OrderViewHandler) PatchDialog(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return respondWithView(c, view, view.PatchDialog(c.Params("dialog"), c.Body()))
}

// CloseDialog discards the dialog's draft.
func (h *OrderViewHandler) CloseDialog(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return respondWithView(c, view, view.CloseDialog(c.Params("dialog")))
}

// SubmitDialog validates the draft and sends it to the marketplace API.
func (h *OrderViewHandler) SubmitDialog(c *fiber.Ctx) error {
	view, err := h.lookup(c)
	if err != nil {
		return err
	}
	return respondWithView(c, view, view.SubmitDialog(c.UserContext(), c.Params("dialog")))
}

func (h *OrderViewHandler) lookup(c *fiber.Ctx) (*orders.Controller, error) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	view, ok := h.workspace.Lookup(sess, leadIDParam(c))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "order view is not open")
	}
	return view, nil
}

// leadIDParam copies the route param; fiber reuses its buffer after the
// handler returns and views outlive the request.
func leadIDParam(c *fiber.Ctx) string {
	return strings.Clone(c.Params("leadId"))
}

// respondWithView renders the view snapshot, with the error mapped the same
// way ErrorHandler maps it. An expired session goes through ErrorHandler so
// the client sees the logout flag alone.
func respondWithView(c *fiber.Ctx, view *orders.Controller, err error) error {
	if err == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    view.Snapshot(),
		})
	}
	if errors.Is(err, gateway.ErrSessionExpired) {
		return err
	}

	status, body := errorResponse(err)
	logServerError(c, status, err)
	body["data"] = view.Snapshot()
	return c.Status(status).JSON(body)
}
