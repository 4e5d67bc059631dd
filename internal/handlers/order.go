package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/middleware"
	"github.com/example/materialsdesk/internal/orders"
	"github.com/example/materialsdesk/internal/services"
	"github.com/example/materialsdesk/internal/session"
	"github.com/example/materialsdesk/internal/utils"
)

// PermissionOrdersUpdate guards every order mutation.
const PermissionOrdersUpdate = "orders.update"

// OrderClientFactory binds the order API to one admin session.
type OrderClientFactory func(sess *session.Session) *gateway.OrderClient

// OrderHandler serves the read-only order endpoints.
type OrderHandler struct {
	orders OrderClientFactory
	audit  *services.AuditService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(factory OrderClientFactory, audit *services.AuditService) *OrderHandler {
	return &OrderHandler{orders: factory, audit: audit}
}

// ListOrders returns one page of the marketplace order list.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pagination := utils.ParsePagination(c)
	status := orders.Status(strings.TrimSpace(c.Query("status")))
	if status != "" && !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
	}

	list, err := h.orders(sess).ListOrders(c.UserContext(), gateway.ListQuery{
		Page:   pagination.Page,
		Limit:  pagination.Limit,
		Status: status,
		Search: c.Query("search"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list.Orders,
		"meta": fiber.Map{
			"total": list.Total,
			"page":  pagination.Page,
			"limit": pagination.Limit,
		},
	})
}

type statusEntry struct {
	Key         orders.Status   `json:"key"`
	Label       string          `json:"label"`
	Terminal    bool            `json:"terminal"`
	Transitions []orders.Status `json:"transitions"`
}

// StatusCatalog lists the order statuses with their labels and transitions.
func (h *OrderHandler) StatusCatalog(c *fiber.Ctx) error {
	statuses := orders.Statuses()
	entries := make([]statusEntry, 0, len(statuses))
	for _, st := range statuses {
		entries = append(entries, statusEntry{
			Key:         st,
			Label:       st.DisplayName(),
			Terminal:    st.IsTerminal(),
			Transitions: orders.AllowedTransitions(st),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"statuses":       entries,
			"indianStates":   orders.IndianStates(),
			"paymentMethods": []orders.PaymentMethod{orders.PaymentCash, orders.PaymentUPI, orders.PaymentBankTransfer, orders.PaymentCheque, orders.PaymentCard, orders.PaymentOther},
			"documents":      []orders.DocumentType{orders.DocumentPurchaseOrder, orders.DocumentQuote, orders.DocumentSalesOrder, orders.DocumentInvoice, orders.DocumentEWayBill},
		},
	})
}

// DownloadDocument streams an order PDF from the marketplace API.
func (h *OrderHandler) DownloadDocument(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	doc := orders.DocumentType(c.Params("type"))
	if !doc.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown document type %q", doc))
	}

	file, err := h.orders(sess).DownloadOrderDocument(c.UserContext(), c.Params("leadId"), doc)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Send(file.Data)
}

// ListActions returns the console's audit trail for an order.
func (h *OrderHandler) ListActions(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)
	actions, err := h.audit.List(c.UserContext(), c.Params("leadId"), pagination.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    actions,
	})
}

type quoteRequest struct {
	Items []orders.ItemPriceDraft `json:"items"`
}

// Quote prices vendor items with the same arithmetic as the status dialog.
func (h *OrderHandler) Quote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	quote := orders.AddPricesDraft{Items: req.Items}.Quote()
	return c.JSON(fiber.Map{
		"success": true,
		"data":    quote,
	})
}
