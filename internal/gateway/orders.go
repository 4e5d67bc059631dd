package gateway

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/materialsdesk/internal/orders"
)

// OrderClient is the order half of the marketplace API, called on behalf of
// one admin session.
type OrderClient struct {
	client *Client
	tokens TokenSource
}

// NewOrderClient binds client to the session that owns tokens.
func NewOrderClient(client *Client, tokens TokenSource) *OrderClient {
	return &OrderClient{client: client, tokens: tokens}
}

var _ orders.Gateway = (*OrderClient)(nil)

// GetOrderDetails fetches the order with its payment, delivery and history.
func (o *OrderClient) GetOrderDetails(ctx context.Context, leadID string) (*orders.OrderDetails, error) {
	var details orders.OrderDetails
	err := o.client.DoJSON(ctx, o.tokens, Request{
		Method: http.MethodGet,
		Path:   []string{"orders", leadID},
	}, &details)
	if err != nil {
		return nil, err
	}
	if details.StatusHistory == nil {
		details.StatusHistory = []orders.StatusHistoryEntry{}
	}
	return &details, nil
}

func (o *OrderClient) mutate(ctx context.Context, leadID, action string, payload orders.Payload) error {
	if payload == nil {
		payload = orders.Payload{}
	}
	return o.client.DoJSON(ctx, o.tokens, Request{
		Method: http.MethodPut,
		Path:   []string{"orders", leadID, action},
		Body:   payload,
	}, nil)
}

// MarkPaymentDone records a manual customer payment.
func (o *OrderClient) MarkPaymentDone(ctx context.Context, leadID string, payload orders.Payload) error {
	return o.mutate(ctx, leadID, "payment", payload)
}

// ConfirmOrder confirms the order after vendor pricing.
func (o *OrderClient) ConfirmOrder(ctx context.Context, leadID string, payload orders.Payload) error {
	return o.mutate(ctx, leadID, "confirm", payload)
}

// UpdateOrderStatus transitions the order status.
func (o *OrderClient) UpdateOrderStatus(ctx context.Context, leadID string, payload orders.Payload) error {
	return o.mutate(ctx, leadID, "status", payload)
}

// UpdateDelivery replaces or merges the delivery sub-record.
func (o *OrderClient) UpdateDelivery(ctx context.Context, leadID string, payload orders.Payload) error {
	return o.mutate(ctx, leadID, "delivery", payload)
}

// MarkAsDelivered closes the order as delivered.
func (o *OrderClient) MarkAsDelivered(ctx context.Context, leadID string, payload orders.Payload) error {
	return o.mutate(ctx, leadID, "delivered", payload)
}

// CancelOrder closes the order as cancelled.
func (o *OrderClient) CancelOrder(ctx context.Context, leadID string, payload orders.Payload) error {
	return o.mutate(ctx, leadID, "cancel", payload)
}

// ListQuery filters the parent order list.
type ListQuery struct {
	Page   int
	Limit  int
	Status orders.Status
	Search string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// OrderList is one page of orders.
type OrderList struct {
	Orders []orders.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// ListOrders fetches one page of the order list.
func (o *OrderClient) ListOrders(ctx context.Context, q ListQuery) (*OrderList, error) {
	var list OrderList
	err := o.client.DoJSON(ctx, o.tokens, Request{
		Method: http.MethodGet,
		Path:   []string{"orders"},
		Query:  q.values(),
	}, &list)
	if err != nil {
		return nil, err
	}
	if list.Orders == nil {
		list.Orders = []orders.Order{}
	}
	return &list, nil
}

// Document is a downloaded order document.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// DownloadOrderDocument fetches the PDF of the given type for an order.
func (o *OrderClient) DownloadOrderDocument(ctx context.Context, leadID string, doc orders.DocumentType) (*Document, error) {
	if !doc.Valid() {
		return nil, fmt.Errorf("unknown document type %q", doc)
	}
	resp, err := o.client.Do(ctx, o.tokens, Request{
		Method: http.MethodGet,
		Path:   []string{"orders", leadID, "pdf", string(doc)},
		Accept: "application/pdf",
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	return &Document{
		Data:        resp.Body,
		ContentType: contentType,
		Filename:    documentFilename(resp.Header.Get("Content-Disposition"), leadID, doc),
	}, nil
}

func documentFilename(disposition, leadID string, doc orders.DocumentType) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("%s-%s.pdf", doc, leadID)
}
