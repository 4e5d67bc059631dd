package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/materialsdesk/internal/orders"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiURL      string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiURL:      telegramAPI,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether notifications can be delivered.
func (s *TelegramService) Enabled() bool {
	return s != nil && s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.botToken)
	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the operations chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹12,34,567.50.
func FormatRupees(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if len(whole) <= 3 {
		grouped = whole
	} else {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(append(parts, tail), ",")
	}

	if frac == "00" {
		return sign + "₹" + grouped
	}
	return sign + "₹" + grouped + "." + frac
}

// OrderEventNotification describes a workflow that changed an order.
type OrderEventNotification struct {
	LeadID   string
	Action   string
	Status   orders.Status
	Actor    string
	Amount   decimal.Decimal
	Reason   string
	Customer string
}

var actionTitles = map[string]string{
	orders.DialogPayment:   "💰 PAYMENT RECORDED",
	orders.DialogStatus:    "📍 STATUS UPDATED",
	orders.DialogDelivery:  "🚚 DELIVERY UPDATED",
	orders.DialogCancel:    "❌ ORDER CANCELLED",
	orders.DialogConfirm:   "✅ ORDER CONFIRMED",
	orders.DialogDelivered: "📦 ORDER DELIVERED",
}

// FormatOrderEvent builds the HTML message for n.
func FormatOrderEvent(n OrderEventNotification) string {
	title, ok := actionTitles[n.Action]
	if !ok {
		title = "📝 ORDER UPDATED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", title)
	fmt.Fprintf(&b, "<b>📋 Lead:</b> %s\n", html.EscapeString(n.LeadID))
	if n.Customer != "" {
		fmt.Fprintf(&b, "<b>👤 Customer:</b> %s\n", html.EscapeString(n.Customer))
	}
	if n.Status != "" {
		fmt.Fprintf(&b, "<b>📍 Status:</b> %s\n", html.EscapeString(n.Status.DisplayName()))
	}
	if n.Amount.IsPositive() {
		fmt.Fprintf(&b, "<b>💰 Amount:</b> %s\n", FormatRupees(n.Amount))
	}
	if n.Reason != "" {
		fmt.Fprintf(&b, "<b>📝 Reason:</b> %s\n", html.EscapeString(n.Reason))
	}
	if n.Actor != "" {
		fmt.Fprintf(&b, "<b>🧑‍💼 By:</b> %s\n", html.EscapeString(n.Actor))
	}
	b.WriteString("━━━━━━━━━━━━━━━━━━")
	return b.String()
}

// NotifyOrderEvent sends n to the operations chat.
func (s *TelegramService) NotifyOrderEvent(n OrderEventNotification) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendToAdmin(FormatOrderEvent(n))
}
