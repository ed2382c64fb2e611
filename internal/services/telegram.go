package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/docecostura/internal/models"
)

// TelegramService pushes order and payment notifications to the shop's admin
// chat. Every failure is logged and swallowed; notifications never break the
// checkout flow.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
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

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// FormatPrice renders a BRL amount with two decimal places.
func FormatPrice(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}

func paymentMethodLabel(method models.PaymentMethod) string {
	switch method {
	case models.MethodCreditCard:
		return "Cartão de crédito"
	case models.MethodDebitCard:
		return "Cartão de débito"
	case models.MethodPix:
		return "PIX"
	case models.MethodBoleto:
		return "Boleto"
	case models.MethodBankTransfer:
		return "Transferência bancária"
	}
	return string(method)
}

// NotifyNewOrder sends a new order notification to the admin chat.
func (s *TelegramService) NotifyNewOrder(order *models.Order) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.ProductName,
			item.Quantity,
			FormatPrice(item.UnitPrice),
			FormatPrice(item.LineTotal()),
		))
	}

	statusText := "⏳ Aguardando pagamento"
	if order.Status == models.OrderStatusPaid {
		statusText = "✅ Pago"
	}

	message := fmt.Sprintf(`<b>🛒 NOVO PEDIDO!</b>
<b>📋 Pedido:</b> %s
<b>📦 Itens:</b>
%s
<b>💰 Total:</b> %s
<b>💳 Pagamento:</b> %s
<b>📍 Status:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderNumber,
		itemsList.String(),
		FormatPrice(order.Total),
		paymentMethodLabel(order.PaymentMethod),
		statusText,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyPaymentSuccess sends a payment confirmation to the admin chat.
func (s *TelegramService) NotifyPaymentSuccess(orderNumber string, amount decimal.Decimal, method models.PaymentMethod) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>✅ PAGAMENTO CONFIRMADO!</b>
<b>📋 Pedido:</b> %s
<b>💰 Valor:</b> %s
<b>💳 Método:</b> %s
━━━━━━━━━━━━━━━━━━
<i>Doce Costura</i>`,
		orderNumber,
		FormatPrice(amount),
		paymentMethodLabel(method),
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
