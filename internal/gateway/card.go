package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/docecostura/internal/models"
)

const defaultCardBaseURL = "https://api.stripe.com"

// CardConfig holds the card processor credentials, injected at construction.
type CardConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// CardGateway charges tokenized cards through a Stripe-style REST API.
// Charges settle synchronously: a "succeeded" response is final approval.
type CardGateway struct {
	cfg    CardConfig
	client *http.Client
}

// NewCardGateway builds the card variant.
func NewCardGateway(cfg CardConfig) *CardGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCardBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &CardGateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type cardCharge struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Refunded       bool   `json:"refunded"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
	Outcome        struct {
		Type          string `json:"type"`
		SellerMessage string `json:"seller_message"`
	} `json:"outcome"`
	PaymentMethodDetails struct {
		Card struct {
			Brand string `json:"brand"`
			Last4 string `json:"last4"`
		} `json:"card"`
	} `json:"payment_method_details"`
}

type cardErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Message     string `json:"message"`
	} `json:"error"`
}

// Charge submits the amount in minor currency units together with the
// client-supplied card token.
func (g *CardGateway) Charge(ctx context.Context, payment *models.Payment, order *models.Order, details ChargeDetails) Result {
	amountMinor := payment.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", "brl")
	form.Set("source", details.CardToken)
	form.Set("description", fmt.Sprintf("Pedido #%s", order.OrderNumber))
	form.Set("metadata[order_id]", order.ID.String())
	form.Set("metadata[customer_id]", order.UserID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return declined(err.Error(), nil)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return declined("card charge request failed: "+err.Error(), nil)
	}
	body := readBody(resp)

	if resp.StatusCode == http.StatusPaymentRequired {
		var cardErr cardErrorResponse
		_ = json.Unmarshal(body, &cardErr)
		return declined("card declined: "+cardErr.Error.Message, map[string]any{
			"error":        cardErr.Error.Message,
			"error_code":   cardErr.Error.Code,
			"decline_code": cardErr.Error.DeclineCode,
		})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return declined(fmt.Sprintf("card gateway returned status %d", resp.StatusCode), map[string]any{
			"error":    fmt.Sprintf("status %d", resp.StatusCode),
			"response": string(body),
		})
	}

	var charge cardCharge
	if err := json.Unmarshal(body, &charge); err != nil {
		return declined("malformed card gateway response: "+err.Error(), nil)
	}

	success := charge.Status == "succeeded"
	status := models.PaymentStatusPending
	message := "payment is being processed"
	if success {
		status = models.PaymentStatusApproved
		message = "payment approved"
	}

	return Result{
		Success:       success,
		Status:        status,
		TransactionID: charge.ID,
		Message:       message,
		Data: map[string]any{
			"card_brand":    charge.PaymentMethodDetails.Card.Brand,
			"card_last4":    charge.PaymentMethodDetails.Card.Last4,
			"response_code": charge.Outcome.Type,
			"response":      charge.Outcome.SellerMessage,
		},
	}
}

// QueryStatus retrieves the charge and maps the processor vocabulary:
// succeeded -> approved, pending -> pending, failed -> declined, plus the
// refunded flag taking precedence.
func (g *CardGateway) QueryStatus(ctx context.Context, payment *models.Payment) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/v1/charges/"+payment.TransactionID, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("card status request failed: %w", err)
	}
	body := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("card gateway returned status %d", resp.StatusCode)
	}

	var charge cardCharge
	if err := json.Unmarshal(body, &charge); err != nil {
		return Result{}, fmt.Errorf("unmarshal card status response: %w", err)
	}

	return Result{
		Success:       true,
		Status:        mapCardStatus(charge),
		TransactionID: charge.ID,
		Data: map[string]any{
			"vendor_status": charge.Status,
		},
	}, nil
}

func mapCardStatus(charge cardCharge) models.PaymentStatus {
	if charge.Refunded {
		return models.PaymentStatusRefunded
	}
	switch charge.Status {
	case "succeeded":
		return models.PaymentStatusApproved
	case "pending":
		return models.PaymentStatusPending
	case "failed":
		return models.PaymentStatusDeclined
	}
	return models.PaymentStatusPending
}
