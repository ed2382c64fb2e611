package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/docecostura/internal/models"
)

const (
	defaultPixBaseURL = "https://api.mercadopago.com"
	pixExpiryWindow   = 24 * time.Hour
)

// PixConfig holds the PIX processor credentials, injected at construction.
type PixConfig struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
}

// PixGateway generates PIX charges through a Mercado Pago-style REST API.
// Settlement is asynchronous: an accepted submission is always pending and
// carries the scannable code for the payer.
type PixGateway struct {
	cfg    PixConfig
	client *http.Client
	now    func() time.Time
}

// NewPixGateway builds the PIX variant.
func NewPixGateway(cfg PixConfig) *PixGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultPixBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &PixGateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, now: time.Now}
}

type pixChargeRequest struct {
	TransactionAmount float64  `json:"transaction_amount"`
	Description       string   `json:"description"`
	PaymentMethodID   string   `json:"payment_method_id"`
	Payer             pixPayer `json:"payer"`
	DateOfExpiration  string   `json:"date_of_expiration"`
}

type pixPayer struct {
	Email          string            `json:"email"`
	Identification pixIdentification `json:"identification"`
}

type pixIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type pixPaymentResponse struct {
	ID                 int64  `json:"id"`
	Status             string `json:"status"`
	StatusDetail       string `json:"status_detail"`
	DateLastUpdated    string `json:"date_last_updated"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// Charge submits the PIX payment with a 24-hour expiration deadline.
func (g *PixGateway) Charge(ctx context.Context, payment *models.Payment, order *models.Order, details ChargeDetails) Result {
	expiresAt := g.now().Add(pixExpiryWindow)

	docType := details.DocumentType
	if docType == "" {
		docType = "CPF"
	}

	payload := pixChargeRequest{
		TransactionAmount: payment.Amount.InexactFloat64(),
		Description:       fmt.Sprintf("Pedido #%s", order.OrderNumber),
		PaymentMethodID:   "pix",
		Payer: pixPayer{
			Email: details.Email,
			Identification: pixIdentification{
				Type:   docType,
				Number: details.DocumentNumber,
			},
		},
		DateOfExpiration: expiresAt.Format("2006-01-02T15:04:05.000-07:00"),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return declined("marshal pix charge payload: "+err.Error(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return declined(err.Error(), nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.AccessToken)
	req.Header.Set("X-Idempotency-Key", payment.ID.String())

	resp, err := g.client.Do(req)
	if err != nil {
		return declined("pix charge request failed: "+err.Error(), nil)
	}
	respBody := readBody(resp)

	if resp.StatusCode != http.StatusCreated {
		return declined("could not generate PIX code", map[string]any{
			"error":    fmt.Sprintf("status %d", resp.StatusCode),
			"response": string(respBody),
		})
	}

	var created pixPaymentResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return declined("malformed pix gateway response: "+err.Error(), nil)
	}

	pixData := created.PointOfInteraction.TransactionData

	// PIX always starts pending; settlement arrives out of band.
	return Result{
		Success:       true,
		Status:        models.PaymentStatusPending,
		TransactionID: strconv.FormatInt(created.ID, 10),
		Message:       "PIX code generated",
		Data: map[string]any{
			"pix_code":       pixData.QRCode,
			"qr_code_base64": pixData.QRCodeBase64,
			"ticket_url":     pixData.TicketURL,
			"expires_at":     expiresAt.Format(time.RFC3339),
			"vendor_status":  created.Status,
		},
	}
}

// QueryStatus polls the payment and maps the processor vocabulary:
// approved -> approved, pending/in_process -> pending,
// rejected/cancelled -> declined, refunded/charged_back -> refunded.
func (g *PixGateway) QueryStatus(ctx context.Context, payment *models.Payment) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/v1/payments/"+payment.TransactionID, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.AccessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("pix status request failed: %w", err)
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("pix gateway returned status %d", resp.StatusCode)
	}

	var current pixPaymentResponse
	if err := json.Unmarshal(body, &current); err != nil {
		return Result{}, fmt.Errorf("unmarshal pix status response: %w", err)
	}

	return Result{
		Success:       true,
		Status:        mapPixStatus(current.Status),
		TransactionID: payment.TransactionID,
		Data: map[string]any{
			"vendor_status":        current.Status,
			"vendor_status_detail": current.StatusDetail,
			"last_updated":         current.DateLastUpdated,
		},
	}, nil
}

func mapPixStatus(vendor string) models.PaymentStatus {
	switch vendor {
	case "approved":
		return models.PaymentStatusApproved
	case "pending", "in_process", "authorized":
		return models.PaymentStatusPending
	case "rejected", "cancelled":
		return models.PaymentStatusDeclined
	case "refunded", "charged_back":
		return models.PaymentStatusRefunded
	}
	return models.PaymentStatusPending
}
