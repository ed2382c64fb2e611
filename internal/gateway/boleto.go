package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/docecostura/internal/models"
)

const (
	defaultBoletoBaseURL = "https://api.paghiper.com"
	boletoDueDays        = 3
)

// BoletoConfig holds the boleto issuer credentials, injected at construction.
type BoletoConfig struct {
	APIKey  string
	Token   string
	BaseURL string
	Timeout time.Duration
}

// BoletoGateway issues bank slips through a PagHiper-style REST API. Like
// PIX, an accepted submission is pending until the slip is paid.
type BoletoGateway struct {
	cfg    BoletoConfig
	client *http.Client
	now    func() time.Time
}

// NewBoletoGateway builds the boleto variant.
func NewBoletoGateway(cfg BoletoConfig) *BoletoGateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBoletoBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &BoletoGateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, now: time.Now}
}

type boletoCreateRequest struct {
	APIKey       string       `json:"apiKey"`
	OrderID      string       `json:"order_id"`
	PayerEmail   string       `json:"payer_email"`
	PayerName    string       `json:"payer_name"`
	PayerCPFCNPJ string       `json:"payer_cpf_cnpj"`
	DaysDueDate  int          `json:"days_due_date"`
	TypeBankSlip string       `json:"type_bank_slip"`
	Items        []boletoItem `json:"items"`
}

type boletoItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
}

type boletoCreateResponse struct {
	Result          string `json:"result"`
	ResponseMessage string `json:"response_message"`
	Transaction     struct {
		TransactionID string `json:"transaction_id"`
		DueDate       string `json:"due_date"`
		BankSlip      struct {
			DigitableLine string `json:"digitable_line"`
			URLSlip       string `json:"url_slip"`
			URLSlipPDF    string `json:"url_slip_pdf"`
		} `json:"bank_slip"`
	} `json:"transaction"`
}

type boletoStatusRequest struct {
	APIKey        string `json:"apiKey"`
	Token         string `json:"token"`
	TransactionID string `json:"transaction_id"`
}

type boletoStatusResponse struct {
	Result string `json:"result"`
	Status struct {
		Status   string `json:"status"`
		PaidDate string `json:"paid_date"`
	} `json:"status"`
}

// Charge issues a slip due in three business days.
func (g *BoletoGateway) Charge(ctx context.Context, payment *models.Payment, order *models.Order, details ChargeDetails) Result {
	dueDate := g.now().AddDate(0, 0, boletoDueDays).Format("2006-01-02")

	payload := boletoCreateRequest{
		APIKey:       g.cfg.APIKey,
		OrderID:      order.OrderNumber,
		PayerEmail:   details.Email,
		PayerName:    details.Name,
		PayerCPFCNPJ: details.DocumentNumber,
		DaysDueDate:  boletoDueDays,
		TypeBankSlip: "boletoA4",
		Items: []boletoItem{{
			Description: fmt.Sprintf("Pedido #%s", order.OrderNumber),
			Quantity:    1,
			PriceCents:  payment.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return declined("marshal boleto payload: "+err.Error(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/transaction/create/", bytes.NewReader(body))
	if err != nil {
		return declined(err.Error(), nil)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return declined("boleto request failed: "+err.Error(), nil)
	}
	respBody := readBody(resp)

	var created boletoCreateResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return declined("malformed boleto gateway response: "+err.Error(), nil)
	}

	if created.Result != "success" {
		return declined("could not generate boleto", map[string]any{
			"error":    created.ResponseMessage,
			"response": string(respBody),
		})
	}

	return Result{
		Success:       true,
		Status:        models.PaymentStatusPending,
		TransactionID: created.Transaction.TransactionID,
		Message:       "boleto generated",
		Data: map[string]any{
			"barcode":         created.Transaction.BankSlip.DigitableLine,
			"pdf_url":         created.Transaction.BankSlip.URLSlipPDF,
			"url_slip":        created.Transaction.BankSlip.URLSlip,
			"expiration_date": dueDate,
		},
	}
}

// QueryStatus polls the issuer and maps the vocabulary: paid -> approved,
// pending -> pending, canceled -> declined, refunded -> refunded.
func (g *BoletoGateway) QueryStatus(ctx context.Context, payment *models.Payment) (Result, error) {
	payload := boletoStatusRequest{
		APIKey:        g.cfg.APIKey,
		Token:         g.cfg.Token,
		TransactionID: payment.TransactionID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/transaction/status/", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("boleto status request failed: %w", err)
	}
	respBody := readBody(resp)

	var current boletoStatusResponse
	if err := json.Unmarshal(respBody, &current); err != nil {
		return Result{}, fmt.Errorf("unmarshal boleto status response: %w", err)
	}
	if current.Result != "success" {
		return Result{}, fmt.Errorf("boleto status query failed: %s", string(respBody))
	}

	return Result{
		Success:       true,
		Status:        mapBoletoStatus(current.Status.Status),
		TransactionID: payment.TransactionID,
		Data: map[string]any{
			"vendor_status": current.Status.Status,
			"paid_date":     current.Status.PaidDate,
		},
	}, nil
}

func mapBoletoStatus(vendor string) models.PaymentStatus {
	switch vendor {
	case "paid":
		return models.PaymentStatusApproved
	case "pending":
		return models.PaymentStatusPending
	case "canceled":
		return models.PaymentStatusDeclined
	case "refunded":
		return models.PaymentStatusRefunded
	}
	return models.PaymentStatusPending
}
