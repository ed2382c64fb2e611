// Package gateway adapts the external payment processors (card network, PIX
// settlement, boleto issuer) behind one interface. Vendor status vocabulary
// is translated to the internal enumeration inside each variant; nothing
// vendor-specific leaks past this package.
package gateway

import (
	"context"
	"io"
	"net/http"

	"github.com/example/docecostura/internal/models"
)

// ChargeDetails carries the method-specific fields supplied at checkout.
type ChargeDetails struct {
	// CardToken is the client-side tokenized card reference.
	CardToken string `json:"card_token"`
	// Payer identification used by PIX and boleto.
	Email          string `json:"email"`
	Name           string `json:"name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

// Result is the uniform outcome shape shared by both operations.
type Result struct {
	Success       bool
	Status        models.PaymentStatus
	TransactionID string
	Message       string
	Data          map[string]any
}

// Gateway is implemented once per payment processor.
type Gateway interface {
	// Charge submits a new transaction. Transport failures never propagate:
	// they come back as a declined Result carrying the raw error text.
	Charge(ctx context.Context, payment *models.Payment, order *models.Order, details ChargeDetails) Result
	// QueryStatus polls the processor for an existing transaction id and
	// maps its status vocabulary to the internal one.
	QueryStatus(ctx context.Context, payment *models.Payment) (Result, error)
}

// Dispatcher selects the gateway for a payment method. The mapping is built
// once at startup; methods without a backing processor simply resolve to
// nothing and the orchestrator declines them.
type Dispatcher struct {
	byMethod map[models.PaymentMethod]Gateway
}

// NewDispatcher wires the configured variants. Nil entries are skipped so a
// deployment can run with a subset of processors enabled.
func NewDispatcher(card, pix, boleto Gateway) *Dispatcher {
	d := &Dispatcher{byMethod: make(map[models.PaymentMethod]Gateway)}
	if card != nil {
		d.byMethod[models.MethodCreditCard] = card
	}
	if pix != nil {
		d.byMethod[models.MethodPix] = pix
	}
	if boleto != nil {
		d.byMethod[models.MethodBoleto] = boleto
	}
	return d
}

// For returns the gateway handling the given method.
func (d *Dispatcher) For(method models.PaymentMethod) (Gateway, bool) {
	g, ok := d.byMethod[method]
	return g, ok
}

func declined(message string, data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["error"]; !ok {
		data["error"] = message
	}
	return Result{
		Success: false,
		Status:  models.PaymentStatusDeclined,
		Message: message,
		Data:    data,
	}
}

func readBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return body
}
