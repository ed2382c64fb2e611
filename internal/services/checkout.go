// Package services holds the business logic behind the HTTP handlers: the
// checkout orchestrator, the order ledger and the notification helpers.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/docecostura/internal/gateway"
	"github.com/example/docecostura/internal/metrics"
	"github.com/example/docecostura/internal/models"
	"github.com/example/docecostura/internal/store"
)

var (
	ErrCartNotFound    = errors.New("no active cart for user")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInsufficientStock is returned in strict stock mode when a cart line
	// asks for more units than the catalog holds.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CheckoutInput is the request body for the checkout endpoint.
type CheckoutInput struct {
	Address       string               `json:"address" validate:"required"`
	City          string               `json:"city" validate:"required"`
	State         string               `json:"state" validate:"required,len=2,alpha"`
	Zipcode       string               `json:"zipcode" validate:"required,min=8,max=9"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=credit_card debit_card pix bank_transfer boleto"`

	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Discount    decimal.Decimal `json:"discount"`

	PaymentDetails gateway.ChargeDetails `json:"payment_details"`
}

// CheckoutResult is what the checkout endpoint returns: the created order
// plus the outcome of the payment dispatch. The order exists even when the
// payment was declined; the client retries payment against the same order.
type CheckoutResult struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment"`
	// Success is the gateway's acceptance flag: true for a settled card
	// charge and for an accepted PIX/boleto submission awaiting settlement.
	Success bool `json:"success"`
	// Approved is true only when the gateway settled the charge synchronously.
	Approved bool `json:"approved"`
	// Message is the human-readable gateway outcome.
	Message string `json:"message"`
}

// StatusCheckResult reports one reconciliation poll.
type StatusCheckResult struct {
	Payment *models.Payment `json:"payment"`
	// Updated is true when this poll moved the payment to a new status.
	Updated bool `json:"updated"`
	// Success is false when the gateway could not be reached; the stored
	// payment is left untouched in that case.
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CheckoutService turns an active cart into an order and a payment attempt,
// and reconciles pending payments against their gateways afterwards.
type CheckoutService struct {
	carts    store.CartStore
	products store.ProductStore
	payments store.PaymentStore
	ledger   *OrderLedger
	gateways *gateway.Dispatcher
	notifier *TelegramService
	metrics  *metrics.PaymentMetrics
	validate *validator.Validate

	// strictStock makes checkout refuse orders that would oversell. Off by
	// default: the decrement is then applied without a floor and stock may
	// go negative under concurrent checkouts.
	strictStock bool
}

// NewCheckoutService wires the orchestrator. notifier and m may be nil.
func NewCheckoutService(
	carts store.CartStore,
	products store.ProductStore,
	orders store.OrderStore,
	payments store.PaymentStore,
	gateways *gateway.Dispatcher,
	notifier *TelegramService,
	m *metrics.PaymentMetrics,
	strictStock bool,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		products:    products,
		payments:    payments,
		ledger:      NewOrderLedger(orders),
		gateways:    gateways,
		notifier:    notifier,
		metrics:     m,
		validate:    validator.New(),
		strictStock: strictStock,
	}
}

// Ledger exposes the order ledger for read paths.
func (s *CheckoutService) Ledger() *OrderLedger {
	return s.ledger
}

// Checkout runs the full conversion: validate input, load the active cart,
// write the order with line snapshots, decrement stock, consume the cart,
// dispatch the payment and persist the outcome.
//
// The steps are sequential, not transactional. A crash between them leaves
// partial state (an order without stock movement, a consumed cart with a
// failed dispatch); the reconciliation poll and support tooling deal with it.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	// Step 1: resolve the active cart.
	cart, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("load active cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}
	for _, item := range cart.Items {
		if item.Product == nil {
			return nil, fmt.Errorf("cart item %s has no product loaded", item.ID)
		}
	}

	// Step 2: in strict mode every line is checked against current stock
	// before anything is written. The default mode skips this entirely.
	if s.strictStock {
		for _, item := range cart.Items {
			if item.Product.Stock < item.Quantity {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, item.Product.Name)
			}
		}
	}

	// Step 3: write the order with price snapshots taken now.
	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		ShippingAddress: input.Address,
		ShippingCity:    input.City,
		ShippingState:   input.State,
		ShippingZipcode: input.Zipcode,
		Subtotal:        cart.Subtotal(),
		ShippingFee:     input.ShippingFee,
		Discount:        input.Discount,
		PaymentMethod:   input.PaymentMethod,
	}
	for _, item := range cart.Items {
		s.ledger.AddItem(order, item.Product, item.Quantity)
	}
	if err := s.ledger.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Step 4: move stock. Each line is its own update; a failure is logged
	// and the remaining lines still run.
	for _, item := range cart.Items {
		if err := s.decrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[Checkout] stock decrement failed for product %s on order %s: %v",
				item.ProductID, order.OrderNumber, err)
		}
	}

	// Step 5: consume the cart.
	if err := s.carts.Deactivate(ctx, cart.ID); err != nil {
		log.Printf("[Checkout] cart deactivation failed for cart %s: %v", cart.ID, err)
	}

	// Step 6: dispatch payment.
	payment := &models.Payment{
		OrderID: order.ID,
		Amount:  order.Total,
		Method:  input.PaymentMethod,
		Status:  models.PaymentStatusPending,
	}
	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	res := s.dispatch(ctx, payment, order, input.PaymentDetails)

	payment.Status = res.Status
	payment.TransactionID = res.TransactionID
	payment.TransactionData = res.Data
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("persist payment outcome: %w", err)
	}

	// Step 7: synchronous approval (card) marks the order paid right away.
	if res.Status == models.PaymentStatusApproved {
		s.settleOrder(ctx, order, payment)
	}

	if s.notifier != nil {
		notified := *order
		go func() {
			if err := s.notifier.NotifyNewOrder(&notified); err != nil {
				log.Printf("[Telegram] new order notification for order %s: %v", notified.OrderNumber, err)
			}
		}()
	}

	s.countCheckout(input.PaymentMethod, res.Status)
	return &CheckoutResult{
		Order:    order,
		Payment:  payment,
		Success:  res.Success,
		Approved: res.Status == models.PaymentStatusApproved,
		Message:  res.Message,
	}, nil
}

// CheckStatus reconciles one payment with its gateway. Non-pending payments
// are returned as-is without a gateway call. A transport failure reports
// Success=false and mutates nothing.
func (s *CheckoutService) CheckStatus(ctx context.Context, paymentID uuid.UUID) (*StatusCheckResult, error) {
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	if payment.Status != models.PaymentStatusPending {
		s.countStatusCheck("settled")
		return &StatusCheckResult{Payment: payment, Success: true}, nil
	}
	if payment.TransactionID == "" {
		s.countStatusCheck("no_transaction")
		return &StatusCheckResult{Payment: payment, Success: true, Message: "payment has no gateway transaction"}, nil
	}

	gw, ok := s.gateways.For(payment.Method)
	if !ok {
		s.countStatusCheck("unsupported")
		return &StatusCheckResult{Payment: payment, Success: false,
			Message: fmt.Sprintf("no gateway configured for %s", payment.Method)}, nil
	}

	started := time.Now()
	res, err := gw.QueryStatus(ctx, payment)
	s.observeGateway(payment.Method, "query_status", started)
	if err != nil {
		log.Printf("[Payment] status query failed for payment %s: %v", payment.ID, err)
		s.countStatusCheck("error")
		return &StatusCheckResult{Payment: payment, Success: false, Message: err.Error()}, nil
	}

	if res.Status == payment.Status {
		s.countStatusCheck("unchanged")
		return &StatusCheckResult{Payment: payment, Success: true}, nil
	}

	merged := mergeData(payment.TransactionData, res.Data)
	applied, err := s.payments.UpdateStatusCAS(ctx, payment.ID, models.PaymentStatusPending, res.Status, merged)
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	if !applied {
		// Another poll won the race; reload and report its result.
		payment, err = s.payments.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, fmt.Errorf("reload payment: %w", err)
		}
		s.countStatusCheck("raced")
		return &StatusCheckResult{Payment: payment, Success: true}, nil
	}

	payment.Status = res.Status
	payment.TransactionData = merged

	if res.Status == models.PaymentStatusApproved {
		order, err := s.ledger.Get(ctx, payment.OrderID)
		if err != nil {
			log.Printf("[Payment] order %s missing for approved payment %s: %v", payment.OrderID, payment.ID, err)
		} else {
			s.settleOrder(ctx, order, payment)
		}
	}

	s.countStatusCheck("updated")
	return &StatusCheckResult{Payment: payment, Updated: true, Success: true}, nil
}

// dispatch resolves the gateway for the method and runs the charge. Methods
// without a configured processor come back declined, never as an error: the
// order already exists and the client must learn its number.
func (s *CheckoutService) dispatch(ctx context.Context, payment *models.Payment, order *models.Order, details gateway.ChargeDetails) gateway.Result {
	gw, ok := s.gateways.For(payment.Method)
	if !ok {
		return gateway.Result{
			Success: false,
			Status:  models.PaymentStatusDeclined,
			Message: fmt.Sprintf("payment method %s is not supported", payment.Method),
			Data:    map[string]any{"error": "unsupported payment method"},
		}
	}

	started := time.Now()
	res := gw.Charge(ctx, payment, order, details)
	s.observeGateway(payment.Method, "charge", started)
	return res
}

// settleOrder flips the order to paid exactly once and fires the
// notification when this call performed the transition.
func (s *CheckoutService) settleOrder(ctx context.Context, order *models.Order, payment *models.Payment) {
	transitioned, err := s.ledger.MarkAsPaid(ctx, order.ID, payment.TransactionID)
	if err != nil {
		log.Printf("[Checkout] mark order %s as paid: %v", order.OrderNumber, err)
		return
	}
	if !transitioned {
		return
	}
	order.Status = models.OrderStatusPaid
	order.PaymentID = payment.TransactionID

	if s.notifier != nil {
		go func(number string, amount decimal.Decimal, method models.PaymentMethod) {
			if err := s.notifier.NotifyPaymentSuccess(number, amount, method); err != nil {
				log.Printf("[Telegram] payment notification for order %s: %v", number, err)
			}
		}(order.OrderNumber, payment.Amount, payment.Method)
	}
}

func (s *CheckoutService) decrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if s.strictStock {
		err := s.products.DecrementStockChecked(ctx, productID, qty)
		if errors.Is(err, store.ErrInsufficientStock) {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
		}
		return err
	}
	return s.products.DecrementStock(ctx, productID, qty)
}

func (s *CheckoutService) countCheckout(method models.PaymentMethod, status models.PaymentStatus) {
	if s.metrics == nil {
		return
	}
	s.metrics.Checkouts.WithLabelValues(string(method), string(status)).Inc()
}

func (s *CheckoutService) countStatusCheck(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StatusChecks.WithLabelValues(result).Inc()
}

func (s *CheckoutService) observeGateway(method models.PaymentMethod, op string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.GatewayLatency.WithLabelValues(string(method), op).
		Observe(float64(time.Since(started).Milliseconds()))
}

func mergeData(existing, update map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}
