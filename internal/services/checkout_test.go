package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/docecostura/internal/gateway"
	"github.com/example/docecostura/internal/models"
	"github.com/example/docecostura/internal/store"
)

// fakeGateway scripts charge and status responses and records calls.
type fakeGateway struct {
	chargeResult gateway.Result
	statusResult gateway.Result
	statusErr    error

	chargeCalls int
	statusCalls int
}

func (f *fakeGateway) Charge(ctx context.Context, payment *models.Payment, order *models.Order, details gateway.ChargeDetails) gateway.Result {
	f.chargeCalls++
	return f.chargeResult
}

func (f *fakeGateway) QueryStatus(ctx context.Context, payment *models.Payment) (gateway.Result, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return gateway.Result{}, f.statusErr
	}
	return f.statusResult, nil
}

func price(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

type checkoutFixture struct {
	mem      *store.Memory
	card     *fakeGateway
	pix      *fakeGateway
	svc      *CheckoutService
	userID   uuid.UUID
	products []*models.Product
}

func newCheckoutFixture(t *testing.T, strictStock bool) *checkoutFixture {
	t.Helper()

	mem := store.NewMemory()
	userID := uuid.New()

	products := []*models.Product{
		{Name: "Kit de costura", SKU: "KIT-01", Price: price("49.90"), Stock: 10, IsActive: true},
		{Name: "Tesoura profissional", SKU: "TES-01", Price: price("120.00"), Stock: 3, IsActive: true},
	}
	for _, p := range products {
		mem.PutProduct(p)
	}

	cart := &models.Cart{
		UserID:   userID,
		IsActive: true,
		Items: []models.CartItem{
			{ProductID: products[0].ID, Quantity: 2},
			{ProductID: products[1].ID, Quantity: 1},
		},
	}
	mem.PutCart(cart)

	card := &fakeGateway{}
	pix := &fakeGateway{}
	dispatcher := gateway.NewDispatcher(card, pix, nil)

	svc := NewCheckoutService(mem, mem, mem, mem, dispatcher, nil, nil, strictStock)
	return &checkoutFixture{mem: mem, card: card, pix: pix, svc: svc, userID: userID, products: products}
}

func validInput(method models.PaymentMethod) CheckoutInput {
	return CheckoutInput{
		Address:       "Rua das Flores 123",
		City:          "Campinas",
		State:         "SP",
		Zipcode:       "13010-000",
		PaymentMethod: method,
		ShippingFee:   price("15.00"),
		PaymentDetails: gateway.ChargeDetails{
			CardToken:      "tok_visa",
			Email:          "cliente@example.com",
			Name:           "Maria Silva",
			DocumentNumber: "12345678901",
		},
	}
}

func TestCheckoutApprovedCard(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.card.chargeResult = gateway.Result{
		Success:       true,
		Status:        models.PaymentStatusApproved,
		TransactionID: "ch_123",
		Message:       "payment approved",
	}

	result, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodCreditCard))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if !result.Approved {
		t.Fatal("expected approved result")
	}
	// subtotal 2*49.90 + 120.00 = 219.80, plus 15.00 shipping
	if got := result.Order.Total; !got.Equal(price("234.80")) {
		t.Fatalf("total = %s, want 234.80", got)
	}
	if result.Order.Subtotal.Add(result.Order.ShippingFee).Sub(result.Order.Discount).Cmp(result.Order.Total) != 0 {
		t.Fatal("total does not match subtotal + shipping - discount")
	}

	stored, err := f.mem.GetOrder(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if stored.Status != models.OrderStatusPaid {
		t.Fatalf("order status = %s, want paid", stored.Status)
	}
	if stored.PaymentID != "ch_123" {
		t.Fatalf("order payment id = %q, want ch_123", stored.PaymentID)
	}
	if stored.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}
	if len(stored.Items) != 2 {
		t.Fatalf("order has %d items, want 2", len(stored.Items))
	}

	// Stock moved for both lines.
	p0, _ := f.mem.GetProduct(context.Background(), f.products[0].ID)
	if p0.Stock != 8 {
		t.Fatalf("product stock = %d, want 8", p0.Stock)
	}

	// Cart consumed.
	if _, err := f.mem.ActiveCart(context.Background(), f.userID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("active cart err = %v, want not found", err)
	}
}

func TestCheckoutDeclinedCardKeepsOrder(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.card.chargeResult = gateway.Result{
		Success: false,
		Status:  models.PaymentStatusDeclined,
		Message: "card declined: insufficient funds",
		Data:    map[string]any{"decline_code": "insufficient_funds"},
	}

	result, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodCreditCard))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if result.Approved || result.Success {
		t.Fatal("expected declined result")
	}
	if result.Payment.Status != models.PaymentStatusDeclined {
		t.Fatalf("payment status = %s, want declined", result.Payment.Status)
	}

	stored, err := f.mem.GetOrder(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if stored.Status != models.OrderStatusPending {
		t.Fatalf("order status = %s, want pending", stored.Status)
	}
	if stored.PaidAt != nil {
		t.Fatal("declined payment must not set paid_at")
	}

	// Stock is still decremented and the cart still consumed; the checkout
	// steps are not rolled back on a declined charge.
	p0, _ := f.mem.GetProduct(context.Background(), f.products[0].ID)
	if p0.Stock != 8 {
		t.Fatalf("product stock = %d, want 8", p0.Stock)
	}
}

func TestCheckoutPixStaysPending(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.pix.chargeResult = gateway.Result{
		Success:       true,
		Status:        models.PaymentStatusPending,
		TransactionID: "789",
		Message:       "PIX code generated",
		Data:          map[string]any{"pix_code": "00020126...", "qr_code_base64": "iVBOR..."},
	}

	result, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodPix))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if result.Approved {
		t.Fatal("pix checkout must not be approved synchronously")
	}
	if !result.Success {
		t.Fatal("accepted pix submission must report success")
	}
	if result.Payment.Status != models.PaymentStatusPending {
		t.Fatalf("payment status = %s, want pending", result.Payment.Status)
	}
	if result.Payment.TransactionData["pix_code"] == nil {
		t.Fatal("expected pix code in transaction data")
	}

	stored, _ := f.mem.GetOrder(context.Background(), result.Order.ID)
	if stored.Status == models.OrderStatusPaid || stored.PaidAt != nil {
		t.Fatal("pending payment must not mark the order paid")
	}
}

func TestCheckoutUnsupportedMethodDeclines(t *testing.T) {
	f := newCheckoutFixture(t, false)

	// bank_transfer passes validation but has no configured gateway.
	result, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodBankTransfer))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if result.Approved {
		t.Fatal("unsupported method must not approve")
	}
	if result.Payment.Status != models.PaymentStatusDeclined {
		t.Fatalf("payment status = %s, want declined", result.Payment.Status)
	}
	if result.Order == nil || result.Order.OrderNumber == "" {
		t.Fatal("order must still exist with its number")
	}
}

func TestCheckoutNoActiveCart(t *testing.T) {
	f := newCheckoutFixture(t, false)

	_, err := f.svc.Checkout(context.Background(), uuid.New(), validInput(models.MethodCreditCard))
	if !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("err = %v, want ErrCartNotFound", err)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, false)
	emptyUser := uuid.New()
	f.mem.PutCart(&models.Cart{UserID: emptyUser, IsActive: true})

	_, err := f.svc.Checkout(context.Background(), emptyUser, validInput(models.MethodCreditCard))
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("err = %v, want ErrCartEmpty", err)
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := newCheckoutFixture(t, false)

	input := validInput(models.MethodCreditCard)
	input.State = "São Paulo"

	if _, err := f.svc.Checkout(context.Background(), f.userID, input); err == nil {
		t.Fatal("expected validation error for long state")
	}

	input = validInput("cheque")
	if _, err := f.svc.Checkout(context.Background(), f.userID, input); err == nil {
		t.Fatal("expected validation error for unknown payment method")
	}

	if f.card.chargeCalls != 0 {
		t.Fatal("gateway must not be called on validation failure")
	}
}

func TestCheckoutOversellAllowedByDefault(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.card.chargeResult = gateway.Result{Success: true, Status: models.PaymentStatusApproved, TransactionID: "ch_1"}

	// Ask for more than the 3 units in stock.
	bigUser := uuid.New()
	f.mem.PutCart(&models.Cart{
		UserID:   bigUser,
		IsActive: true,
		Items:    []models.CartItem{{ProductID: f.products[1].ID, Quantity: 5}},
	})

	if _, err := f.svc.Checkout(context.Background(), bigUser, validInput(models.MethodCreditCard)); err != nil {
		t.Fatalf("default mode must allow oversell, got %v", err)
	}

	p, _ := f.mem.GetProduct(context.Background(), f.products[1].ID)
	if p.Stock != -2 {
		t.Fatalf("stock = %d, want -2", p.Stock)
	}
}

func TestCheckoutStrictStockRefusesOversell(t *testing.T) {
	f := newCheckoutFixture(t, true)

	bigUser := uuid.New()
	f.mem.PutCart(&models.Cart{
		UserID:   bigUser,
		IsActive: true,
		Items:    []models.CartItem{{ProductID: f.products[1].ID, Quantity: 5}},
	})

	_, err := f.svc.Checkout(context.Background(), bigUser, validInput(models.MethodCreditCard))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// Nothing was written: stock untouched, cart still active.
	p, _ := f.mem.GetProduct(context.Background(), f.products[1].ID)
	if p.Stock != 3 {
		t.Fatalf("stock = %d, want 3", p.Stock)
	}
	if _, err := f.mem.ActiveCart(context.Background(), bigUser); err != nil {
		t.Fatalf("cart must stay active, got %v", err)
	}
	if f.card.chargeCalls != 0 {
		t.Fatal("gateway must not be called")
	}
}

func TestOrderItemsSnapshotPrices(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.card.chargeResult = gateway.Result{Success: true, Status: models.PaymentStatusApproved, TransactionID: "ch_1"}

	result, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodCreditCard))
	if err != nil {
		t.Fatal(err)
	}

	// Raise the catalog price after the order is placed.
	updated := *f.products[0]
	updated.Price = price("99.99")
	f.mem.PutProduct(&updated)

	stored, err := f.mem.GetOrder(context.Background(), result.Order.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, item := range stored.Items {
		if item.ProductID == f.products[0].ID {
			if !item.UnitPrice.Equal(price("49.90")) {
				t.Fatalf("unit price = %s, want the snapshot 49.90", item.UnitPrice)
			}
			if !item.LineTotal().Equal(price("99.80")) {
				t.Fatalf("line total = %s, want 99.80", item.LineTotal())
			}
		}
	}
}

func TestCheckStatusSettledSkipsGateway(t *testing.T) {
	f := newCheckoutFixture(t, false)

	payment := &models.Payment{
		OrderID:       uuid.New(),
		Amount:        price("100.00"),
		Method:        models.MethodPix,
		Status:        models.PaymentStatusApproved,
		TransactionID: "789",
	}
	if err := f.mem.CreatePayment(context.Background(), payment); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.CheckStatus(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if result.Updated {
		t.Fatal("settled payment must not be updated")
	}
	if f.pix.statusCalls != 0 {
		t.Fatal("settled payment must not hit the gateway")
	}
}

func TestCheckStatusApprovesPendingPix(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.pix.chargeResult = gateway.Result{
		Success:       true,
		Status:        models.PaymentStatusPending,
		TransactionID: "789",
		Data:          map[string]any{"pix_code": "00020126..."},
	}

	checkout, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodPix))
	if err != nil {
		t.Fatal(err)
	}

	f.pix.statusResult = gateway.Result{
		Success:       true,
		Status:        models.PaymentStatusApproved,
		TransactionID: "789",
		Data:          map[string]any{"vendor_status": "approved"},
	}

	result, err := f.svc.CheckStatus(context.Background(), checkout.Payment.ID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if !result.Updated {
		t.Fatal("expected the poll to apply the approval")
	}
	if result.Payment.Status != models.PaymentStatusApproved {
		t.Fatalf("payment status = %s, want approved", result.Payment.Status)
	}
	// Gateway data from the charge is preserved alongside the poll data.
	if result.Payment.TransactionData["pix_code"] == nil {
		t.Fatal("charge data must survive the status merge")
	}
	if result.Payment.TransactionData["vendor_status"] != "approved" {
		t.Fatal("poll data must be merged in")
	}

	order, err := f.mem.GetOrder(context.Background(), checkout.Order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != models.OrderStatusPaid {
		t.Fatalf("order status = %s, want paid", order.Status)
	}

	// A second poll is a no-op.
	again, err := f.svc.CheckStatus(context.Background(), checkout.Payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Updated {
		t.Fatal("second poll must not update again")
	}
}

func TestCheckStatusUnchangedDoesNotMutate(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.pix.chargeResult = gateway.Result{
		Success:       true,
		Status:        models.PaymentStatusPending,
		TransactionID: "789",
	}

	checkout, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodPix))
	if err != nil {
		t.Fatal(err)
	}

	f.pix.statusResult = gateway.Result{
		Success: true,
		Status:  models.PaymentStatusPending,
	}

	result, err := f.svc.CheckStatus(context.Background(), checkout.Payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Updated {
		t.Fatal("same status must not count as an update")
	}
	if !result.Success {
		t.Fatal("reachable gateway must report success")
	}
}

func TestCheckStatusTransportErrorLeavesPaymentAlone(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.pix.chargeResult = gateway.Result{
		Success:       true,
		Status:        models.PaymentStatusPending,
		TransactionID: "789",
	}

	checkout, err := f.svc.Checkout(context.Background(), f.userID, validInput(models.MethodPix))
	if err != nil {
		t.Fatal(err)
	}

	f.pix.statusErr = errors.New("connection refused")

	result, err := f.svc.CheckStatus(context.Background(), checkout.Payment.ID)
	if err != nil {
		t.Fatalf("transport failures must not surface as errors, got %v", err)
	}
	if result.Success {
		t.Fatal("expected success=false on transport failure")
	}
	if result.Updated {
		t.Fatal("transport failure must not update the payment")
	}

	stored, _ := f.mem.GetPayment(context.Background(), checkout.Payment.ID)
	if stored.Status != models.PaymentStatusPending {
		t.Fatalf("payment status = %s, want pending", stored.Status)
	}
}

func TestCheckStatusUnknownPayment(t *testing.T) {
	f := newCheckoutFixture(t, false)

	_, err := f.svc.CheckStatus(context.Background(), uuid.New())
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}
