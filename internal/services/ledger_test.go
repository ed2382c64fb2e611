package services

import (
	"context"
	"errors"
	"testing"

	"github.com/example/docecostura/internal/models"
	"github.com/example/docecostura/internal/store"
)

// dupOrderStore wraps Memory to fail the first n inserts with a duplicate
// order number.
type dupOrderStore struct {
	*store.Memory
	failures int
}

func (s *dupOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if s.failures > 0 {
		s.failures--
		return store.ErrDuplicateOrderNumber
	}
	return s.Memory.CreateOrder(ctx, order)
}

func TestLedgerCreateFixesTotal(t *testing.T) {
	mem := store.NewMemory()
	ledger := NewOrderLedger(mem)

	order := &models.Order{
		Subtotal:    price("219.80"),
		ShippingFee: price("15.00"),
		Discount:    price("20.00"),
	}
	if err := ledger.Create(context.Background(), order); err != nil {
		t.Fatalf("create: %v", err)
	}

	if !order.Total.Equal(price("214.80")) {
		t.Fatalf("total = %s, want 214.80", order.Total)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if len(order.OrderNumber) != 16 {
		t.Fatalf("order number %q is not 16 digits", order.OrderNumber)
	}
}

func TestLedgerCreateRetriesDuplicateNumbers(t *testing.T) {
	ledger := NewOrderLedger(&dupOrderStore{Memory: store.NewMemory(), failures: 2})

	order := &models.Order{Subtotal: price("10.00")}
	if err := ledger.Create(context.Background(), order); err != nil {
		t.Fatalf("create should survive two collisions, got %v", err)
	}
	if order.OrderNumber == "" {
		t.Fatal("order number not assigned")
	}
}

func TestLedgerCreateGivesUpAfterThreeCollisions(t *testing.T) {
	ledger := NewOrderLedger(&dupOrderStore{Memory: store.NewMemory(), failures: 3})

	err := ledger.Create(context.Background(), &models.Order{Subtotal: price("10.00")})
	if !errors.Is(err, store.ErrDuplicateOrderNumber) {
		t.Fatalf("err = %v, want ErrDuplicateOrderNumber", err)
	}
}

func TestLedgerMarkAsPaidRunsOnce(t *testing.T) {
	mem := store.NewMemory()
	ledger := NewOrderLedger(mem)

	order := &models.Order{Subtotal: price("50.00")}
	if err := ledger.Create(context.Background(), order); err != nil {
		t.Fatal(err)
	}

	first, err := ledger.MarkAsPaid(context.Background(), order.ID, "txn_1")
	if err != nil {
		t.Fatal(err)
	}
	if !first {
		t.Fatal("first transition must apply")
	}

	second, err := ledger.MarkAsPaid(context.Background(), order.ID, "txn_2")
	if err != nil {
		t.Fatal(err)
	}
	if second {
		t.Fatal("second transition must be a no-op")
	}

	stored, err := mem.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PaymentID != "txn_1" {
		t.Fatalf("payment id = %q, want the first transaction to win", stored.PaymentID)
	}
	if stored.PaidAt == nil {
		t.Fatal("paid_at must be set")
	}
}
