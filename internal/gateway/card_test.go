package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/docecostura/internal/models"
)

func testPayment(amount string) *models.Payment {
	d, _ := decimal.NewFromString(amount)
	p := &models.Payment{Amount: d, Method: models.MethodCreditCard}
	p.ID = uuid.New()
	return p
}

func testOrder() *models.Order {
	o := &models.Order{OrderNumber: "2026082810001234", UserID: uuid.New()}
	o.ID = uuid.New()
	return o
}

func newCardGateway(url string) *CardGateway {
	return NewCardGateway(CardConfig{SecretKey: "sk_test", BaseURL: url, Timeout: time.Second})
}

func TestCardChargeApproved(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test" {
			t.Errorf("authorization = %q", auth)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		gotForm = map[string]string{
			"amount":   r.PostForm.Get("amount"),
			"currency": r.PostForm.Get("currency"),
			"source":   r.PostForm.Get("source"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "ch_123",
			"status": "succeeded",
			"outcome": {"type": "authorized", "seller_message": "Payment complete."},
			"payment_method_details": {"card": {"brand": "visa", "last4": "4242"}}
		}`))
	}))
	defer server.Close()

	g := newCardGateway(server.URL)
	res := g.Charge(context.Background(), testPayment("234.80"), testOrder(), ChargeDetails{CardToken: "tok_visa"})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Status != models.PaymentStatusApproved {
		t.Fatalf("status = %s, want approved", res.Status)
	}
	if res.TransactionID != "ch_123" {
		t.Fatalf("transaction id = %q", res.TransactionID)
	}
	if gotForm["amount"] != "23480" {
		t.Fatalf("amount = %q, want minor units 23480", gotForm["amount"])
	}
	if gotForm["currency"] != "brl" {
		t.Fatalf("currency = %q", gotForm["currency"])
	}
	if gotForm["source"] != "tok_visa" {
		t.Fatalf("source = %q", gotForm["source"])
	}
	if res.Data["card_last4"] != "4242" {
		t.Fatalf("card_last4 = %v", res.Data["card_last4"])
	}
}

func TestCardChargeDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"code": "card_declined", "decline_code": "insufficient_funds", "message": "Your card has insufficient funds."}}`))
	}))
	defer server.Close()

	g := newCardGateway(server.URL)
	res := g.Charge(context.Background(), testPayment("50.00"), testOrder(), ChargeDetails{CardToken: "tok_chargeDeclined"})

	if res.Success {
		t.Fatal("expected declined")
	}
	if res.Status != models.PaymentStatusDeclined {
		t.Fatalf("status = %s, want declined", res.Status)
	}
	if res.Data["decline_code"] != "insufficient_funds" {
		t.Fatalf("decline_code = %v", res.Data["decline_code"])
	}
}

func TestCardChargeTransportErrorBecomesDecline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	g := newCardGateway(server.URL)
	res := g.Charge(context.Background(), testPayment("50.00"), testOrder(), ChargeDetails{CardToken: "tok_visa"})

	if res.Success {
		t.Fatal("expected declined")
	}
	if res.Status != models.PaymentStatusDeclined {
		t.Fatalf("status = %s, want declined", res.Status)
	}
	if res.Data["error"] == nil {
		t.Fatal("expected the transport error recorded in data")
	}
}

func TestCardQueryStatus(t *testing.T) {
	cases := []struct {
		name string
		body string
		want models.PaymentStatus
	}{
		{"succeeded", `{"id": "ch_1", "status": "succeeded"}`, models.PaymentStatusApproved},
		{"pending", `{"id": "ch_1", "status": "pending"}`, models.PaymentStatusPending},
		{"failed", `{"id": "ch_1", "status": "failed"}`, models.PaymentStatusDeclined},
		{"refund wins", `{"id": "ch_1", "status": "succeeded", "refunded": true}`, models.PaymentStatusRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/charges/ch_1" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			g := newCardGateway(server.URL)
			payment := testPayment("50.00")
			payment.TransactionID = "ch_1"

			res, err := g.QueryStatus(context.Background(), payment)
			if err != nil {
				t.Fatalf("query status: %v", err)
			}
			if res.Status != tc.want {
				t.Fatalf("status = %s, want %s", res.Status, tc.want)
			}
		})
	}
}

func TestCardQueryStatusTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	g := newCardGateway(server.URL)
	payment := testPayment("50.00")
	payment.TransactionID = "ch_1"

	if _, err := g.QueryStatus(context.Background(), payment); err == nil {
		t.Fatal("expected an error for unreachable gateway")
	}
}
