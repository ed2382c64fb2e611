package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/docecostura/internal/models"
)

func newPixGateway(url string) *PixGateway {
	return NewPixGateway(PixConfig{AccessToken: "APP_USR-test", BaseURL: url, Timeout: time.Second})
}

func TestPixChargeGeneratesPendingCode(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer APP_USR-test" {
			t.Errorf("authorization = %q", auth)
		}
		if r.Header.Get("X-Idempotency-Key") == "" {
			t.Error("missing idempotency key")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"id": 123456789,
			"status": "pending",
			"point_of_interaction": {"transaction_data": {
				"qr_code": "00020126580014br.gov.bcb.pix...",
				"qr_code_base64": "iVBORw0KGgo=",
				"ticket_url": "https://example.com/ticket"
			}}
		}`))
	}))
	defer server.Close()

	g := newPixGateway(server.URL)
	payment := testPayment("234.80")
	payment.Method = models.MethodPix

	res := g.Charge(context.Background(), payment, testOrder(), ChargeDetails{
		Email:          "cliente@example.com",
		DocumentNumber: "12345678901",
	})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Status != models.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", res.Status)
	}
	if res.TransactionID != "123456789" {
		t.Fatalf("transaction id = %q", res.TransactionID)
	}
	if res.Data["pix_code"] != "00020126580014br.gov.bcb.pix..." {
		t.Fatalf("pix_code = %v", res.Data["pix_code"])
	}
	if res.Data["qr_code_base64"] != "iVBORw0KGgo=" {
		t.Fatalf("qr_code_base64 = %v", res.Data["qr_code_base64"])
	}
	if res.Data["expires_at"] == nil {
		t.Fatal("expected an expiration timestamp")
	}

	if gotBody["payment_method_id"] != "pix" {
		t.Fatalf("payment_method_id = %v", gotBody["payment_method_id"])
	}
	payer, _ := gotBody["payer"].(map[string]any)
	identification, _ := payer["identification"].(map[string]any)
	if identification["type"] != "CPF" {
		t.Fatalf("identification type = %v, want CPF default", identification["type"])
	}
}

func TestPixChargeRejectedStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "invalid payer"}`))
	}))
	defer server.Close()

	g := newPixGateway(server.URL)
	res := g.Charge(context.Background(), testPayment("10.00"), testOrder(), ChargeDetails{})

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Status != models.PaymentStatusDeclined {
		t.Fatalf("status = %s, want declined", res.Status)
	}
}

func TestPixQueryStatusMapping(t *testing.T) {
	cases := []struct {
		vendor string
		want   models.PaymentStatus
	}{
		{"approved", models.PaymentStatusApproved},
		{"pending", models.PaymentStatusPending},
		{"in_process", models.PaymentStatusPending},
		{"rejected", models.PaymentStatusDeclined},
		{"cancelled", models.PaymentStatusDeclined},
		{"refunded", models.PaymentStatusRefunded},
		{"charged_back", models.PaymentStatusRefunded},
		{"something_new", models.PaymentStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.vendor, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/payments/123" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id": 123, "status": "` + tc.vendor + `"}`))
			}))
			defer server.Close()

			g := newPixGateway(server.URL)
			payment := testPayment("10.00")
			payment.TransactionID = "123"

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
