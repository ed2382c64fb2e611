package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/docecostura/internal/models"
)

func TestTelegramNotifyPaymentSuccess(t *testing.T) {
	var got telegramMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/bot123:abc/sendMessage") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	s := NewTelegramService("123:abc", "-100200300")
	s.baseURL = server.URL

	err := s.NotifyPaymentSuccess("2026082810001234", price("234.80"), models.MethodPix)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got.ChatID != "-100200300" {
		t.Fatalf("chat id = %q", got.ChatID)
	}
	if !strings.Contains(got.Text, "2026082810001234") {
		t.Fatalf("message missing order number: %q", got.Text)
	}
	if !strings.Contains(got.Text, "R$ 234.80") {
		t.Fatalf("message missing amount: %q", got.Text)
	}
	if !strings.Contains(got.Text, "PIX") {
		t.Fatalf("message missing method: %q", got.Text)
	}
}

func TestTelegramSkipsWhenUnconfigured(t *testing.T) {
	s := NewTelegramService("", "")

	if err := s.NotifyPaymentSuccess("123", price("10.00"), models.MethodBoleto); err != nil {
		t.Fatalf("unconfigured notifier must be a no-op, got %v", err)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(price("1234.5")); got != "R$ 1234.50" {
		t.Fatalf("FormatPrice = %q", got)
	}
}
