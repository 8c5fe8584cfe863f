package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"souvenir/internal/domain/payments"

	"go.uber.org/zap"
)

func TestInitiatePostsPayloadAndParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/initiate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if payload["paymentMethod"] != "mobile_money" || payload["provider"] != "wave" {
			t.Errorf("payload = %v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"transactionId":"TXN-9","status":"PENDING","message":"confirmez sur votre téléphone"}}`))
	}))
	defer srv.Close()

	gw := NewGatewayAdapter(New(srv.URL), zap.NewNop().Sugar(), false)
	res, err := gw.Initiate(context.Background(), InitiateParams{
		OrderID:       1,
		PaymentMethod: "mobile_money",
		Provider:      "wave",
		PhoneNumber:   "771234567",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.TransactionID != "TXN-9" || res.Status != "PENDING" {
		t.Errorf("result = %+v", res)
	}
}

func TestServerRejectionIsNeverMaskedByDemoMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"a payment is already pending for this order","status":409}`))
	}))
	defer srv.Close()

	gw := NewGatewayAdapter(New(srv.URL), zap.NewNop().Sugar(), true)
	_, err := gw.Initiate(context.Background(), InitiateParams{OrderID: 1, PaymentMethod: "mobile_money"})
	if err == nil {
		t.Fatal("server rejection swallowed by demo mode")
	}
	if !IsAPIError(err) {
		t.Errorf("err = %v, want APIError", err)
	}
}

func TestDemoModeDisabledSurfacesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	gw := NewGatewayAdapter(New(srv.URL), zap.NewNop().Sugar(), false)
	_, err := gw.Initiate(context.Background(), InitiateParams{OrderID: 1, PaymentMethod: "mobile_money"})
	if err == nil {
		t.Fatal("transport failure swallowed without demo mode")
	}
}

func TestDemoFallbackFabricatesSimulatedPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // backend unreachable

	gw := NewGatewayAdapter(New(srv.URL), zap.NewNop().Sugar(), true)
	res, err := gw.Initiate(context.Background(), InitiateParams{OrderID: 1, PaymentMethod: "mobile_money"})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if !strings.HasPrefix(res.TransactionID, "SIM-") {
		t.Errorf("transaction id = %q, want SIM- prefix", res.TransactionID)
	}
	if res.Status != string(payments.StatusPending) {
		t.Errorf("status = %s, want PENDING", res.Status)
	}

	// first poll pending, then settled, and stays settled
	p1, err := gw.CheckStatus(context.Background(), res.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if p1.Status != payments.StatusPending {
		t.Errorf("first poll = %s, want PENDING", p1.Status)
	}

	p2, err := gw.CheckStatus(context.Background(), res.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if p2.Status != payments.StatusSuccess {
		t.Errorf("second poll = %s, want SUCCESS", p2.Status)
	}

	p3, err := gw.CheckStatus(context.Background(), res.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if p3.Status != payments.StatusSuccess {
		t.Errorf("third poll = %s, terminal status changed", p3.Status)
	}
}

func TestCheckStatusIsIdempotentAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/status/TXN-10" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"transactionId":"TXN-10","orderId":4,"amount":11000,"currency":"XOF","paymentMethod":"card","status":"SUCCESS"}}`))
	}))
	defer srv.Close()

	gw := NewGatewayAdapter(New(srv.URL), zap.NewNop().Sugar(), false)
	for i := 0; i < 3; i++ {
		p, err := gw.CheckStatus(context.Background(), "TXN-10")
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if p.Status != payments.StatusSuccess || p.Amount != 11000 {
			t.Errorf("poll %d = %+v", i, p)
		}
	}
}

func TestSimulateCallbackPostsVerdict(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/callback" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"transactionId":"TXN-11","status":"SUCCESS"}}`))
	}))
	defer srv.Close()

	gw := NewGatewayAdapter(New(srv.URL), zap.NewNop().Sugar(), false)
	ref := "MM-WV-abc123"
	if err := gw.SimulateCallback(context.Background(), "TXN-11", payments.StatusSuccess, &ref); err != nil {
		t.Fatalf("SimulateCallback: %v", err)
	}
	if got["transactionId"] != "TXN-11" || got["status"] != "SUCCESS" || got["externalReference"] != ref {
		t.Errorf("callback payload = %v", got)
	}
}
