package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func cartServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"items":[
			{"id":1,"productId":"book-photo","productName":"Livre Photo","quantity":2,"unitPrice":5000,"bookFormat":"hardcover"}
		],"summary":{"total":10000,"itemCount":2,"shippingCost":1000,"grandTotal":11000}}}`))
	})
	mux.HandleFunc("GET /v1/cart/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"total":10000,"itemCount":2,"shippingCost":1000,"grandTotal":11000}}`))
	})
	mux.HandleFunc("DELETE /v1/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

func TestSummaryRecomputedLocally(t *testing.T) {
	srv := cartServer(t)
	defer srv.Close()

	store := NewCartStore(New(srv.URL), 1000)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	s := store.Summary()
	if s.Total != 10000 {
		t.Errorf("total = %d, want 10000", s.Total)
	}
	if s.ItemCount != 2 {
		t.Errorf("itemCount = %d, want 2", s.ItemCount)
	}
	if s.ShippingCost != 1000 {
		t.Errorf("shippingCost = %d, want 1000", s.ShippingCost)
	}
	if s.GrandTotal != 11000 {
		t.Errorf("grandTotal = %d, want 11000", s.GrandTotal)
	}
}

func TestLocalSummaryMatchesServerSummary(t *testing.T) {
	srv := cartServer(t)
	defer srv.Close()

	store := NewCartStore(New(srv.URL), 1000)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	remote, err := store.FetchSummary(context.Background())
	if err != nil {
		t.Fatalf("FetchSummary: %v", err)
	}
	if local := store.Summary(); local != remote {
		t.Errorf("local %+v != remote %+v", local, remote)
	}
}

func TestClearEmptiesLocalMirror(t *testing.T) {
	srv := cartServer(t)
	defer srv.Close()

	store := NewCartStore(New(srv.URL), 1000)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.Items()) == 0 {
		t.Fatal("mirror empty before clear")
	}

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Error("mirror not emptied")
	}

	s := store.Summary()
	if s.GrandTotal != 0 || s.ShippingCost != 0 {
		t.Errorf("summary after clear = %+v", s)
	}
}
