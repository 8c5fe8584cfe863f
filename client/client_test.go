package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignInParsesSessionEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/auth/signin" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["email"] != "awa@example.sn" {
			t.Errorf("email = %q", payload["email"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"token":"tok-123","user":{"id":1,"email":"awa@example.sn","firstName":"Awa","lastName":"Diop","role":"USER"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	session, err := c.SignIn(context.Background(), "awa@example.sn", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.Token != "tok-123" {
		t.Errorf("token = %q", session.Token)
	}
	if session.User.FirstName != "Awa" {
		t.Errorf("user = %+v", session.User)
	}
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"unauthorized","status":401}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SignIn(context.Background(), "x@y.z", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != 401 || apiErr.Message != "unauthorized" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !IsAPIError(err) {
		t.Error("IsAPIError = false")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-456" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":1,"email":"awa@example.sn","firstName":"Awa","lastName":"Diop","role":"USER"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok-456"))
	user, err := c.VerifySession(context.Background())
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if user.Email != "awa@example.sn" {
		t.Errorf("user = %+v", user)
	}
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // dead backend

	c := New(srv.URL)
	_, err := c.SignIn(context.Background(), "x@y.z", "pw")
	if err == nil {
		t.Fatal("expected error from dead backend")
	}
	if IsAPIError(err) {
		t.Errorf("transport failure classified as API error: %v", err)
	}
}
