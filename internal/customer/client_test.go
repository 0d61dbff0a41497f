package customer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(models.CustomerConfig{BaseURL: server.URL, Timeout: timeout})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func customerService(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/customers/exists/1":
		fmt.Fprint(w, `{"statusCode":200,"status":"Ok","message":"Operation successful","data":true}`)
	case "/api/v1/customers/exists/2":
		fmt.Fprint(w, `{"statusCode":200,"status":"Ok","message":"Operation successful","data":false}`)
	case "/api/v1/customers/1":
		fmt.Fprint(w, `{"statusCode":200,"status":"Ok","message":"Operation successful",
			"data":{"customerId":1,"person":{"name":"Jose Lema","identification":"098254785"},"status":true}}`)
	case "/api/v1/customers/exists/500", "/api/v1/customers/500":
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"statusCode":500,"status":"Internal server error"}`)
	case "/api/v1/customers/exists/garbage":
		fmt.Fprint(w, `not json`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"statusCode":404,"status":"Not found","message":"Customer not found"}`)
	}
}

func TestClient_Exists(t *testing.T) {
	client := newTestClient(t, customerService, time.Second)
	ctx := context.Background()

	tests := []struct {
		id   string
		want bool
	}{
		{"1", true},
		{"2", false},
		{"404", false},
	}
	for _, tt := range tests {
		got, err := client.Exists(ctx, tt.id)
		if err != nil {
			t.Errorf("Exists(%q) returned error: %v", tt.id, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestClient_ExistsFailuresAreInfrastructure(t *testing.T) {
	client := newTestClient(t, customerService, time.Second)

	for _, id := range []string{"500", "garbage"} {
		ok, err := client.Exists(context.Background(), id)
		if ok {
			t.Errorf("Exists(%q) must not report true on failure", id)
		}
		if !errors.Is(err, store.ErrOracleUnavailable) {
			t.Errorf("Exists(%q): expected ErrOracleUnavailable, got %v", id, err)
		}
		if errors.Is(err, store.ErrNotFound) {
			t.Errorf("Exists(%q): failure must not read as not found", id)
		}
	}
}

func TestClient_ExistsTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	started := time.Now()
	_, err := client.Exists(context.Background(), "1")
	if !errors.Is(err, store.ErrOracleUnavailable) {
		t.Fatalf("Expected ErrOracleUnavailable on timeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Errorf("Expected lookup to be bounded by timeout, took %v", elapsed)
	}
}

func TestClient_Customer(t *testing.T) {
	client := newTestClient(t, customerService, time.Second)
	ctx := context.Background()

	c, err := client.Customer(ctx, "1")
	if err != nil {
		t.Fatalf("Customer failed: %v", err)
	}
	if c.Name != "Jose Lema" || c.Identification != "098254785" || !c.Status {
		t.Errorf("Unexpected customer: %+v", c)
	}

	if _, err := client.Customer(ctx, "404"); !errors.Is(err, store.ErrCustomerNotFound) {
		t.Errorf("Expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := client.Customer(ctx, "500"); !errors.Is(err, store.ErrOracleUnavailable) {
		t.Errorf("Expected ErrOracleUnavailable, got %v", err)
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	if _, err := NewClient(models.CustomerConfig{Timeout: time.Second}); err == nil {
		t.Error("Expected error for empty URL")
	}
	if _, err := NewClient(models.CustomerConfig{BaseURL: "http://localhost:8081"}); err == nil {
		t.Error("Expected error for zero timeout")
	}
}
