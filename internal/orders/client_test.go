package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kynkyro/shaderstore-backend/pkg/config"
	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/types"
)

func testSubmitInput() SubmitOrderInput {
	return SubmitOrderInput{
		ShopperID: "shopper-1",
		Items: []SubmitLine{
			{ProductID: "p1", Name: "Raymarched Clouds Pack", UnitPriceCents: 1500, Qty: 3, TotalCents: 4500},
		},
		ShippingAddress:  types.Address{FullName: "Ana Pop", Line1: "Str. Veche 1", City: "Cluj", PostalCode: "400001", Country: "RO", Email: "ana@example.com"},
		BillingAddress:   types.Address{FullName: "Ana Pop", Line1: "Str. Veche 1", City: "Cluj", PostalCode: "400001", Country: "RO", Email: "ana@example.com"},
		PaymentReference: "tok_visa",
		Currency:         enums.CurrencyEUR,
		SubtotalCents:    4500,
		VATCents:         900,
		TotalCents:       5400,
	}
}

func newSubmitClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(config.OrdersConfig{ServiceURL: serverURL, Timeout: 5 * time.Second}, testLogger())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestClientSubmitSuccess(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody SubmitOrderInput
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_ref":"ord_123","status":"placed"}}`))
	}))
	defer server.Close()

	client := newSubmitClient(t, server.URL)
	result, err := client.Submit(context.Background(), testSubmitInput())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.OrderRef != "ord_123" {
		t.Fatalf("unexpected order ref %q", result.OrderRef)
	}
	if gotPath != "/v1/orders" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.TotalCents != 5400 || len(gotBody.Items) != 1 {
		t.Fatalf("payload not forwarded intact: %+v", gotBody)
	}
}

func TestClientSubmitSurfacesUpstreamRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"code":"CARD_DECLINED","message":"card was declined"}}`))
	}))
	defer server.Close()

	client := newSubmitClient(t, server.URL)
	_, err := client.Submit(context.Background(), testSubmitInput())
	if err == nil {
		t.Fatal("expected rejection error")
	}

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	if details["upstream_code"] != "CARD_DECLINED" {
		t.Fatalf("upstream code not surfaced: %+v", details)
	}
	if details["upstream_message"] != "card was declined" {
		t.Fatalf("upstream message not surfaced verbatim: %+v", details)
	}
}

func TestClientSubmitUnreachableService(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := newSubmitClient(t, server.URL)
	_, err := client.Submit(context.Background(), testSubmitInput())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientSubmitRejectsMissingOrderRef(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := newSubmitClient(t, server.URL)
	_, err := client.Submit(context.Background(), testSubmitInput())
	if err == nil {
		t.Fatal("expected error for missing order reference")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.OrdersConfig{}, testLogger()); err == nil {
		t.Fatal("expected error for empty service URL")
	}
	if _, err := NewClient(config.OrdersConfig{ServiceURL: "http://orders.local"}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
