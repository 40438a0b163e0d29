package printbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() receipt.OrderData {
	return receipt.OrderData{
		OrderNumber:  "PED-000001",
		TotalBRL:     100,
		TotalPYG:     135000,
		ExchangeRate: 1350,
		Items: []receipt.Item{{
			ProductName:  "Canela",
			Quantity:     1,
			UnitPriceBRL: 100,
			UnitPricePYG: 135000,
			SubtotalBRL:  100,
			SubtotalPYG:  135000,
		}},
	}
}

func TestPrintOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/print", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req receipt.PrintRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.OrderData)
		assert.Equal(t, "PED-000001", req.OrderData.OrderNumber)
		assert.Len(t, req.OrderData.Items, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Pedido impresso com sucesso!"}`))
	}))
	defer srv.Close()

	res := NewClient(srv.URL+"/", time.Second).PrintOrder(context.Background(), sampleOrder())

	assert.True(t, res.Success)
	assert.Equal(t, "Pedido impresso com sucesso!", res.Message)
	assert.Empty(t, res.Error)
}

func TestPrintOrder_ServerErrorIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"printer offline","details":"dial tcp: timeout"}`))
	}))
	defer srv.Close()

	res := NewClient(srv.URL, time.Second).PrintOrder(context.Background(), sampleOrder())

	assert.False(t, res.Success)
	assert.Equal(t, "printer offline", res.Error)
}

func TestPrintOrder_BadRequestIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"orderData is required"}`))
	}))
	defer srv.Close()

	res := NewClient(srv.URL, time.Second).PrintOrder(context.Background(), sampleOrder())

	assert.False(t, res.Success)
	assert.Equal(t, "orderData is required", res.Error)
}

func TestPrintOrder_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(url, 200*time.Millisecond).PrintOrder(context.Background(), sampleOrder())

	assert.False(t, res.Success)
	assert.Equal(t, msgUnavailable, res.Error)
}

func TestPrintOrder_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	res := NewClient(srv.URL, time.Second).PrintOrder(context.Background(), sampleOrder())

	assert.False(t, res.Success)
	assert.Equal(t, "bad gateway", res.Error)
}

func TestPrintOrder_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithBreakerSettings(2, time.Minute))

	for range 2 {
		res := client.PrintOrder(context.Background(), sampleOrder())
		assert.False(t, res.Success)
	}
	require.Equal(t, int32(2), calls.Load())

	res := client.PrintOrder(context.Background(), sampleOrder())
	assert.False(t, res.Success)
	assert.Equal(t, msgUnavailable, res.Error)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPrintOrder_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, WithBreakerSettings(1, time.Minute))
	for range 3 {
		client.PrintOrder(context.Background(), sampleOrder())
	}

	assert.Equal(t, int32(3), calls.Load())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","printer":"tcp://192.168.1.100","timestamp":"2025-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	res := NewClient(srv.URL, time.Second).Health(context.Background())

	assert.True(t, res.Success)
	assert.True(t, res.Online)
	assert.Equal(t, "tcp://192.168.1.100", res.Printer)
}

func TestHealth_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(url, 200*time.Millisecond).Health(context.Background())

	assert.False(t, res.Success)
	assert.False(t, res.Online)
	assert.NotEmpty(t, res.Error)
}

func TestTestPrint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/test-print", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"message":"Teste impresso!"}`))
	}))
	defer srv.Close()

	res := NewClient(srv.URL, time.Second).TestPrint(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, "Teste impresso!", res.Message)
}
