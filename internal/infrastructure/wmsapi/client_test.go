package wmsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func bearerConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL:      baseURL,
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	}
}

func basicConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL:  baseURL,
		Username: "erp",
		Password: "pw",
	}
}

// tokenServer issues tokens t1, t2, ... and counts token and resource hits
type tokenServer struct {
	tokenHits    atomic.Int32
	resourceHits atomic.Int32
}

func (s *tokenServer) issueToken(w http.ResponseWriter, r *http.Request) {
	n := s.tokenHits.Add(1)
	var creds map[string]string
	_ = json.NewDecoder(r.Body).Decode(&creds)
	if creds["clientId"] != "client-1" || creds["clientSecret"] != "secret-1" {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "t" + string(rune('0'+n))})
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

func TestClient_ConfigurationErrorBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{BaseURL: server.URL})

	_, err := client.Request(context.Background(), http.MethodGet, "/health", nil, nil)

	assert.ErrorIs(t, err, wms.ErrConfiguration)
	assert.Equal(t, int32(0), hits.Load())
	assert.ErrorIs(t, client.ConfigError(), wms.ErrConfiguration)
}

func TestClient_BasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "erp" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(basicConfig(server.URL))
	resp, err := client.Request(context.Background(), http.MethodGet, "/health", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Object().String("status"))
	assert.Equal(t, AuthBasic, client.AuthMode())
}

func TestClient_BearerTokenIsCached(t *testing.T) {
	ts := &tokenServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", ts.issueToken)
	mux.HandleFunc("/stock", func(w http.ResponseWriter, r *http.Request) {
		ts.resourceHits.Add(1)
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(bearerConfig(server.URL))
	ctx := context.Background()

	_, err := client.Request(ctx, http.MethodGet, "/stock", nil, nil)
	require.NoError(t, err)
	_, err = client.Request(ctx, http.MethodGet, "/stock", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), ts.tokenHits.Load())
	assert.Equal(t, int32(2), ts.resourceHits.Load())
}

func TestClient_TokenAliasAccepted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"snake"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer snake", r.Header.Get("Authorization"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(bearerConfig(server.URL))
	require.NoError(t, client.Health(context.Background()))
}

func TestClient_RetriesOnceOn401(t *testing.T) {
	ts := &tokenServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", ts.issueToken)
	mux.HandleFunc("/order", func(w http.ResponseWriter, r *http.Request) {
		ts.resourceHits.Add(1)
		if r.Header.Get("Authorization") == "Bearer t1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"reference":"SO1"}`, string(body), "replay carries the original body")
		_, _ = w.Write([]byte(`{"orderId":77,"status":"Received"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(bearerConfig(server.URL))
	resp, err := client.Request(context.Background(), http.MethodPost, "/order", map[string]string{"reference": "SO1"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "77", resp.Object().String(orderIDAliases...))
	assert.Equal(t, int32(2), ts.tokenHits.Load())
	assert.Equal(t, int32(2), ts.resourceHits.Load())
}

func TestClient_SecondConsecutive401IsHardFailure(t *testing.T) {
	ts := &tokenServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", ts.issueToken)
	mux.HandleFunc("/stock", func(w http.ResponseWriter, r *http.Request) {
		ts.resourceHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"expired"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(bearerConfig(server.URL))
	_, err := client.Request(context.Background(), http.MethodGet, "/stock", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, wms.ErrRemoteStatus)
	var rse *wms.RemoteStatusError
	require.True(t, errors.As(err, &rse))
	assert.Equal(t, http.StatusUnauthorized, rse.StatusCode)
	assert.Equal(t, int32(2), ts.resourceHits.Load(), "exactly one replay")
	assert.Equal(t, int32(2), ts.tokenHits.Load())
}

func TestClient_BasicAuth401IsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(basicConfig(server.URL))
	_, err := client.Request(context.Background(), http.MethodGet, "/stock", nil, nil)

	assert.True(t, wms.IsUnauthorized(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_TokenFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "token endpoint error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "token missing from response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"expiresIn":3600}`))
			},
		},
		{
			name: "malformed token response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resourceHits atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("/auth/token", tt.handler)
			mux.HandleFunc("/stock", func(w http.ResponseWriter, r *http.Request) {
				resourceHits.Add(1)
			})
			server := httptest.NewServer(mux)
			defer server.Close()

			client := NewClient(bearerConfig(server.URL))
			_, err := client.Request(context.Background(), http.MethodGet, "/stock", nil, nil)

			assert.ErrorIs(t, err, wms.ErrAuthentication)
			assert.Equal(t, int32(0), resourceHits.Load())
		})
	}
}

// ---------------------------------------------------------------------------
// Error kinds and bodies
// ---------------------------------------------------------------------------

func TestClient_RemoteStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"unknown sku"}`))
	}))
	defer server.Close()

	client := NewClient(basicConfig(server.URL))
	_, err := client.Request(context.Background(), http.MethodPost, "/order", map[string]any{}, nil)

	var rse *wms.RemoteStatusError
	require.True(t, errors.As(err, &rse))
	assert.Equal(t, http.StatusUnprocessableEntity, rse.StatusCode)
	assert.Equal(t, http.MethodPost, rse.Method)
	assert.Contains(t, rse.Body, "unknown sku")
	assert.NotErrorIs(t, err, wms.ErrTransport)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(basicConfig(url))
	_, err := client.Request(context.Background(), http.MethodGet, "/health", nil, nil)

	assert.ErrorIs(t, err, wms.ErrTransport)
	assert.NotErrorIs(t, err, wms.ErrRemoteStatus)
}

func TestClient_EmptyBodyYieldsEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(basicConfig(server.URL))
	resp, err := client.Request(context.Background(), http.MethodPatch, "/product/1", map[string]any{"name": "x"}, nil)

	require.NoError(t, err)
	assert.Empty(t, resp.Object())
}

func TestClient_SendsJSONBodyAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/supplier", r.URL.Path)
		assert.Equal(t, "SUP 1", r.URL.Query().Get("reference"))
		assert.Empty(t, r.Header.Get("Content-Type"), "GET carries no body")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	client := NewClient(basicConfig(server.URL))
	supplier, err := client.FindSupplierByReference(context.Background(), "SUP 1")

	require.NoError(t, err)
	assert.Nil(t, supplier)
}

func TestTokenCache(t *testing.T) {
	cache := NewTokenCache()
	_, ok := cache.Get()
	assert.False(t, ok)
	assert.Zero(t, cache.Age())

	cache.Set("abc")
	token, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	cache.Invalidate()
	_, ok = cache.Get()
	assert.False(t, ok)
}

func TestClient_SeededTokenCacheSkipsTokenFetch(t *testing.T) {
	ts := &tokenServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", ts.issueToken)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer seeded", r.Header.Get("Authorization"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tokens := NewTokenCache()
	tokens.Set("seeded")
	client := NewClient(bearerConfig(server.URL), WithTokenCache(tokens))

	require.NoError(t, client.Health(context.Background()))
	assert.Equal(t, int32(0), ts.tokenHits.Load())
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

// lookupServer answers every request with body and records the request URL
func lookupServer(t *testing.T, body string, seen *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		*seen = r.URL.RequestURI()
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_FindOrderByReference(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantID   string
		wantNone bool
	}{
		{"items envelope", `{"items":[{"orderId":501,"reference":"SO 1","status":"Shipped"}]}`, "501", false},
		{"bare array", `[{"id":"502","reference":"SO 1"}]`, "502", false},
		{"single object", `{"id":"503","reference":"SO 1"}`, "503", false},
		{"empty envelope", `{"items":[]}`, "", true},
		{"empty array", `[]`, "", true},
		{"empty object", `{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			client := NewClient(basicConfig(lookupServer(t, tt.body, &seen).URL))

			order, err := client.FindOrderByReference(context.Background(), "SO 1")

			require.NoError(t, err)
			assert.Equal(t, "/order?reference=SO+1", seen)
			if tt.wantNone {
				assert.Nil(t, order)
				return
			}
			require.NotNil(t, order)
			assert.Equal(t, tt.wantID, order.ID)
			assert.Equal(t, "SO 1", order.Reference)
		})
	}
}

func TestClient_GetProductBySKU(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantID   string
		wantNone bool
	}{
		{"items envelope", `{"items":[{"productId":"P-9","sku":"MUG/B"}]}`, "P-9", false},
		{"bare array", `[{"id":12,"sku":"MUG/B"}]`, "12", false},
		{"empty envelope", `{"items":[]}`, "", true},
		{"empty array", `[]`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			client := NewClient(basicConfig(lookupServer(t, tt.body, &seen).URL))

			rec, err := client.GetProductBySKU(context.Background(), "MUG/B")

			require.NoError(t, err)
			assert.Equal(t, "/product?sku=MUG%2FB", seen)
			if tt.wantNone {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantID, rec.ID)
			assert.Equal(t, "MUG/B", rec.SKU)
		})
	}
}

func TestClient_GetOrder(t *testing.T) {
	var seen string
	body := `{"orderId":"R 7","reference":"SO0007","status":"Delivered","shippedAt":"2024-03-01T10:00:00Z","trackAndTraceUrl":"https://t.example/7"}`
	client := NewClient(basicConfig(lookupServer(t, body, &seen).URL))

	order, err := client.GetOrder(context.Background(), "R 7")

	require.NoError(t, err)
	assert.Equal(t, "/order/R%207", seen)
	require.NotNil(t, order)
	assert.Equal(t, "R 7", order.ID)
	assert.Equal(t, "SO0007", order.Reference)
	assert.Equal(t, "Delivered", order.Status)
	assert.Equal(t, "https://t.example/7", order.TrackingURL)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, 2024, order.DeliveredAt.Year())
	assert.JSONEq(t, body, order.Raw)
}

func TestClient_GetOrderNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"order not found"}`))
	}))
	defer server.Close()

	client := NewClient(basicConfig(server.URL))
	order, err := client.GetOrder(context.Background(), "missing")

	assert.Nil(t, order)
	assert.ErrorIs(t, err, wms.ErrRemoteStatus)
	var rse *wms.RemoteStatusError
	require.ErrorAs(t, err, &rse)
	assert.Equal(t, http.StatusNotFound, rse.StatusCode)
}
