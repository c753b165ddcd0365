package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-state/internal/domain/discount"
)

func staticToken(token string) TokenSource {
	return func() string { return token }
}

func TestClient_UserDiscounts(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]discount.Definition{
			{ID: "disc-1", Code: "SUMMER10", Percentage: 10, MaxDiscountAmount: 100_000, Active: true},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("token-abc"))
	wallet, err := client.UserDiscounts(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, wallet, 1)
	assert.Equal(t, "SUMMER10", wallet[0].Code)
	assert.Equal(t, int64(100_000), wallet[0].MaxDiscountAmount)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "/api/discount/user/user-1", gotPath)
}

func TestClient_AnonymousOmitsAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]discount.Definition{})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken(""))
	_, err := client.ListDiscounts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_NonSuccessIsBackendError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, staticToken("token"))
			_, err := client.UserDiscounts(context.Background(), "user-1")

			assert.ErrorIs(t, err, ErrBackend)
		})
	}
}

func TestClient_TransportFailureIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, staticToken(""))
	_, err := client.ListDiscounts(context.Background())

	assert.ErrorIs(t, err, ErrBackend)
}

func TestClient_CreateDiscount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/discount", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var d discount.Definition
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		d.ID = "disc-new"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(d)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("admin-token"))
	created, err := client.CreateDiscount(context.Background(), discount.Definition{
		Code: "WELCOME5", Percentage: 5, MaxDiscountAmount: 20_000, Active: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "disc-new", created.ID)
	assert.Equal(t, "WELCOME5", created.Code)
}

func TestClient_SetDiscountStatus(t *testing.T) {
	var gotMethod, gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("admin-token"))
	err := client.SetDiscountStatus(context.Background(), "disc-1", false)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/discount/disc-1/status", gotPath)
	assert.Equal(t, "active=false", gotQuery)
}

func TestClient_DistributeDiscount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/discount/disc-1/distribute-all", r.URL.Path)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("admin-token"))
	require.NoError(t, client.DistributeDiscount(context.Background(), "disc-1"))
}

func TestClient_DeleteDiscount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/discount/disc-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("admin-token"))
	require.NoError(t, client.DeleteDiscount(context.Background(), "disc-1"))
}
