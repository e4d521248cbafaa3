package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Drinks"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success":true,"data":{"id":4,"name":"Drinks"}}`)
	}))
	defer server.Close()

	var out struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	err := NewAdminClient(server.URL+"/", "tok").Do(context.Background(), http.MethodPost, "/api/admin/delivery/categories", map[string]string{"name": "Drinks"}, &out)
	require.NoError(t, err)
	assert.Equal(t, uint(4), out.ID)
	assert.Equal(t, "Drinks", out.Name)
}

func TestDoReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"error":{"code":"INVALID_REORDER","message":"invalid reorder request","field":"orderedIds"}}`)
	}))
	defer server.Close()

	err := NewAdminClient(server.URL, "").Do(context.Background(), http.MethodPost, "/x", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_REORDER", apiErr.Code)
	assert.Equal(t, "invalid reorder request", apiErr.Error())
}

func TestDoWithoutErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewAdminClient(server.URL, "").Do(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.EqualError(t, err, "request failed with status 502")
}

func TestUploadImage(t *testing.T) {
	var uploaded string
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/api/admin/delivery/products/upload-url", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"uploadURL":"`+server.URL+`/objects/uploads/abc","objectPath":"/objects/uploads/abc"}`)
	})
	mux.HandleFunc("/objects/uploads/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		uploaded = string(body)
		io.WriteString(w, `{"success":true,"data":{"objectPath":"/objects/uploads/abc"}}`)
	})

	objectPath, err := NewAdminClient(server.URL, "").UploadImage(context.Background(), strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "/objects/uploads/abc", objectPath)
	assert.Equal(t, "img", uploaded)
}

func TestGetPageReturnsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		io.WriteString(w, `{"success":true,"data":[{"id":3}],"pagination":{"page":2,"limit":1,"total":3,"totalPages":3,"hasNext":true,"hasPrevious":true}}`)
	}))
	defer server.Close()

	var out []struct {
		ID uint `json:"id"`
	}
	info, err := NewAdminClient(server.URL, "").GetPage(context.Background(), "/api/admin/delivery/products?page=2", &out)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.HasNext)
	assert.Equal(t, 3, info.TotalPages)
	require.Len(t, out, 1)
	assert.Equal(t, uint(3), out[0].ID)

	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":[]}`)
	}))
	defer plain.Close()

	info, err = NewAdminClient(plain.URL, "").GetPage(context.Background(), "/x", &out)
	require.NoError(t, err)
	assert.Nil(t, info)
}
