package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testConfig(url string) Config {
	return Config{
		URL:      url,
		Database: "erp_prod",
		Username: "sync@example.test",
		Password: "pw",
	}
}

func decodeRPC(t *testing.T, r *http.Request) rpcRequest {
	t.Helper()
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode rpc request: %v", err)
	}
	return req
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jsonrpc" {
			t.Errorf("path = %q", r.URL.Path)
		}
		req := decodeRPC(t, r)
		if req.Jsonrpc != "2.0" || req.Method != "call" {
			t.Errorf("envelope = %+v", req)
		}
		if req.Params.Service != "common" || req.Params.Method != "authenticate" {
			t.Errorf("params = %+v", req.Params)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":7}`))
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	uid, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if uid != 7 {
		t.Fatalf("uid = %d", uid)
	}
}

func TestAuthenticateBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The ERP answers `false`, not an error object, for bad credentials.
		w.Write([]byte(`{"jsonrpc":"2.0","result":false}`))
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Authenticate(context.Background()); err == nil {
		t.Fatal("expected authentication failure")
	}
}

func TestErrorKeyIsFailureDespiteHTTP200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPC(t, r)
		if req.Params.Method == "authenticate" {
			w.Write([]byte(`{"jsonrpc":"2.0","result":7}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":200,"message":"Odoo Server Error"}}`))
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.ExecuteKw(context.Background(), "product.product", "read", []any{[]int64{1}}, nil)
	if err == nil {
		t.Fatal("a response with an error key must fail even on HTTP 200")
	}
	if !strings.Contains(err.Error(), "Odoo Server Error") {
		t.Errorf("error should carry the rpc error payload, got %v", err)
	}
}

func TestReadProductsParsesCategoryTuple(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPC(t, r)
		if req.Params.Method == "authenticate" {
			w.Write([]byte(`{"jsonrpc":"2.0","result":7}`))
			return
		}
		if req.Params.Service != "object" || req.Params.Method != "execute_kw" {
			t.Errorf("params = %+v", req.Params)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":[
			{"id":101,"categ_id":[5,"Beverages"]},
			{"id":102,"categ_id":false}
		]}`))
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	products, err := client.ReadProducts(context.Background(), []int64{101, 102})
	if err != nil {
		t.Fatalf("ReadProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %+v", products)
	}
	if products[0].ID != 101 || products[0].Category != "Beverages" {
		t.Errorf("products[0] = %+v", products[0])
	}
	if products[1].Category != "" {
		t.Errorf("uncategorized product must yield empty name, got %q", products[1].Category)
	}
}

func TestReadProductsChunksCalls(t *testing.T) {
	var readCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRPC(t, r)
		if req.Params.Method == "authenticate" {
			w.Write([]byte(`{"jsonrpc":"2.0","result":7}`))
			return
		}
		readCalls++
		w.Write([]byte(`{"jsonrpc":"2.0","result":[]}`))
	}))
	defer srv.Close()

	client, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ids := make([]int64, maxIDsPerRead*2+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	if _, err := client.ReadProducts(context.Background(), ids); err != nil {
		t.Fatalf("ReadProducts: %v", err)
	}
	if readCalls != 3 {
		t.Fatalf("expected 3 chunked read calls, got %d", readCalls)
	}
}

func TestChunkIDs(t *testing.T) {
	chunks := ChunkIDs([]int64{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %v", chunks)
	}
	if len(chunks[2]) != 1 || chunks[2][0] != 5 {
		t.Fatalf("last chunk = %v", chunks[2])
	}
	if ChunkIDs(nil, 2) != nil {
		t.Fatal("nil ids must yield nil chunks")
	}
	if ChunkIDs([]int64{1}, 0) != nil {
		t.Fatal("non-positive size must yield nil chunks")
	}
}
