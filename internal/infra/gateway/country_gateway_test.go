package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const countriesJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"name":"France"},
  "geometry":{"type":"Polygon","coordinates":[[[-5,42.5],[8,42.5],[8,51],[-5,51],[-5,42.5]]]}}]}`

func TestCountryGatewayLoadCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(countriesJSON))
	}))
	defer srv.Close()

	g := NewCountryGateway(srv.URL)
	for i := 0; i < 2; i++ {
		idx, err := g.Load(context.Background())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if idx.Len() != 1 || idx.Names()[0] != "France" {
			t.Fatalf("unexpected index %v", idx.Names())
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", calls.Load())
	}
}

func TestCountryGatewayLoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	idx, err := NewCountryGateway(srv.URL).Load(context.Background())
	if err == nil || idx != nil {
		t.Fatalf("expected failure, got %v %v", idx, err)
	}
}

func TestCountryGatewayLoadGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	if _, err := NewCountryGateway(srv.URL).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}
