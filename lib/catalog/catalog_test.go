// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func TestStaticEntries(t *testing.T) {
	catalog := New(Config{Static: map[string]string{
		"conversation": "https://conv-a.example.com/conversation/api/v1/",
	}})

	base, err := catalog.ServiceURL(context.Background(), "conversation")
	if err != nil {
		t.Fatalf("ServiceURL: %v", err)
	}
	if base != "https://conv-a.example.com/conversation/api/v1" {
		t.Errorf("base = %q, want trailing slash trimmed", base)
	}

	_, err = catalog.ServiceURL(context.Background(), "files")
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}

func TestDiscoveryIsCached(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]any{
			"serviceLinks": map[string]string{
				"conversation": "https://conv-b.example.com/conversation/api/v1",
				"identity":     "https://identity.example.com/identity/api/v1",
			},
		})
	}))
	defer server.Close()

	catalog := New(Config{DiscoveryURL: server.URL})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			base, err := catalog.ServiceURL(context.Background(), "conversation")
			if err != nil {
				t.Errorf("ServiceURL: %v", err)
				return
			}
			if base != "https://conv-b.example.com/conversation/api/v1" {
				t.Errorf("base = %q", base)
			}
		}()
	}
	wg.Wait()

	if _, err := catalog.ServiceURL(context.Background(), "identity"); err != nil {
		t.Fatalf("identity: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("discovery fetched %d times, want 1", got)
	}

	if _, err := catalog.ServiceURL(context.Background(), "metrics"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService for undiscovered service, got %v", err)
	}
}

func TestDiscoveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		http.Error(writer, "catalog down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	catalog := New(Config{DiscoveryURL: server.URL})
	_, err := catalog.ServiceURL(context.Background(), "conversation")
	if err == nil {
		t.Fatal("expected discovery error")
	}
	if errors.Is(err, ErrUnknownService) {
		t.Error("transport failure must not be reported as unknown service")
	}
}
