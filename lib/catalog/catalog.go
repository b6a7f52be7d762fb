// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog resolves service names to base URLs.
//
// A [Catalog] answers from its static map first (the "services" config
// section), then from a TTL-bounded LRU of discovered URLs, and only
// then fetches the discovery endpoint. The endpoint returns
//
//	{"serviceLinks": {"conversation": "https://...", "identity": "https://..."}}
//
// and every link in the response is cached, so one fetch serves all
// services until the TTL expires.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/stonedpebbles/spark/lib/netutil"
)

// ErrUnknownService is returned when neither the static map nor the
// discovery endpoint knows the requested service.
var ErrUnknownService = errors.New("catalog: unknown service")

// Config holds configuration for creating a Catalog.
type Config struct {
	// Static maps service names to base URLs. Static entries never expire.
	Static map[string]string

	// DiscoveryURL is the catalog endpoint. Empty disables discovery.
	DiscoveryURL string

	// CacheSize bounds the discovered-URL cache. Defaults to 64.
	CacheSize int

	// CacheTTL bounds how long a discovered URL is used. Defaults to
	// ten minutes.
	CacheTTL time.Duration

	// HTTPClient is used for discovery. If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Catalog resolves service base URLs. Safe for concurrent use.
type Catalog struct {
	static       map[string]string
	discoveryURL string
	cache        *expirable.LRU[string, string]
	httpClient   *http.Client
	logger       *slog.Logger

	// fetchMu serializes discovery fetches so a cold cache under
	// concurrent lookups costs one request.
	fetchMu sync.Mutex
}

// New creates a Catalog.
func New(config Config) *Catalog {
	size := config.CacheSize
	if size <= 0 {
		size = 64
	}
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	static := make(map[string]string, len(config.Static))
	for name, base := range config.Static {
		static[name] = strings.TrimRight(base, "/")
	}

	return &Catalog{
		static:       static,
		discoveryURL: config.DiscoveryURL,
		cache:        expirable.NewLRU[string, string](size, nil, ttl),
		httpClient:   httpClient,
		logger:       logger,
	}
}

// ServiceURL returns the base URL of the named service, without a
// trailing slash.
func (c *Catalog) ServiceURL(ctx context.Context, name string) (string, error) {
	if base, ok := c.static[name]; ok {
		return base, nil
	}
	if base, ok := c.cache.Get(name); ok {
		return base, nil
	}
	if c.discoveryURL == "" {
		return "", fmt.Errorf("%w %q (no discovery endpoint configured)", ErrUnknownService, name)
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Another caller may have populated the cache while we waited.
	if base, ok := c.cache.Get(name); ok {
		return base, nil
	}
	if err := c.refresh(ctx); err != nil {
		return "", err
	}
	if base, ok := c.cache.Get(name); ok {
		return base, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownService, name)
}

// refresh fetches the discovery endpoint and caches every link.
func (c *Catalog) refresh(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.discoveryURL, nil)
	if err != nil {
		return fmt.Errorf("catalog: building discovery request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("catalog: discovery request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: discovery returned %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}

	var document struct {
		ServiceLinks map[string]string `json:"serviceLinks"`
	}
	if err := netutil.DecodeResponse(response.Body, &document); err != nil {
		return fmt.Errorf("catalog: parsing discovery response: %w", err)
	}

	for name, base := range document.ServiceLinks {
		c.cache.Add(name, strings.TrimRight(base, "/"))
	}
	c.logger.Debug("service catalog refreshed",
		"discovery_url", c.discoveryURL,
		"services", len(document.ServiceLinks),
	)
	return nil
}
