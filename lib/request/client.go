// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/stonedpebbles/spark/lib/netutil"
	"github.com/stonedpebbles/spark/lib/secret"
	"github.com/stonedpebbles/spark/lib/version"
)

// ServiceLocator maps a service name to its base URL.
type ServiceLocator interface {
	ServiceURL(ctx context.Context, name string) (string, error)
}

// Descriptor describes one request. Exactly one of URI or Service must
// be set.
type Descriptor struct {
	// Method defaults to GET.
	Method string

	// Service is the catalog name of the target service.
	Service string

	// Resource is the path under the service base, without a leading
	// slash (e.g. "conversations/user/<uuid>").
	Resource string

	// URI is an absolute URL used as-is.
	URI string

	// Query is appended to the URL.
	Query url.Values

	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is a successful (2xx) response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into target. An empty body leaves
// target untouched.
func (r *Response) Decode(target any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("request: decoding response body: %w", err)
	}
	return nil
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Services resolves Descriptor.Service. Required unless every
	// request uses URI.
	Services ServiceLocator

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used. Request timeouts belong here.
	HTTPClient *http.Client

	// Token is the bearer access token. The Client borrows it; the
	// caller closes it. Nil sends no Authorization header.
	Token *secret.Buffer

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client executes Descriptors.
type Client struct {
	services   ServiceLocator
	httpClient *http.Client
	token      *secret.Buffer
	logger     *slog.Logger

	trackingPrefix  string
	trackingCounter atomic.Int64
}

// NewClient creates a Client.
func NewClient(config ClientConfig) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		services:       config.Services,
		httpClient:     httpClient,
		token:          config.Token,
		logger:         logger,
		trackingPrefix: "spark-go_" + uuid.NewString(),
	}
}

// Do executes descriptor. Non-2xx responses are returned as
// *ServiceError; transport failures are wrapped.
func (c *Client) Do(ctx context.Context, descriptor Descriptor) (*Response, error) {
	target, err := c.resolveURL(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	if len(descriptor.Query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + descriptor.Query.Encode()
	}

	method := descriptor.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if descriptor.Body != nil {
		encoded, err := json.Marshal(descriptor.Body)
		if err != nil {
			return nil, fmt.Errorf("request: encoding body for %s %s: %w", method, target, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("request: building %s %s: %w", method, target, err)
	}
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set("User-Agent", version.UserAgent())
	if descriptor.Body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		httpRequest.Header.Set("Authorization", "Bearer "+c.token.String())
	}
	trackingID := fmt.Sprintf("%s_%d", c.trackingPrefix, c.trackingCounter.Add(1))
	httpRequest.Header.Set("TrackingID", trackingID)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("request: %s %s failed: %w", method, target, err)
	}
	defer httpResponse.Body.Close()

	body, err := netutil.ReadResponse(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("request: reading response from %s %s: %w", method, target, err)
	}

	if httpResponse.StatusCode >= 200 && httpResponse.StatusCode < 300 {
		c.logger.Debug("request completed",
			"method", method,
			"url", target,
			"status_code", httpResponse.StatusCode,
			"tracking_id", trackingID,
		)
		return &Response{
			StatusCode: httpResponse.StatusCode,
			Header:     httpResponse.Header,
			Body:       body,
		}, nil
	}

	serviceErr := &ServiceError{
		StatusCode: httpResponse.StatusCode,
		Method:     method,
		URL:        target,
	}
	// Error bodies are JSON from a healthy backend, but proxies in
	// front of it return HTML; keep the raw text in that case.
	if jsonErr := json.Unmarshal(body, serviceErr); jsonErr != nil {
		serviceErr.Message = strings.TrimSpace(string(body))
	}
	if serviceErr.TrackingID == "" {
		serviceErr.TrackingID = trackingID
	}
	return nil, serviceErr
}

func (c *Client) resolveURL(ctx context.Context, descriptor Descriptor) (string, error) {
	if descriptor.URI != "" {
		if descriptor.Service != "" {
			return "", fmt.Errorf("request: descriptor sets both URI and Service")
		}
		return descriptor.URI, nil
	}
	if descriptor.Service == "" {
		return "", fmt.Errorf("request: descriptor sets neither URI nor Service")
	}
	if c.services == nil {
		return "", fmt.Errorf("request: no service locator configured for service %q", descriptor.Service)
	}
	base, err := c.services.ServiceURL(ctx, descriptor.Service)
	if err != nil {
		return "", fmt.Errorf("request: resolving service %q: %w", descriptor.Service, err)
	}
	base = strings.TrimRight(base, "/")
	if descriptor.Resource == "" {
		return base, nil
	}
	return base + "/" + strings.TrimLeft(descriptor.Resource, "/"), nil
}
