// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package request

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is a non-2xx response from the backend.
//
//	var serviceErr *request.ServiceError
//	if errors.As(err, &serviceErr) && serviceErr.StatusCode == http.StatusConflict { ... }
type ServiceError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// Message is the server's human-readable description, if any.
	Message string `json:"message"`
	// TrackingID correlates the failure with server logs.
	TrackingID string `json:"trackingId"`
	// Method and URL identify the failed request.
	Method string `json:"-"`
	URL    string `json:"-"`
}

func (e *ServiceError) Error() string {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.StatusCode)
	}
	if e.TrackingID != "" {
		return fmt.Sprintf("request: %s %s: %d: %s (tracking id %s)", e.Method, e.URL, e.StatusCode, message, e.TrackingID)
	}
	return fmt.Sprintf("request: %s %s: %d: %s", e.Method, e.URL, e.StatusCode, message)
}

// IsStatus reports whether err is a *ServiceError with the given status.
func IsStatus(err error, statusCode int) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode == statusCode
	}
	return false
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
