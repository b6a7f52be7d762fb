// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stonedpebbles/spark/lib/request"
)

type fakeRequester struct {
	calls   []request.Descriptor
	respond func(request.Descriptor) (*request.Response, error)
}

func (f *fakeRequester) Do(_ context.Context, descriptor request.Descriptor) (*request.Response, error) {
	f.calls = append(f.calls, descriptor)
	return f.respond(descriptor)
}

func jsonResponse(t *testing.T, value any) *request.Response {
	t.Helper()
	body, err := json.Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	return &request.Response{StatusCode: 200, Body: body}
}

func TestAsUUIDPassThrough(t *testing.T) {
	requester := &fakeRequester{respond: func(request.Descriptor) (*request.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}}
	service, err := New(Config{Requester: requester})
	if err != nil {
		t.Fatal(err)
	}

	id, err := service.AsUUID(context.Background(), "8F0A5E1C-1B2C-4D3E-8F4A-5B6C7D8E9F00", false)
	if err != nil {
		t.Fatalf("AsUUID: %v", err)
	}
	if id != "8f0a5e1c-1b2c-4d3e-8f4a-5b6c7d8e9f00" {
		t.Errorf("id = %q, want lowercased canonical form", id)
	}

	opaque, err := service.AsUUID(context.Background(), "hydra-person-42", false)
	if err != nil || opaque != "hydra-person-42" {
		t.Errorf("opaque id = %q, %v", opaque, err)
	}

	if _, err := service.AsUUID(context.Background(), "  ", false); err == nil {
		t.Error("expected error for blank reference")
	}
}

func TestAsUUIDEmailLookupAndCache(t *testing.T) {
	requester := &fakeRequester{}
	requester.respond = func(descriptor request.Descriptor) (*request.Response, error) {
		if descriptor.Resource != "users" || descriptor.Service != "conversation" {
			t.Errorf("descriptor = %+v", descriptor)
		}
		if descriptor.Query.Get("shouldCreateUsers") != "true" {
			t.Errorf("shouldCreateUsers = %q", descriptor.Query.Get("shouldCreateUsers"))
		}
		return jsonResponse(t, map[string]any{"alice@example.com": map[string]string{"id": "u-alice"}}), nil
	}
	service, _ := New(Config{Requester: requester})

	for range 3 {
		id, err := service.AsUUID(context.Background(), "Alice@Example.com", true)
		if err != nil {
			t.Fatalf("AsUUID: %v", err)
		}
		if id != "u-alice" {
			t.Errorf("id = %q", id)
		}
	}
	if len(requester.calls) != 1 {
		t.Errorf("lookups = %d, want 1 (cached)", len(requester.calls))
	}
}

func TestAsUUIDUnknownEmail(t *testing.T) {
	requester := &fakeRequester{respond: func(request.Descriptor) (*request.Response, error) {
		return jsonResponse(t, map[string]any{}), nil
	}}
	service, _ := New(Config{Requester: requester})

	_, err := service.AsUUID(context.Background(), "nobody@example.com", false)
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser, got %v", err)
	}
}

func TestAsUUIDPropagatesServiceError(t *testing.T) {
	requester := &fakeRequester{respond: func(request.Descriptor) (*request.Response, error) {
		return nil, &request.ServiceError{StatusCode: 503}
	}}
	service, _ := New(Config{Requester: requester})

	_, err := service.AsUUID(context.Background(), "bob@example.com", true)
	if !request.IsStatus(err, 503) {
		t.Errorf("expected 503 to propagate, got %v", err)
	}
}

func TestRecordUUIDFeedsCache(t *testing.T) {
	requester := &fakeRequester{respond: func(request.Descriptor) (*request.Response, error) {
		t.Fatal("recorded email should not be looked up")
		return nil, nil
	}}
	service, _ := New(Config{Requester: requester})

	if err := service.RecordUUID(context.Background(), "u-carol", "carol@example.com"); err != nil {
		t.Fatalf("RecordUUID: %v", err)
	}
	if err := service.RecordUUID(context.Background(), "u-dave", ""); err != nil {
		t.Fatalf("RecordUUID without email: %v", err)
	}
	if err := service.RecordUUID(context.Background(), "", "x@example.com"); err == nil {
		t.Error("expected error recording participant without id")
	}

	id, err := service.AsUUID(context.Background(), "CAROL@example.com", false)
	if err != nil || id != "u-carol" {
		t.Errorf("AsUUID after record = %q, %v", id, err)
	}
}

func TestNewRequiresRequester(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without requester")
	}
}
