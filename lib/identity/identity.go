// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity maps participant references to stable user UUIDs.
//
// A reference is either a UUID (returned unchanged, lowercased), an
// email address (looked up through the conversation service's "users"
// resource, optionally creating the user), or an opaque identifier
// (returned unchanged). Email lookups are cached in an LRU, and
// [Service.RecordUUID] feeds that cache from the participant lists the
// conversation client sees in list responses, so most lookups never
// reach the network.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/stonedpebbles/spark/lib/request"
)

// ErrUnknownUser is returned when the service has no user for an email
// and creation was not requested.
var ErrUnknownUser = errors.New("identity: unknown user")

// Requester executes backend requests.
type Requester interface {
	Do(ctx context.Context, descriptor request.Descriptor) (*request.Response, error)
}

// Config holds configuration for creating a Service.
type Config struct {
	// Requester is used for email lookups. Required.
	Requester Requester

	// CacheSize bounds the email→UUID cache. Defaults to 1024.
	CacheSize int

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Service resolves participant references. Safe for concurrent use.
type Service struct {
	requester Requester
	byEmail   *lru.Cache[string, string]
	logger    *slog.Logger
}

// New creates a Service.
func New(config Config) (*Service, error) {
	if config.Requester == nil {
		return nil, errors.New("identity: Requester is required")
	}
	size := config.CacheSize
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("identity: creating cache: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{requester: config.Requester, byEmail: cache, logger: logger}, nil
}

// AsUUID resolves participant to a user UUID. With create set, an
// unknown email address is provisioned instead of rejected.
func (s *Service) AsUUID(ctx context.Context, participant string, create bool) (string, error) {
	participant = strings.TrimSpace(participant)
	if participant == "" {
		return "", errors.New("identity: empty participant reference")
	}
	if parsed, err := uuid.Parse(participant); err == nil {
		return parsed.String(), nil
	}
	if !strings.Contains(participant, "@") {
		return participant, nil
	}

	email := strings.ToLower(participant)
	if id, ok := s.byEmail.Get(email); ok {
		return id, nil
	}
	id, err := s.lookup(ctx, email, create)
	if err != nil {
		return "", err
	}
	s.byEmail.Add(email, id)
	return id, nil
}

// RecordUUID remembers that emailAddress belongs to id. Entries without
// an email address are ignored.
func (s *Service) RecordUUID(_ context.Context, id, emailAddress string) error {
	if id == "" {
		return errors.New("identity: recording participant without id")
	}
	if emailAddress == "" {
		return nil
	}
	s.byEmail.Add(strings.ToLower(emailAddress), id)
	return nil
}

// lookup asks the service for email's UUID. The response maps each
// requested email to a user record.
func (s *Service) lookup(ctx context.Context, email string, create bool) (string, error) {
	response, err := s.requester.Do(ctx, request.Descriptor{
		Method:   http.MethodPost,
		Service:  "conversation",
		Resource: "users",
		Query:    url.Values{"shouldCreateUsers": {strconv.FormatBool(create)}},
		Body:     []map[string]string{{"email": email}},
	})
	if err != nil {
		return "", fmt.Errorf("identity: looking up %s: %w", email, err)
	}

	var users map[string]struct {
		ID string `json:"id"`
	}
	if err := response.Decode(&users); err != nil {
		return "", fmt.Errorf("identity: looking up %s: %w", email, err)
	}
	for key, user := range users {
		if strings.EqualFold(key, email) && user.ID != "" {
			s.logger.Debug("resolved participant email", "email", email, "user_id", user.ID, "created", create)
			return user.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownUser, email)
}
