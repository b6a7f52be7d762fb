// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"errors"
	"fmt"
)

// ErrUnidentifiedConversation is returned when an operation needs a
// conversation's url and the reference carries neither url nor id.
var ErrUnidentifiedConversation = errors.New("conversation: could not identify conversation")

// ConstructionError reports a populated actor, object or target that
// has no objectType. It is terminal: the same inputs always fail.
//
//	var constructionErr *ConstructionError
//	if errors.As(err, &constructionErr) { ... constructionErr.Field ... }
type ConstructionError struct {
	// Field is "actor", "object" or "target".
	Field string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("conversation: activity %s has no objectType", e.Field)
}

// ValidationError reports a semantically invalid request detected
// before any network call.
type ValidationError struct {
	// Operation names the rejected operation (e.g. "create", "post").
	Operation string
	// Reason describes the problem.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("conversation: %s: %s", e.Operation, e.Reason)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsConstructionError reports whether err is a *ConstructionError.
func IsConstructionError(err error) bool {
	var constructionErr *ConstructionError
	return errors.As(err, &constructionErr)
}
