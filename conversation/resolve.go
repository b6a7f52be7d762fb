// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"strings"
)

// ResolveRef fills in ref.URL from ref.ID when only the id is known,
// mutating ref in place. A ref that already has a url, or has neither,
// is returned unchanged; the latter fails later with
// ErrUnidentifiedConversation wherever a url is required.
func (c *Client) ResolveRef(ctx context.Context, ref *Object) (*Object, error) {
	if ref == nil || ref.URL != "" || ref.ID == "" {
		return ref, nil
	}
	base, err := c.services.ServiceURL(ctx, ServiceName)
	if err != nil {
		return nil, fmt.Errorf("conversation: inferring url for conversation %s: %w", ref.ID, err)
	}
	ref.URL = strings.TrimRight(base, "/") + "/conversations/" + ref.ID
	c.logger.Warn("inferred conversation url from id; pass a full conversation reference instead",
		"conversation_id", ref.ID,
		"conversation_url", ref.URL,
	)
	return ref, nil
}

// resolveTarget resolves ref and returns a conversation target carrying
// a url.
func (c *Client) resolveTarget(ctx context.Context, ref *Object) (*Object, error) {
	ref, err := c.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if ref == nil || ref.URL == "" {
		return nil, ErrUnidentifiedConversation
	}
	target := ref.Clone()
	if target.ObjectType == "" {
		target.ObjectType = ObjectTypeConversation
	}
	return target, nil
}
