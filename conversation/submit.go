// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/stonedpebbles/spark/lib/request"
)

// Submit sends a prepared activity and returns the server's version of
// it. Shares go to the content resource with transcoding enabled;
// every other verb goes to the activity stream. The activity passed in
// is not modified: encryption is applied to a snapshot.
func (c *Client) Submit(ctx context.Context, activity *Activity) (*Activity, error) {
	descriptor := submitDescriptor(activity.Verb)
	fingerprint := c.fingerprint(ctx, activity)

	payload := activity.Clone()
	if err := c.encryptActivity(ctx, payload); err != nil {
		return nil, err
	}
	descriptor.Body = payload

	if activity.Verb != VerbAcknowledge && c.notifier != nil {
		c.notifier.UserActivity(ctx, activity.Verb)
	}

	response, err := c.requester.Do(ctx, descriptor)
	if err != nil {
		return nil, err
	}

	var result Activity
	if err := response.Decode(&result); err != nil {
		return nil, fmt.Errorf("conversation: decoding %s response: %w", activity.Verb, err)
	}
	if err := c.decryptActivity(ctx, &result); err != nil {
		return nil, err
	}
	c.logger.Debug("activity submitted",
		"verb", activity.Verb,
		"activity_id", result.ID,
		"client_temp_id", activity.ClientTempID,
		"fingerprint", fingerprint,
	)
	return &result, nil
}

// fingerprint digests the plaintext activity for debug logging. It is
// computed only when debug logging is enabled.
func (c *Client) fingerprint(ctx context.Context, activity *Activity) string {
	if !c.logger.Enabled(ctx, slog.LevelDebug) {
		return ""
	}
	digest, err := activity.Fingerprint()
	if err != nil {
		c.logger.Debug("activity fingerprint failed", "verb", activity.Verb, "error", err)
		return ""
	}
	return digest
}

// submitDescriptor routes verb to its resource and query parameters.
func submitDescriptor(verb string) request.Descriptor {
	if verb == VerbShare {
		return request.Descriptor{
			Method:   http.MethodPost,
			Service:  ServiceName,
			Resource: "content",
			Query: url.Values{
				"transcode":     {"true"},
				"async":         {"false"},
				"personRefresh": {"true"},
			},
		}
	}
	return request.Descriptor{
		Method:   http.MethodPost,
		Service:  ServiceName,
		Resource: "activities",
		Query:    url.Values{"personRefresh": {"true"}},
	}
}

// encryptActivity encrypts the object's text fields with the target's
// default key when an Encrypter is configured.
func (c *Client) encryptActivity(ctx context.Context, activity *Activity) error {
	if c.encrypter == nil || activity.Target == nil || activity.Object == nil {
		return nil
	}
	keyURI := activity.Target.DefaultActivityEncryptionKeyURL
	if keyURI == "" {
		return nil
	}
	encrypted := false
	for _, field := range []*string{&activity.Object.DisplayName, &activity.Object.Content} {
		if *field == "" {
			continue
		}
		ciphertext, err := c.encrypter.EncryptText(ctx, keyURI, *field)
		if err != nil {
			return fmt.Errorf("conversation: encrypting %s activity: %w", activity.Verb, err)
		}
		*field = ciphertext
		encrypted = true
	}
	if encrypted {
		activity.EncryptionKeyURL = keyURI
	}
	return nil
}

// decryptActivity reverses encryptActivity in place when a Decrypter is
// configured.
func (c *Client) decryptActivity(ctx context.Context, activity *Activity) error {
	if c.decrypter == nil || activity.EncryptionKeyURL == "" || activity.Object == nil {
		return nil
	}
	for _, field := range []*string{&activity.Object.DisplayName, &activity.Object.Content} {
		if *field == "" {
			continue
		}
		plaintext, err := c.decrypter.DecryptText(ctx, activity.EncryptionKeyURL, *field)
		if err != nil {
			return fmt.Errorf("conversation: decrypting activity %s: %w", activity.ID, err)
		}
		*field = plaintext
	}
	return nil
}

// decryptConversation decrypts c's title and every embedded activity.
func (c *Client) decryptConversation(ctx context.Context, conversation *Conversation) error {
	if c.decrypter == nil {
		return nil
	}
	if conversation.EncryptionKeyURL != "" && conversation.DisplayName != "" {
		plaintext, err := c.decrypter.DecryptText(ctx, conversation.EncryptionKeyURL, conversation.DisplayName)
		if err != nil {
			return fmt.Errorf("conversation: decrypting title of %s: %w", conversation.ID, err)
		}
		conversation.DisplayName = plaintext
	}
	if conversation.Activities == nil {
		return nil
	}
	for i := range conversation.Activities.Items {
		if err := c.decryptActivity(ctx, &conversation.Activities.Items[i]); err != nil {
			return err
		}
	}
	return nil
}
