// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"encoding/json"
	"net/url"
	"slices"
)

// KROPlaceholder stands in for the conversation's key-resource-object
// URL. The service substitutes the real URL when it forwards the
// message to the KMS.
const KROPlaceholder = "<KRO>"

// KMS message methods and well-known URIs.
const (
	KMSMethodCreate = "create"
	KMSMethodUpdate = "update"
	KMSMethodDelete = "delete"

	ResourcesURI      = "/resources"
	AuthorizationsURI = "/authorizations"
)

// KMSMessage is a key-management instruction carried by an activity.
type KMSMessage struct {
	Method      string   `json:"method"`
	URI         string   `json:"uri,omitempty"`
	ResourceURI string   `json:"resourceUri,omitempty"`
	UserIDs     []string `json:"userIds,omitempty"`
	KeyURIs     []string `json:"keyUris,omitempty"`
}

// CreateResource mints a key-resource-object binding keyURIs to
// userIDs.
func CreateResource(userIDs, keyURIs []string) *KMSMessage {
	return &KMSMessage{
		Method:  KMSMethodCreate,
		URI:     ResourcesURI,
		UserIDs: slices.Clone(userIDs),
		KeyURIs: slices.Clone(keyURIs),
	}
}

// UpdateResource binds keyURI to the existing key-resource-object.
func UpdateResource(keyURI string) *KMSMessage {
	return &KMSMessage{
		Method:      KMSMethodUpdate,
		ResourceURI: KROPlaceholder,
		URI:         keyURI,
	}
}

// CreateAuthorization grants userIDs access to the key-resource-object.
func CreateAuthorization(userIDs ...string) *KMSMessage {
	return &KMSMessage{
		Method:      KMSMethodCreate,
		URI:         AuthorizationsURI,
		ResourceURI: KROPlaceholder,
		UserIDs:     slices.Clone(userIDs),
	}
}

// DeleteAuthorization revokes authID's access to the
// key-resource-object.
func DeleteAuthorization(authID string) *KMSMessage {
	return &KMSMessage{
		Method: KMSMethodDelete,
		URI:    KROPlaceholder + AuthorizationsURI + "?" + url.Values{"authId": {authID}}.Encode(),
	}
}

// isResourceCreate reports whether m mints a key-resource-object.
func (m *KMSMessage) isResourceCreate() bool {
	return m != nil && m.Method == KMSMethodCreate && m.URI == ResourcesURI
}

// Clone returns a deep copy of m. A nil receiver returns nil.
func (m *KMSMessage) Clone() *KMSMessage {
	if m == nil {
		return nil
	}
	clone := *m
	clone.UserIDs = slices.Clone(m.UserIDs)
	clone.KeyURIs = slices.Clone(m.KeyURIs)
	return &clone
}

// MarshalJSON always emits userIds and keyUris for resource creation,
// where the KMS rejects a missing array.
func (m KMSMessage) MarshalJSON() ([]byte, error) {
	type plain KMSMessage
	if !m.isResourceCreate() {
		return json.Marshal(plain(m))
	}
	wire := struct {
		plain
		UserIDs []string `json:"userIds"`
		KeyURIs []string `json:"keyUris"`
	}{
		plain:   plain(m),
		UserIDs: nonNil(m.UserIDs),
		KeyURIs: nonNil(m.KeyURIs),
	}
	return json.Marshal(wire)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
