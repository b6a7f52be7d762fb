// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestObjectUnmarshalBareID(t *testing.T) {
	var activity Activity
	err := json.Unmarshal([]byte(`{"verb":"post","actor":"u-1","object":{"objectType":"comment","displayName":"hi"}}`), &activity)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if activity.Actor.ID != "u-1" || activity.Actor.ObjectType != ObjectTypePerson {
		t.Errorf("actor = %+v", activity.Actor)
	}
	if activity.Object.DisplayName != "hi" {
		t.Errorf("object = %+v", activity.Object)
	}
}

func TestKMSMessageWireShapes(t *testing.T) {
	tests := []struct {
		name    string
		message *KMSMessage
		want    string
	}{
		{
			name:    "create resource always carries arrays",
			message: CreateResource(nil, nil),
			want:    `{"method":"create","uri":"/resources","userIds":[],"keyUris":[]}`,
		},
		{
			name:    "create resource",
			message: CreateResource([]string{"u-1"}, []string{"kms://k/1"}),
			want:    `{"method":"create","uri":"/resources","userIds":["u-1"],"keyUris":["kms://k/1"]}`,
		},
		{
			name:    "update resource",
			message: UpdateResource("kms://k/2"),
			want:    `{"method":"update","uri":"kms://k/2","resourceUri":"<KRO>"}`,
		},
		{
			name:    "create authorization",
			message: CreateAuthorization("u-2"),
			want:    `{"method":"create","uri":"/authorizations","resourceUri":"<KRO>","userIds":["u-2"]}`,
		},
		{
			name:    "delete authorization",
			message: DeleteAuthorization("u-3"),
			want:    `{"method":"delete","uri":"<KRO>/authorizations?authId=u-3"}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := json.Marshal(test.message)
			if err != nil {
				t.Fatal(err)
			}
			// encoding/json escapes < and >; compare the decoded form.
			got := strings.NewReplacer(`\u003c`, "<", `\u003e`, ">").Replace(string(data))
			if got != test.want {
				t.Errorf("got  %s\nwant %s", got, test.want)
			}
		})
	}
}

func TestConversationHelpers(t *testing.T) {
	conversation := &Conversation{
		ID:                              "c1",
		URL:                             "https://conv.example/conversations/c1",
		DisplayName:                     "not in ref",
		DefaultActivityEncryptionKeyURL: "kms://k/1",
		Tags:                            []string{TagOneOnOne},
		Participants:                    &ItemCollection[Object]{Items: []Object{{ID: "u-1"}, {}, {ID: "u-2"}}},
	}
	ref := conversation.Ref()
	if ref.ObjectType != ObjectTypeConversation || ref.DisplayName != "" || ref.DefaultActivityEncryptionKeyURL != "kms://k/1" {
		t.Errorf("ref = %+v", ref)
	}
	if ids := conversation.ParticipantIDs(); len(ids) != 2 || ids[0] != "u-1" || ids[1] != "u-2" {
		t.Errorf("participant ids = %v", ids)
	}
	if !conversation.HasTag(TagOneOnOne) {
		t.Error("HasTag")
	}
}
