// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversationtest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/stonedpebbles/spark/conversation"
)

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"serviceLinks": map[string]string{
			conversation.ServiceName: s.httpServer.URL,
		},
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []conversation.Conversation
	for _, id := range s.order {
		if !s.left[id] {
			items = append(items, *s.view(s.conversations[id], r))
		}
	}
	writeItemsOrdered(w, items, s.descending)
}

func (s *Server) handleListLeft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []conversation.Conversation
	for _, id := range s.order {
		if s.left[id] {
			items = append(items, *s.view(s.conversations[id], r))
		}
	}
	writeItemsOrdered(w, items, s.descending)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload conversation.Conversation
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed conversation: "+err.Error())
		return
	}
	if payload.KMSMessage == nil || payload.Activities == nil {
		writeError(w, http.StatusBadRequest, "kmsMessage and activities are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	participants := payload.KMSMessage.UserIDs
	if payload.HasTag(conversation.TagOneOnOne) && len(participants) == 2 {
		if id, ok := s.oneOnOne[pairKey(participants[0], participants[1])]; ok {
			writeJSON(w, http.StatusOK, s.conversations[id])
			return
		}
	}

	created := conversation.Conversation{
		ObjectType:   conversation.ObjectTypeConversation,
		DisplayName:  payload.DisplayName,
		Tags:         payload.Tags,
		Participants: &conversation.ItemCollection[conversation.Object]{},
		Activities:   &conversation.ItemCollection[conversation.Activity]{},
	}
	for _, participant := range participants {
		created.Participants.Items = append(created.Participants.Items, *conversation.Person(participant))
	}
	stored := s.store(created)
	for _, activity := range payload.Activities.Items {
		s.stamp(&activity, stored)
		stored.Activities.Items = append(stored.Activities.Items, activity)
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	caller := callerOf(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != "" {
		if id, ok := s.oneOnOne[pairKey(caller, user)]; ok {
			writeJSON(w, http.StatusOK, s.view(s.conversations[id], r))
			return
		}
	}
	writeError(w, http.StatusNotFound, "no one-on-one conversation with "+user)
}

// callerOf returns the user id carried as the bearer token, or "" for
// an unauthenticated request.
func callerOf(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.conversations[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, s.view(stored, r))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var activity conversation.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		writeError(w, http.StatusBadRequest, "malformed activity: "+err.Error())
		return
	}
	if activity.Target == nil || activity.Target.ID == "" {
		if activity.Object == nil || activity.Object.ObjectType != conversation.ObjectTypeConversation {
			writeError(w, http.StatusBadRequest, "activity has no conversation")
			return
		}
	}
	conversationID := ""
	if activity.Target != nil {
		conversationID = activity.Target.ID
	}
	if conversationID == "" {
		conversationID = activity.Object.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.conversations[conversationID]
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	s.stamp(&activity, stored)
	s.apply(stored, activity)
	if stored.Activities == nil {
		stored.Activities = &conversation.ItemCollection[conversation.Activity]{}
	}
	stored.Activities.Items = append(stored.Activities.Items, activity)
	writeJSON(w, http.StatusOK, activity)
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.conversations[r.URL.Query().Get("conversationId")]
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	var items []conversation.Activity
	if stored.Activities != nil {
		items = slices.Clone(stored.Activities.Items)
	}
	writeItemsOrdered(w, items, s.descending)
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeItemsOrdered(w, slices.Clone(s.mentions), s.descending)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	var lookups []struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&lookups); err != nil {
		writeError(w, http.StatusBadRequest, "malformed user lookup: "+err.Error())
		return
	}
	create := r.URL.Query().Get("shouldCreateUsers") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]map[string]string)
	for _, lookup := range lookups {
		email := strings.ToLower(lookup.Email)
		id, ok := s.users[email]
		if !ok && create {
			id = uuid.NewString()
			s.users[email] = id
			ok = true
		}
		if ok {
			result[email] = map[string]string{"id": id}
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// stamp assigns server fields to a new activity. Must be called with
// s.mu held.
func (s *Server) stamp(activity *conversation.Activity, parent *conversation.Conversation) {
	activity.ID = uuid.NewString()
	activity.URL = s.httpServer.URL + "/activities/" + activity.ID
	published := s.clock.Now()
	activity.Published = &published
	parent.LastActivity = &published
}

// apply updates conversation state for membership and key verbs. Must
// be called with s.mu held.
func (s *Server) apply(stored *conversation.Conversation, activity conversation.Activity) {
	switch activity.Verb {
	case conversation.VerbAdd:
		if activity.Object != nil && !slices.Contains(stored.ParticipantIDs(), activity.Object.ID) {
			if stored.Participants == nil {
				stored.Participants = &conversation.ItemCollection[conversation.Object]{}
			}
			stored.Participants.Items = append(stored.Participants.Items, *activity.Object)
		}
	case conversation.VerbLeave:
		if activity.Object != nil && stored.Participants != nil {
			stored.Participants.Items = slices.DeleteFunc(stored.Participants.Items, func(p conversation.Object) bool {
				return p.ID == activity.Object.ID
			})
			if activity.Actor != nil && activity.Actor.ID == activity.Object.ID {
				s.left[stored.ID] = true
			}
		}
	case conversation.VerbUpdateKey:
		if activity.Object != nil && activity.Object.DefaultActivityEncryptionKeyURL != "" {
			stored.DefaultActivityEncryptionKeyURL = activity.Object.DefaultActivityEncryptionKeyURL
		}
	case conversation.VerbUpdate:
		if activity.Object != nil && activity.Object.DisplayName != "" {
			stored.DisplayName = activity.Object.DisplayName
		}
	case conversation.VerbTag:
		if activity.Object != nil {
			for _, tag := range activity.Object.Tags {
				if !stored.HasTag(tag) {
					stored.Tags = append(stored.Tags, tag)
				}
			}
		}
	case conversation.VerbUntag:
		if activity.Object != nil {
			stored.Tags = slices.DeleteFunc(stored.Tags, func(tag string) bool {
				return slices.Contains(activity.Object.Tags, tag)
			})
		}
	}
}

// view shapes stored for a response according to the includeParticipants
// and activitiesLimit query parameters. Must be called with s.mu held.
func (s *Server) view(stored *conversation.Conversation, r *http.Request) *conversation.Conversation {
	view := cloneConversation(stored)
	query := r.URL.Query()
	if query.Get("includeParticipants") == "false" {
		view.Participants = nil
	}
	if view.Activities != nil {
		limit := intQuery(query, "activitiesLimit")
		items := view.Activities.Items
		if limit < len(items) {
			items = items[len(items)-limit:]
		}
		view.Activities.Items = items
		if len(items) == 0 {
			view.Activities = nil
		}
	}
	return view
}

// writeItemsOrdered writes an item collection, newest first when
// descending is set.
func writeItemsOrdered[T any](w http.ResponseWriter, items []T, descending bool) {
	if items == nil {
		items = []T{}
	}
	if descending {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	writeJSON(w, http.StatusOK, conversation.ItemCollection[T]{Items: items})
}
