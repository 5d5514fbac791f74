package websocket

import (
	"encoding/json"
	"fmt"

	"quickchat-backend/internal/dto"
)

const (
	EventOnlineUsersChanged = "online-users-changed"

	EventCallInitiate = "call-initiate"
	EventIncomingCall = "incoming-call"
	EventCallAccept   = "call-accept"
	EventCallAccepted = "call-accepted"
	EventCallEnd      = "call-end"
	EventCallEnded    = "call-ended"
	EventICECandidate = "ice-candidate"

	EventMessageCreated = "message-created"
	EventMessageDeleted = "message-deleted"
)

// Event is the envelope used in both directions on the socket.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("websocket: marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

type CallInitiatePayload struct {
	TargetUserID string          `json:"targetUserId"`
	Offer        json.RawMessage `json:"offer"`
	CallerID     string          `json:"callerId"`
	CallerName   string          `json:"callerName"`
}

type IncomingCallPayload struct {
	Offer      json.RawMessage `json:"offer"`
	CallerID   string          `json:"callerId"`
	CallerName string          `json:"callerName"`
}

type CallAcceptPayload struct {
	TargetUserID string          `json:"targetUserId"`
	Answer       json.RawMessage `json:"answer"`
}

type CallAcceptedPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type CallEndPayload struct {
	TargetUserID string `json:"targetUserId"`
}

type CallEndedPayload struct{}

type ICECandidatePayload struct {
	TargetUserID string          `json:"targetUserId"`
	Candidate    json.RawMessage `json:"candidate"`
}

type RelayedICECandidatePayload struct {
	FromUserID string          `json:"fromUserId"`
	Candidate  json.RawMessage `json:"candidate"`
}

type MessageCreatedPayload struct {
	Message dto.MessageResponse `json:"message"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

// Transport is a live connection the hub can push events to. Send must not
// block; it reports false when the event was dropped.
type Transport interface {
	ID() string
	UserID() string
	Send(Event) bool
	Close()
}
