package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleInbound routes one client frame. Offers, answers and candidates are
// forwarded untouched; a target that is not online drops the event.
func (h *Hub) handleInbound(from Transport, data []byte) {
	var in Event
	if err := json.Unmarshal(data, &in); err != nil {
		incDropped(dropReasonMalformed)
		log.Warn().Err(err).Str("user_id", from.UserID()).Msg("Malformed frame")
		return
	}

	switch in.Type {
	case EventCallInitiate:
		h.relayCallInitiate(from, in.Payload)
	case EventCallAccept:
		h.relayCallAccept(from, in.Payload)
	case EventCallEnd:
		h.relayCallEnd(from, in.Payload)
	case EventICECandidate:
		h.relayICECandidate(from, in.Payload)
	default:
		incDropped(dropReasonUnknownType)
		log.Warn().Str("user_id", from.UserID()).Str("type", in.Type).Msg("Unknown event type")
	}
}

func (h *Hub) relayCallInitiate(from Transport, raw json.RawMessage) {
	var p CallInitiatePayload
	if !decodePayload(from, EventCallInitiate, raw, &p) {
		return
	}

	callerID := p.CallerID
	if callerID == "" {
		callerID = from.UserID()
	}

	ev, err := NewEvent(EventIncomingCall, IncomingCallPayload{
		Offer:      p.Offer,
		CallerID:   callerID,
		CallerName: p.CallerName,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build incoming-call event")
		return
	}

	if h.relay(EventCallInitiate, p.TargetUserID, ev) {
		h.pair(from.UserID(), p.TargetUserID)
	}
}

func (h *Hub) relayCallAccept(from Transport, raw json.RawMessage) {
	var p CallAcceptPayload
	if !decodePayload(from, EventCallAccept, raw, &p) {
		return
	}

	ev, err := NewEvent(EventCallAccepted, CallAcceptedPayload{Answer: p.Answer})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build call-accepted event")
		return
	}

	if h.relay(EventCallAccept, p.TargetUserID, ev) {
		h.pair(from.UserID(), p.TargetUserID)
	}
}

func (h *Hub) relayCallEnd(from Transport, raw json.RawMessage) {
	var p CallEndPayload
	if !decodePayload(from, EventCallEnd, raw, &p) {
		return
	}

	h.unpair(from.UserID(), p.TargetUserID)

	ev, err := NewEvent(EventCallEnded, CallEndedPayload{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build call-ended event")
		return
	}
	h.relay(EventCallEnd, p.TargetUserID, ev)
}

func (h *Hub) relayICECandidate(from Transport, raw json.RawMessage) {
	var p ICECandidatePayload
	if !decodePayload(from, EventICECandidate, raw, &p) {
		return
	}

	ev, err := NewEvent(EventICECandidate, RelayedICECandidatePayload{
		FromUserID: from.UserID(),
		Candidate:  p.Candidate,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build ice-candidate event")
		return
	}
	h.relay(EventICECandidate, p.TargetUserID, ev)
}

func (h *Hub) relay(inboundType, targetUserID string, ev Event) bool {
	if !h.sendToUser(targetUserID, ev) {
		log.Debug().Str("type", inboundType).Str("target_user_id", targetUserID).Msg("Relay target unreachable")
		return false
	}
	incRelayed(inboundType)
	return true
}

func (h *Hub) pair(a, b string) {
	if !h.callEndOnDisconnect || a == "" || b == "" {
		return
	}
	h.calls[a] = b
	h.calls[b] = a
}

func (h *Hub) unpair(a, b string) {
	if h.calls[a] == b {
		delete(h.calls, a)
	}
	if h.calls[b] == a {
		delete(h.calls, b)
	}
}

// endCall notifies the peer of userID that the call is over.
func (h *Hub) endCall(userID string) {
	peer, ok := h.calls[userID]
	if !ok {
		return
	}
	h.unpair(userID, peer)

	ev, err := NewEvent(EventCallEnded, CallEndedPayload{})
	if err != nil {
		return
	}
	h.sendToUser(peer, ev)
}

func decodePayload(from Transport, eventType string, raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		incDropped(dropReasonMalformed)
		log.Warn().Err(err).Str("user_id", from.UserID()).Str("type", eventType).Msg("Malformed payload")
		return false
	}
	return true
}
