package websocket

import (
	"quickchat-backend/internal/dto"

	"github.com/rs/zerolog/log"
)

// Notifier pushes message store changes to connected users. Delivery is best
// effort: offline users simply miss the event.
type Notifier interface {
	NotifyMessageCreated(message dto.MessageResponse)
	NotifyMessageDeleted(messageID, senderID, receiverID string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyMessageCreated(dto.MessageResponse)   {}
func (NopNotifier) NotifyMessageDeleted(string, string, string) {}

func (h *Hub) NotifyMessageCreated(message dto.MessageResponse) {
	ev, err := NewEvent(EventMessageCreated, MessageCreatedPayload{Message: message})
	if err != nil {
		log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to build message-created event")
		return
	}
	h.deliver(delivery{userIDs: []string{message.ReceiverID}, event: ev})
}

func (h *Hub) NotifyMessageDeleted(messageID, senderID, receiverID string) {
	ev, err := NewEvent(EventMessageDeleted, MessageDeletedPayload{MessageID: messageID})
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to build message-deleted event")
		return
	}

	users := []string{senderID}
	if receiverID != senderID {
		users = append(users, receiverID)
	}
	h.deliver(delivery{userIDs: users, event: ev})
}
