package endpoints

import (
	"net/http"

	"quickchat-backend/internal/dto"
	messagesvc "quickchat-backend/internal/service/message"
	"quickchat-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
)

type MessageEndpoints interface {
	Sidebar(http.ResponseWriter, *http.Request) error
	Conversation(http.ResponseWriter, *http.Request) error
	MarkSeen(http.ResponseWriter, *http.Request) error
	Send(http.ResponseWriter, *http.Request) error
	Delete(http.ResponseWriter, *http.Request) error
}

type messageEndpoints struct {
	service  *messagesvc.Service
	notifier websocket.Notifier
}

func NewMessageEndpoints(service *messagesvc.Service, notifier websocket.Notifier) MessageEndpoints {
	if notifier == nil {
		notifier = websocket.NopNotifier{}
	}
	return &messageEndpoints{service: service, notifier: notifier}
}

func (h *messageEndpoints) Sidebar(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	result, err := h.service.Sidebar(r.Context(), identity)
	if err != nil {
		return serviceError(err)
	}

	users := make([]dto.UserResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, toUserResponse(u))
	}
	return WriteJSON(w, http.StatusOK, dto.SidebarResponse{
		Users:        users,
		UnseenCounts: result.UnseenMessages,
	})
}

func (h *messageEndpoints) Conversation(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	messages, err := h.service.Conversation(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		return serviceError(err)
	}

	resp := dto.ListMessagesResponse{Messages: make([]dto.MessageResponse, 0, len(messages))}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, toMessageResponse(msg))
	}
	return WriteJSON(w, http.StatusOK, resp)
}

func (h *messageEndpoints) MarkSeen(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	msg, err := h.service.MarkSeen(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		return serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.MessageEnvelope{Message: toMessageResponse(msg)})
}

// Send stores the message and pushes message-created to the receiver.
func (h *messageEndpoints) Send(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("send message request", err)
	}

	msg, err := h.service.Send(r.Context(), identity, chi.URLParam(r, "id"), messagesvc.SendParams{
		Text:  req.Text,
		Image: req.Image,
	})
	if err != nil {
		return serviceError(err)
	}

	resp := toMessageResponse(msg)
	h.notifier.NotifyMessageCreated(resp)
	return WriteJSON(w, http.StatusCreated, dto.MessageEnvelope{Message: resp})
}

// Delete removes the message and pushes message-deleted to both parties.
func (h *messageEndpoints) Delete(w http.ResponseWriter, r *http.Request) error {
	identity, err := requestIdentity(r)
	if err != nil {
		return err
	}

	msg, err := h.service.Delete(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		return serviceError(err)
	}

	h.notifier.NotifyMessageDeleted(msg.MessageID, msg.SenderID, msg.ReceiverID)
	return WriteJSON(w, http.StatusOK, dto.DeleteMessageResponse{MessageID: msg.MessageID})
}
