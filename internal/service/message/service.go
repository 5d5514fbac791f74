package message

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"quickchat-backend/internal/database"
	internaljwt "quickchat-backend/internal/jwt"
	"quickchat-backend/internal/model"
	"quickchat-backend/internal/upload"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo     Repository
	uploader upload.Uploader
	now      func() time.Time
}

func New(db *database.Database, uploader upload.Uploader) *Service {
	return NewWithRepository(NewDynamoRepository(db), uploader, time.Now)
}

func NewWithRepository(repo Repository, uploader upload.Uploader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if uploader == nil {
		uploader = upload.Disabled{}
	}
	return &Service{repo: repo, uploader: uploader, now: now}
}

func (s *Service) Sidebar(ctx context.Context, identity internaljwt.Identity) (SidebarResult, error) {
	if err := requireIdentity(identity); err != nil {
		return SidebarResult{}, err
	}

	users, err := s.repo.ListUsersExcept(ctx, identity.UserID)
	if err != nil {
		return SidebarResult{}, newError(ErrorCodeInternal, "failed to list users", err)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].FullName) < strings.ToLower(users[j].FullName)
	})

	unseen, err := s.repo.ListUnseen(ctx, identity.UserID)
	if err != nil {
		return SidebarResult{}, newError(ErrorCodeInternal, "failed to count unseen messages", err)
	}

	counts := make(map[string]int)
	for _, msg := range unseen {
		counts[msg.SenderID]++
	}

	return SidebarResult{Users: users, UnseenMessages: counts}, nil
}

// Conversation returns every message between the caller and otherUserID,
// oldest first. Messages the caller received are marked seen.
func (s *Service) Conversation(ctx context.Context, identity internaljwt.Identity, otherUserID string) ([]model.MessageItem, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	otherUserID = strings.TrimSpace(otherUserID)
	if otherUserID == "" {
		return nil, newError(ErrorCodeValidation, "user id is required", nil)
	}

	messages, err := s.repo.ListConversation(ctx, identity.UserID, otherUserID)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to load messages", err)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt < messages[j].CreatedAt
	})

	for i := range messages {
		msg := &messages[i]
		if msg.ReceiverID != identity.UserID || msg.Seen {
			continue
		}
		if err := s.repo.MarkSeen(ctx, msg.MessageID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, newError(ErrorCodeInternal, "failed to mark messages seen", err)
		}
		msg.Seen = true
	}

	return messages, nil
}

// MarkSeen is allowed for the receiver only.
func (s *Service) MarkSeen(ctx context.Context, identity internaljwt.Identity, messageID string) (model.MessageItem, error) {
	msg, err := s.load(ctx, identity, messageID)
	if err != nil {
		return model.MessageItem{}, err
	}
	if msg.ReceiverID != identity.UserID {
		return model.MessageItem{}, newError(ErrorCodeForbidden, "only the receiver can mark a message as seen", nil)
	}
	if msg.Seen {
		return msg, nil
	}

	if err := s.repo.MarkSeen(ctx, msg.MessageID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.MessageItem{}, newError(ErrorCodeNotFound, "Message not found", err)
		}
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to mark message seen", err)
	}
	msg.Seen = true
	return msg, nil
}

// Send stores a message from the caller to receiverID. At least one of text
// or image is required; image may be a data URI or a URL.
func (s *Service) Send(ctx context.Context, identity internaljwt.Identity, receiverID string, params SendParams) (model.MessageItem, error) {
	if err := requireIdentity(identity); err != nil {
		return model.MessageItem{}, err
	}

	receiverID = strings.TrimSpace(receiverID)
	text := strings.TrimSpace(params.Text)
	image := strings.TrimSpace(params.Image)

	if receiverID == "" {
		return model.MessageItem{}, newError(ErrorCodeValidation, "receiver id is required", nil)
	}
	if text == "" && image == "" {
		return model.MessageItem{}, newError(ErrorCodeValidation, "message text or image is required", nil)
	}

	if _, err := s.repo.GetUser(ctx, receiverID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.MessageItem{}, newError(ErrorCodeNotFound, "Receiver not found", err)
		}
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to load receiver", err)
	}

	var imageURL string
	if image != "" {
		url, err := s.uploader.Upload(ctx, image)
		if err != nil {
			return model.MessageItem{}, uploadError(err)
		}
		imageURL = url
	}

	msg := model.MessageItem{
		MessageID:  uuid.NewString(),
		SenderID:   identity.UserID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      imageURL,
		CreatedAt:  s.now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to save message", err)
	}

	log.Debug().
		Str("message_id", msg.MessageID).
		Str("sender_id", msg.SenderID).
		Str("receiver_id", msg.ReceiverID).
		Msg("Message stored")
	return msg, nil
}

// Delete is allowed for the sender only and returns the removed message.
func (s *Service) Delete(ctx context.Context, identity internaljwt.Identity, messageID string) (model.MessageItem, error) {
	msg, err := s.load(ctx, identity, messageID)
	if err != nil {
		return model.MessageItem{}, err
	}
	if msg.SenderID != identity.UserID {
		return model.MessageItem{}, newError(ErrorCodeForbidden, "only the sender can delete a message", nil)
	}

	if err := s.repo.DeleteMessage(ctx, msg.MessageID); err != nil {
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to delete message", err)
	}
	return msg, nil
}

func (s *Service) load(ctx context.Context, identity internaljwt.Identity, messageID string) (model.MessageItem, error) {
	if err := requireIdentity(identity); err != nil {
		return model.MessageItem{}, err
	}
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return model.MessageItem{}, newError(ErrorCodeValidation, "message id is required", nil)
	}

	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.MessageItem{}, newError(ErrorCodeNotFound, "Message not found", err)
		}
		return model.MessageItem{}, newError(ErrorCodeInternal, "failed to load message", err)
	}
	return msg, nil
}

func requireIdentity(identity internaljwt.Identity) error {
	if strings.TrimSpace(identity.UserID) == "" {
		return newError(ErrorCodeValidation, "invalid user identity", nil)
	}
	return nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrInvalidImage), errors.Is(err, upload.ErrImageTooLarge):
		return newError(ErrorCodeValidation, err.Error(), err)
	case errors.Is(err, upload.ErrDisabled):
		return newError(ErrorCodeValidation, "image uploads are not enabled", err)
	default:
		return newError(ErrorCodeInternal, "failed to upload image", err)
	}
}
