package message

import (
	"context"
	"errors"
	"fmt"

	"quickchat-backend/internal/database"
	"quickchat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("message repository: not found")

type Repository interface {
	GetUser(ctx context.Context, userID string) (model.UserItem, error)
	ListUsersExcept(ctx context.Context, userID string) ([]model.UserItem, error)
	CreateMessage(ctx context.Context, msg model.MessageItem) error
	GetMessage(ctx context.Context, messageID string) (model.MessageItem, error)
	// ListConversation returns the messages exchanged between a and b in both
	// directions, in no particular order.
	ListConversation(ctx context.Context, a, b string) ([]model.MessageItem, error)
	ListUnseen(ctx context.Context, receiverID string) ([]model.MessageItem, error)
	MarkSeen(ctx context.Context, messageID string) error
	DeleteMessage(ctx context.Context, messageID string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	var user model.UserItem
	err := r.db.Client.GetItem(ctx, model.UsersTable, map[string]types.AttributeValue{
		"userId": database.S(userID),
	}, &user)
	if errors.Is(err, database.ErrItemNotFound) {
		return model.UserItem{}, ErrNotFound
	}
	return user, err
}

func (r *DynamoRepository) ListUsersExcept(ctx context.Context, userID string) ([]model.UserItem, error) {
	items, err := r.db.Client.ScanAll(
		ctx,
		model.UsersTable,
		"userId <> :me",
		map[string]types.AttributeValue{":me": database.S(userID)},
		nil,
	)
	if err != nil {
		return nil, err
	}

	users := make([]model.UserItem, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}
	return users, nil
}

func (r *DynamoRepository) CreateMessage(ctx context.Context, msg model.MessageItem) error {
	return r.db.Client.PutItem(ctx, model.MessagesTable, msg, "attribute_not_exists(messageId)")
}

func (r *DynamoRepository) GetMessage(ctx context.Context, messageID string) (model.MessageItem, error) {
	var msg model.MessageItem
	err := r.db.Client.GetItem(ctx, model.MessagesTable, messageKey(messageID), &msg)
	if errors.Is(err, database.ErrItemNotFound) {
		return model.MessageItem{}, ErrNotFound
	}
	return msg, err
}

func (r *DynamoRepository) ListConversation(ctx context.Context, a, b string) ([]model.MessageItem, error) {
	sent, err := r.listSent(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if a == b {
		return sent, nil
	}

	received, err := r.listSent(ctx, b, a)
	if err != nil {
		return nil, err
	}
	return append(sent, received...), nil
}

func (r *DynamoRepository) listSent(ctx context.Context, senderID, receiverID string) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryAll(ctx, database.Query{
		Table:        model.MessagesTable,
		Index:        model.MessagesBySenderIndex,
		KeyCondition: "senderId = :sender",
		Filter:       "receiverId = :receiver",
		Values: map[string]types.AttributeValue{
			":sender":   database.S(senderID),
			":receiver": database.S(receiverID),
		},
	})
	if err != nil {
		return nil, err
	}
	return unmarshalMessages(items)
}

func (r *DynamoRepository) ListUnseen(ctx context.Context, receiverID string) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryAll(ctx, database.Query{
		Table:        model.MessagesTable,
		Index:        model.MessagesByReceiverIndex,
		KeyCondition: "receiverId = :receiver",
		Filter:       "seen = :seen",
		Values: map[string]types.AttributeValue{
			":receiver": database.S(receiverID),
			":seen":     database.Bool(false),
		},
	})
	if err != nil {
		return nil, err
	}
	return unmarshalMessages(items)
}

func (r *DynamoRepository) MarkSeen(ctx context.Context, messageID string) error {
	err := r.db.Client.UpdateItem(
		ctx,
		model.MessagesTable,
		messageKey(messageID),
		"SET seen = :seen",
		"attribute_exists(messageId)",
		map[string]types.AttributeValue{":seen": database.Bool(true)},
		nil,
		nil,
	)
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrNotFound
	}
	return err
}

func (r *DynamoRepository) DeleteMessage(ctx context.Context, messageID string) error {
	return r.db.Client.DeleteItem(ctx, model.MessagesTable, messageKey(messageID))
}

func messageKey(messageID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"messageId": database.S(messageID)}
}

func unmarshalMessages(items []map[string]types.AttributeValue) ([]model.MessageItem, error) {
	messages := make([]model.MessageItem, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return messages, nil
}
