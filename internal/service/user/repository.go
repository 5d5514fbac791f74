package user

import (
	"context"
	"errors"
	"fmt"

	"quickchat-backend/internal/database"
	"quickchat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound = errors.New("user repository: not found")
	ErrExists   = errors.New("user repository: already exists")
)

type Repository interface {
	CreateUser(ctx context.Context, user model.UserItem) error
	SaveUser(ctx context.Context, user model.UserItem) error
	GetUser(ctx context.Context, userID string) (model.UserItem, error)
	FindUserByEmail(ctx context.Context, email string) (model.UserItem, error)
	DeleteUser(ctx context.Context, userID string) error
	// DeleteUserMessages removes every message the user sent or received and
	// returns how many were deleted.
	DeleteUserMessages(ctx context.Context, userID string) (int, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) CreateUser(ctx context.Context, user model.UserItem) error {
	err := r.db.Client.PutItem(ctx, model.UsersTable, user, "attribute_not_exists(userId)")
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrExists
	}
	return err
}

func (r *DynamoRepository) SaveUser(ctx context.Context, user model.UserItem) error {
	err := r.db.Client.PutItem(ctx, model.UsersTable, user, "attribute_exists(userId)")
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrNotFound
	}
	return err
}

func (r *DynamoRepository) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	var user model.UserItem
	err := r.db.Client.GetItem(
		ctx,
		model.UsersTable,
		map[string]types.AttributeValue{"userId": database.S(userID)},
		&user,
	)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.UserItem{}, ErrNotFound
		}
		return model.UserItem{}, err
	}
	return user, nil
}

func (r *DynamoRepository) FindUserByEmail(ctx context.Context, email string) (model.UserItem, error) {
	items, err := r.db.Client.QueryAll(ctx, database.Query{
		Table:        model.UsersTable,
		Index:        model.UsersByEmailIndex,
		KeyCondition: "email = :email",
		Values:       map[string]types.AttributeValue{":email": database.S(email)},
	})
	if err != nil {
		return model.UserItem{}, err
	}
	if len(items) == 0 {
		return model.UserItem{}, ErrNotFound
	}

	var user model.UserItem
	if err := attributevalue.UnmarshalMap(items[0], &user); err != nil {
		return model.UserItem{}, err
	}
	return user, nil
}

func (r *DynamoRepository) DeleteUser(ctx context.Context, userID string) error {
	return r.db.Client.DeleteItem(ctx, model.UsersTable, map[string]types.AttributeValue{
		"userId": database.S(userID),
	})
}

func (r *DynamoRepository) DeleteUserMessages(ctx context.Context, userID string) (int, error) {
	keys := make([]map[string]types.AttributeValue, 0)
	seen := make(map[string]struct{})

	for _, q := range []struct{ index, attr string }{
		{model.MessagesBySenderIndex, "senderId"},
		{model.MessagesByReceiverIndex, "receiverId"},
	} {
		items, err := r.db.Client.QueryAll(ctx, database.Query{
			Table:        model.MessagesTable,
			Index:        q.index,
			KeyCondition: q.attr + " = :userId",
			Values:       map[string]types.AttributeValue{":userId": database.S(userID)},
		})
		if err != nil {
			return 0, fmt.Errorf("list messages by %s: %w", q.attr, err)
		}

		for _, item := range items {
			var msg model.MessageItem
			if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
				return 0, err
			}
			if _, dup := seen[msg.MessageID]; dup {
				continue
			}
			seen[msg.MessageID] = struct{}{}
			keys = append(keys, map[string]types.AttributeValue{"messageId": database.S(msg.MessageID)})
		}
	}

	if err := r.db.Client.BatchDeleteItems(ctx, model.MessagesTable, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}
