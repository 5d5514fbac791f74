package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickchat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

const tableWaitTimeout = 2 * time.Minute

// TableDefinitions returns the schema of every table the service uses.
func TableDefinitions() []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(model.UsersTable),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("userId"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("userId"), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				{
					IndexName: aws.String(model.UsersByEmailIndex),
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
					},
					Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				},
			},
		},
		{
			TableName:   aws.String(model.MessagesTable),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("messageId"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("senderId"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("receiverId"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("createdAt"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("messageId"), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				{
					IndexName: aws.String(model.MessagesBySenderIndex),
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String("senderId"), KeyType: types.KeyTypeHash},
						{AttributeName: aws.String("createdAt"), KeyType: types.KeyTypeRange},
					},
					Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				},
				{
					IndexName: aws.String(model.MessagesByReceiverIndex),
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String("receiverId"), KeyType: types.KeyTypeHash},
						{AttributeName: aws.String("createdAt"), KeyType: types.KeyTypeRange},
					},
					Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				},
			},
		},
	}
}

// EnsureTables creates every missing table and waits until it is active.
// Existing tables are left untouched.
func (c *DynamoDBClient) EnsureTables(ctx context.Context, tables []*dynamodb.CreateTableInput) error {
	waiter := dynamodb.NewTableExistsWaiter(c.svc)

	for _, table := range tables {
		name := aws.ToString(table.TableName)

		_, err := c.svc.CreateTable(ctx, table)
		if err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				log.Info().Str("table", name).Msg("Table already exists")
				continue
			}
			return fmt.Errorf("create table %s: %w", name, err)
		}

		log.Info().Str("table", name).Msg("Waiting for table")
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: table.TableName}, tableWaitTimeout); err != nil {
			return fmt.Errorf("wait for table %s: %w", name, err)
		}
		log.Info().Str("table", name).Msg("Table created")
	}
	return nil
}

func (c *DynamoDBClient) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	paginator := dynamodb.NewListTablesPaginator(c.svc, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}
