package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrConditionFailed = errors.New("condition check failed")
)

// Query describes a key condition query, optionally on an index.
type Query struct {
	Table            string
	Index            string
	KeyCondition     string
	Filter           string
	Values           map[string]types.AttributeValue
	Names            map[string]string
	ScanIndexForward *bool
}

func S(value string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: value}
}

func Bool(value bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: value}
}

// PutItem writes item. A non-empty condition is sent as ConditionExpression
// and a failed check returns ErrConditionFailed.
func (c *DynamoDBClient) PutItem(
	ctx context.Context,
	tableName string,
	item interface{},
	condition string,
) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      av,
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
	}

	if _, err = c.svc.PutItem(ctx, input); err != nil {
		return wrapConditional(fmt.Sprintf("put item %s", tableName), err)
	}
	return nil
}

func (c *DynamoDBClient) GetItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	out interface{},
) error {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	res, err := c.svc.GetItem(ctx, input)
	if err != nil {
		return fmt.Errorf("get item %s: %w", tableName, err)
	}
	if res.Item == nil {
		return fmt.Errorf("%s: %w", tableName, ErrItemNotFound)
	}

	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

// UpdateItem applies updateExpr and decodes the new item into out when out is
// not nil. condition may be empty.
func (c *DynamoDBClient) UpdateItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	updateExpr string,
	condition string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
	out interface{},
) error {
	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: exprAttrValues,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(exprAttrNames) > 0 {
		input.ExpressionAttributeNames = exprAttrNames
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
	}

	res, err := c.svc.UpdateItem(ctx, input)
	if err != nil {
		return wrapConditional(fmt.Sprintf("update item %s", tableName), err)
	}

	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return fmt.Errorf("unmarshal updated item: %w", err)
		}
	}
	return nil
}

func (c *DynamoDBClient) DeleteItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}

	if _, err := c.svc.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("delete item %s: %w", tableName, err)
	}
	return nil
}

// QueryAll runs q and follows LastEvaluatedKey until every page is read.
func (c *DynamoDBClient) QueryAll(ctx context.Context, q Query) ([]map[string]types.AttributeValue, error) {
	var allItems []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(q.Table),
			KeyConditionExpression:    aws.String(q.KeyCondition),
			ExpressionAttributeValues: q.Values,
		}
		if q.Index != "" {
			input.IndexName = aws.String(q.Index)
		}
		if q.Filter != "" {
			input.FilterExpression = aws.String(q.Filter)
		}
		if len(q.Names) > 0 {
			input.ExpressionAttributeNames = q.Names
		}
		if q.ScanIndexForward != nil {
			input.ScanIndexForward = aws.Bool(*q.ScanIndexForward)
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := c.svc.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query all %s[%s]: %w", q.Table, q.Index, err)
		}

		allItems = append(allItems, result.Items...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	return allItems, nil
}

// ScanAll reads every page of tableName. filterExpr may be empty.
func (c *DynamoDBClient) ScanAll(
	ctx context.Context,
	tableName string,
	filterExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
) ([]map[string]types.AttributeValue, error) {
	var allItems []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName: aws.String(tableName),
		}
		if filterExpr != "" {
			input.FilterExpression = aws.String(filterExpr)
			input.ExpressionAttributeValues = exprAttrValues
		}
		if len(exprAttrNames) > 0 {
			input.ExpressionAttributeNames = exprAttrNames
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := c.svc.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan all %s: %w", tableName, err)
		}

		allItems = append(allItems, result.Items...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}
	return allItems, nil
}

// BatchDeleteItems deletes keys in chunks of 25, retrying unprocessed
// requests with exponential backoff.
func (c *DynamoDBClient) BatchDeleteItems(
	ctx context.Context,
	tableName string,
	keys []map[string]types.AttributeValue,
) error {
	const batchSize = 25

	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))

		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, key := range keys[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		requests := map[string][]types.WriteRequest{tableName: writeRequests}
		if err := c.batchWriteWithRetry(ctx, requests); err != nil {
			return fmt.Errorf("batch delete %s: %w", tableName, err)
		}
	}

	return nil
}

func (c *DynamoDBClient) batchWriteWithRetry(
	ctx context.Context,
	requests map[string][]types.WriteRequest,
) error {
	const maxRetries = 3
	currentRequests := requests

	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := c.svc.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: currentRequests,
		})
		if err != nil {
			return fmt.Errorf("batch write (attempt %d): %w", attempt+1, err)
		}

		if len(result.UnprocessedItems) == 0 {
			return nil
		}
		currentRequests = result.UnprocessedItems

		backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%d items remain unprocessed after %d attempts", countUnprocessedItems(currentRequests), maxRetries)
}

func countUnprocessedItems(requests map[string][]types.WriteRequest) int {
	count := 0
	for _, reqs := range requests {
		count += len(reqs)
	}
	return count
}

func wrapConditional(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%s: %w", op, ErrConditionFailed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
