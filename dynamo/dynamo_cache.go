package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the interface for DynamoDB operations used by Cache.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Options configures a DynamoDB cache.
type Options struct {
	// ConsistentRead makes Get use strongly consistent reads, so a value
	// stored with Put is visible to the reads that follow it. Turning it
	// off halves the read cost but can hide a freshly stored value from
	// a waiter that was just released, so keep it on under a blocking
	// decorator.
	// Default: true
	ConsistentRead bool
}

// Cache implements the stampede.Cache interface backed by a DynamoDB
// table.
//
// Table schema:
//   - Partition key: cache_id (string) - the cache identifier
//   - Sort key: item_key (string) - the cache key
//   - item_value (binary) - the stored value
type Cache struct {
	client         Client
	tableName      string
	cacheID        string
	consistentRead bool
}

// NewCache creates a DynamoDB-backed cache on tableName. cacheID
// selects the partition this cache occupies and doubles as the cache
// identifier.
func NewCache(client Client, tableName, cacheID string, optFns ...func(*Options)) *Cache {
	opts := Options{
		ConsistentRead: true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	return &Cache{
		client:         client,
		tableName:      tableName,
		cacheID:        cacheID,
		consistentRead: opts.ConsistentRead,
	}
}

// ID returns the cache identifier.
func (c *Cache) ID() string {
	return c.cacheID
}

func (c *Cache) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"cache_id": &types.AttributeValueMemberS{Value: c.cacheID},
		"item_key": &types.AttributeValueMemberS{Value: key},
	}
}

// Size counts the entries in this cache's partition.
func (c *Cache) Size(ctx context.Context) (int, error) {
	var count int
	var startKey map[string]types.AttributeValue

	for {
		resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(c.tableName),
			KeyConditionExpression: aws.String("cache_id = :id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id": &types.AttributeValueMemberS{Value: c.cacheID},
			},
			Select:            types.SelectCount,
			ConsistentRead:    aws.Bool(c.consistentRead),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("count items: %w", err)
		}

		count += int(resp.Count)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return count, nil
}

// Get returns the value stored for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.itemKey(key),
		ConsistentRead: aws.Bool(c.consistentRead),
	})
	if err != nil {
		return nil, false, fmt.Errorf("get item for key %s: %w", key, err)
	}
	if len(resp.Item) == 0 {
		return nil, false, nil
	}

	valueAttr, ok := resp.Item["item_value"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, errors.New("invalid item_value attribute in DynamoDB")
	}
	return valueAttr.Value, true, nil
}

// Put stores value under key.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"cache_id":   &types.AttributeValueMemberS{Value: c.cacheID},
			"item_key":   &types.AttributeValueMemberS{Value: key},
			"item_value": &types.AttributeValueMemberB{Value: value},
		},
	})
	if err != nil {
		return fmt.Errorf("put item for key %s: %w", key, err)
	}
	return nil
}

// Remove deletes the entry for key and returns the removed value when
// one existed.
func (c *Cache) Remove(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(c.tableName),
		Key:          c.itemKey(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, false, fmt.Errorf("delete item for key %s: %w", key, err)
	}
	if len(resp.Attributes) == 0 {
		return nil, false, nil
	}

	valueAttr, ok := resp.Attributes["item_value"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, errors.New("invalid item_value attribute in DynamoDB")
	}
	return valueAttr.Value, true, nil
}

// Clear deletes every entry in this cache's partition. Other caches
// sharing the table are not touched.
func (c *Cache) Clear(ctx context.Context) error {
	var startKey map[string]types.AttributeValue

	for {
		resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(c.tableName),
			KeyConditionExpression: aws.String("cache_id = :id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id": &types.AttributeValueMemberS{Value: c.cacheID},
			},
			ProjectionExpression: aws.String("item_key"),
			ConsistentRead:       aws.Bool(c.consistentRead),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		for _, item := range resp.Items {
			keyAttr, ok := item["item_key"].(*types.AttributeValueMemberS)
			if !ok {
				return errors.New("invalid item_key attribute in DynamoDB")
			}
			if _, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(c.tableName),
				Key:       c.itemKey(keyAttr.Value),
			}); err != nil {
				return fmt.Errorf("delete item for key %s: %w", keyAttr.Value, err)
			}
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return nil
}
