package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mediagate/internal/domain"
)

// TokenRepo provides typed DynamoDB operations for the access tokens table.
// Tokens are keyed by their random value; the owner and payload bindings are
// attributes checked by the caller.
type TokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTokenRepo(client *dynamodb.Client, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

func (r *TokenRepo) Put(ctx context.Context, t *domain.AccessToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.AccessToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("token: %w", domain.ErrNotFound)
	}
	var t domain.AccessToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed flips the used flag exactly once. The conditional write is what
// guarantees at most one OK per token under concurrent verification; a lost
// race returns ErrConflict.
func (r *TokenRepo) MarkUsed(ctx context.Context, token string, at time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("token", token),
		UpdateExpression:    aws.String("SET used = :t, used_at = :at ADD use_count :one"),
		ConditionExpression: aws.String("used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberBOOL{Value: true},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":at":  &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("token already used: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// IncrementClicks bumps the shortener click counter. Missing tokens are
// ignored: a click can land after the TTL removed the row.
func (r *TokenRepo) IncrementClicks(ctx context.Context, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("token", token),
		UpdateExpression:    aws.String("ADD click_count :one"),
		ConditionExpression: aws.String("attribute_exists(#tok)"),
		ExpressionAttributeNames: map[string]string{
			"#tok": "token",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
	}
	return err
}

func (r *TokenRepo) DeleteForOwner(ctx context.Context, ownerID int64) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-index"),
		KeyConditionExpression: aws.String("owner_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberN{Value: strconv.FormatInt(ownerID, 10)},
		},
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		tok, ok := item["token"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("token", tok.Value),
		}); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DeleteExpired removes tokens past their expiry. DynamoDB's own TTL also
// reaps them, but lazily; the hourly sweep keeps stats honest in between.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#ttl <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		tok, ok := item["token"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("token", tok.Value),
		}); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Stats scans the table and aggregates click tracking.
func (r *TokenRepo) Stats(ctx context.Context) (*domain.TokenStats, error) {
	var stats domain.TokenStats
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var tokens []domain.AccessToken
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &tokens); err != nil {
			return nil, err
		}
		for _, t := range tokens {
			stats.TotalTokens++
			stats.TotalClicks += t.ClickCount
			if t.Used {
				stats.TotalUsed++
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	if stats.TotalTokens > 0 {
		stats.AvgClicks = float64(stats.TotalClicks) / float64(stats.TotalTokens)
	}
	return &stats, nil
}
