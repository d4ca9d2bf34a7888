package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mediagate/internal/domain"
)

// OwnerRepo provides typed DynamoDB operations for the owners table.
type OwnerRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOwnerRepo(client *dynamodb.Client, tableName string) *OwnerRepo {
	return &OwnerRepo{client: client, tableName: tableName}
}

func (r *OwnerRepo) Put(ctx context.Context, o *domain.Owner) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal owner: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OwnerRepo) Get(ctx context.Context, ownerID int64) (*domain.Owner, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("owner_id", ownerID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("owner %d: %w", ownerID, domain.ErrNotFound)
	}
	var o domain.Owner
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepo) Update(ctx context.Context, ownerID int64, updates map[string]interface{}) error {
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       numKey("owner_id", ownerID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// ListBanned returns all currently banned owners.
func (r *OwnerRepo) ListBanned(ctx context.Context) ([]domain.Owner, error) {
	return r.listWhere(ctx, "banned = :t")
}

// ListPremium returns all owners with the premium flag set, including those
// whose expiry has passed but not yet been lazily revoked.
func (r *OwnerRepo) ListPremium(ctx context.Context) ([]domain.Owner, error) {
	return r.listWhere(ctx, "premium = :t")
}

func (r *OwnerRepo) listWhere(ctx context.Context, filter string) ([]domain.Owner, error) {
	var owners []domain.Owner
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			FilterExpression:  aws.String(filter),
			ExclusiveStartKey: startKey,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberBOOL{Value: true},
			},
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Owner
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		owners = append(owners, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return owners, nil
}
