package storage

import (
	"context"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/kaikhaya123/RES-sub000/logging"
)

// QuotaStorage is the per-voter-per-day vote counter. TryConsume is the
// only gate on the write path and must be atomic per (voterID, dateUTC).
type QuotaStorage interface {
	// TryConsume atomically checks and decrements the voter's allowance
	// for the given UTC day, creating the record lazily on first use.
	// Returns the remaining allowance after consumption, or
	// ErrQuotaExceeded without consuming anything.
	TryConsume(ctx context.Context, voterID, dateUTC string, n, allowance int) (int, error)

	// Refund returns n units, used when a consumed vote turns out to be a
	// duplicate of an already-ledgered event.
	Refund(ctx context.Context, voterID, dateUTC string, n int) error

	Get(ctx context.Context, voterID, dateUTC string) (*QuotaRecord, error)
}

type DynamoQuotaStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoQuotaStorage) TryConsume(ctx context.Context, voterID, dateUTC string, n, allowance int) (int, error) {
	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: voterID},
			"SK": &types.AttributeValueMemberS{Value: dateUTC},
		},
		UpdateExpression: aws.String(
			"SET Remaining = if_not_exists(Remaining, :allow) - :n, Used = if_not_exists(Used, :zero) + :n"),
		ConditionExpression: aws.String("attribute_not_exists(PK) OR Remaining >= :n"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":     &types.AttributeValueMemberN{Value: strconv.Itoa(n)},
			":allow": &types.AttributeValueMemberN{Value: strconv.Itoa(allowance)},
			":zero":  &types.AttributeValueMemberN{Value: "0"},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, ErrQuotaExceeded
		}
		logging.Log.Errorf("QUOTA: consume failed for %s/%s: %v", voterID, dateUTC, err)
		return 0, err
	}

	var rec QuotaRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		logging.Log.Errorf("QUOTA: failed to unmarshal updated record: %v", err)
		return 0, err
	}
	return rec.Remaining, nil
}

func (s *DynamoQuotaStorage) Refund(ctx context.Context, voterID, dateUTC string, n int) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: voterID},
			"SK": &types.AttributeValueMemberS{Value: dateUTC},
		},
		UpdateExpression:    aws.String("SET Remaining = Remaining + :n, Used = Used - :n"),
		ConditionExpression: aws.String("attribute_exists(PK) AND Used >= :n"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberN{Value: strconv.Itoa(n)},
		},
	})
	if err != nil {
		logging.Log.Errorf("QUOTA: refund failed for %s/%s: %v", voterID, dateUTC, err)
	}
	return err
}

func (s *DynamoQuotaStorage) Get(ctx context.Context, voterID, dateUTC string) (*QuotaRecord, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: voterID},
			"SK": &types.AttributeValueMemberS{Value: dateUTC},
		},
	})
	if err != nil {
		logging.Log.Errorf("QUOTA: get failed for %s/%s: %v", voterID, dateUTC, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec QuotaRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		logging.Log.Errorf("QUOTA: failed to unmarshal record: %v", err)
		return nil, err
	}
	return &rec, nil
}
