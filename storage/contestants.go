package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/kaikhaya123/RES-sub000/logging"
)

type ContestantStorage interface {
	Get(ctx context.Context, id string) (*Contestant, error)
	GetAll(ctx context.Context) ([]*Contestant, error)
	Put(ctx context.Context, contestant *Contestant) error
	UpdateStatus(ctx context.Context, id string, status ContestantStatus) error
}

type DynamoContestantStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoContestantStorage) Get(ctx context.Context, id string) (*Contestant, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.TableName),
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CONTESTANT: get failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrContestantNotFound
	}

	var c Contestant
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		logging.Log.Errorf("CONTESTANT: failed to unmarshal: %v", err)
		return nil, err
	}
	return &c, nil
}

func (s *DynamoContestantStorage) GetAll(ctx context.Context) ([]*Contestant, error) {
	var contestants []*Contestant
	input := &dynamodb.ScanInput{TableName: aws.String(s.TableName)}

	for {
		out, err := s.Client.Scan(ctx, input)
		if err != nil {
			logging.Log.Errorf("CONTESTANT: scan failed: %v", err)
			return nil, err
		}

		var page []*Contestant
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("CONTESTANT: failed to unmarshal list: %v", err)
			return nil, err
		}
		contestants = append(contestants, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return contestants, nil
}

func (s *DynamoContestantStorage) Put(ctx context.Context, contestant *Contestant) error {
	item, err := attributevalue.MarshalMap(contestant)
	if err != nil {
		logging.Log.Errorf("CONTESTANT: failed to marshal: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrItemAlreadyExists
		}
		logging.Log.Errorf("CONTESTANT: put failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoContestantStorage) UpdateStatus(ctx context.Context, id string, status ContestantStatus) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #st = :status"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#st": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrContestantNotFound
		}
		logging.Log.Errorf("CONTESTANT: status update failed for %s: %v", id, err)
		return err
	}
	return nil
}
