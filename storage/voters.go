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

type VoterStorage interface {
	Get(ctx context.Context, id string) (*Voter, error)
	GetAll(ctx context.Context) ([]*Voter, error)
	Put(ctx context.Context, voter *Voter) error
	// Deactivate marks the voter inactive. Voters are never deleted.
	Deactivate(ctx context.Context, id string) error
}

type DynamoVoterStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoterStorage) Get(ctx context.Context, id string) (*Voter, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("VOTER: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.TableName),
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("VOTER: get failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrVoterNotFound
	}

	var v Voter
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		logging.Log.Errorf("VOTER: failed to unmarshal: %v", err)
		return nil, err
	}
	return &v, nil
}

func (s *DynamoVoterStorage) GetAll(ctx context.Context) ([]*Voter, error) {
	var voters []*Voter
	input := &dynamodb.ScanInput{TableName: aws.String(s.TableName)}

	for {
		out, err := s.Client.Scan(ctx, input)
		if err != nil {
			logging.Log.Errorf("VOTER: scan failed: %v", err)
			return nil, err
		}

		var page []*Voter
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("VOTER: failed to unmarshal list: %v", err)
			return nil, err
		}
		voters = append(voters, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return voters, nil
}

func (s *DynamoVoterStorage) Put(ctx context.Context, voter *Voter) error {
	item, err := attributevalue.MarshalMap(voter)
	if err != nil {
		logging.Log.Errorf("VOTER: failed to marshal: %v", err)
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
		logging.Log.Errorf("VOTER: put failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoterStorage) Deactivate(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET Active = :val"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":val": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrVoterNotFound
		}
		logging.Log.Errorf("VOTER: deactivate failed for %s: %v", id, err)
		return err
	}
	return nil
}
