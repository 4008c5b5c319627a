package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/kaikhaya123/RES-sub000/logging"
)

// DedupKey builds the write-once ledger key. Two requests carrying the
// same voter, contestant and client nonce are the same vote.
func DedupKey(voterID, contestantID, clientNonce string) string {
	return fmt.Sprintf("%s#%s#%s", voterID, contestantID, clientNonce)
}

// LedgerStorage is the append-only vote event log, the sole source of
// truth for tallies. Events are never mutated or deleted; corrections are
// appended as reversal events.
type LedgerStorage interface {
	// Append writes the event once. A second append with the same
	// DedupKey returns ErrDuplicateEvent and leaves the ledger unchanged.
	Append(ctx context.Context, event *VoteEvent) error

	// Replay streams every event in Seq order. Used for rebuild on start
	// and for integrity audits.
	Replay(ctx context.Context, fn func(*VoteEvent) error) error

	// ReplayContestant streams one contestant's events in Seq order.
	ReplayContestant(ctx context.Context, contestantID string, fn func(*VoteEvent) error) error
}

type DynamoLedgerStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoLedgerStorage) Append(ctx context.Context, event *VoteEvent) error {
	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		logging.Log.Errorf("LEDGER: failed to marshal event: %v", err)
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
			return ErrDuplicateEvent
		}
		logging.Log.Errorf("LEDGER: append failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoLedgerStorage) Replay(ctx context.Context, fn func(*VoteEvent) error) error {
	return s.replay(ctx, nil, fn)
}

func (s *DynamoLedgerStorage) ReplayContestant(ctx context.Context, contestantID string, fn func(*VoteEvent) error) error {
	filter := &dynamodb.ScanInput{
		FilterExpression: aws.String("ContestantID = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: contestantID},
		},
	}
	return s.replay(ctx, filter, fn)
}

func (s *DynamoLedgerStorage) replay(ctx context.Context, filter *dynamodb.ScanInput, fn func(*VoteEvent) error) error {
	input := &dynamodb.ScanInput{TableName: aws.String(s.TableName)}
	if filter != nil {
		input.FilterExpression = filter.FilterExpression
		input.ExpressionAttributeValues = filter.ExpressionAttributeValues
	}

	var events []*VoteEvent
	for {
		out, err := s.Client.Scan(ctx, input)
		if err != nil {
			logging.Log.Errorf("LEDGER: replay scan failed: %v", err)
			return err
		}

		var page []*VoteEvent
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("LEDGER: failed to unmarshal events: %v", err)
			return err
		}
		events = append(events, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	// Scan order is arbitrary; Seq restores the total order.
	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })

	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}
