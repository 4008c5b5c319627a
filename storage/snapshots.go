package storage

import (
	"context"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/kaikhaya123/RES-sub000/logging"
)

// SnapshotStorage retains published rank snapshots for trend auditing and
// restart recovery. Snapshots are write-once; Prune drops the oldest
// versions past the retention limit.
type SnapshotStorage interface {
	Put(ctx context.Context, snapshot *RankSnapshot) error
	Latest(ctx context.Context) (*RankSnapshot, error)
	List(ctx context.Context) ([]*RankSnapshot, error)
	Prune(ctx context.Context, retain int) error
}

type DynamoSnapshotStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoSnapshotStorage) Put(ctx context.Context, snapshot *RankSnapshot) error {
	item, err := attributevalue.MarshalMap(snapshot)
	if err != nil {
		logging.Log.Errorf("SNAPSHOT: failed to marshal: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		logging.Log.Errorf("SNAPSHOT: put failed for version %d: %v", snapshot.Version, err)
		return err
	}
	return nil
}

func (s *DynamoSnapshotStorage) Latest(ctx context.Context) (*RankSnapshot, error) {
	snapshots, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return snapshots[len(snapshots)-1], nil
}

func (s *DynamoSnapshotStorage) List(ctx context.Context) ([]*RankSnapshot, error) {
	var snapshots []*RankSnapshot
	input := &dynamodb.ScanInput{TableName: aws.String(s.TableName)}

	for {
		out, err := s.Client.Scan(ctx, input)
		if err != nil {
			logging.Log.Errorf("SNAPSHOT: scan failed: %v", err)
			return nil, err
		}

		var page []*RankSnapshot
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("SNAPSHOT: failed to unmarshal list: %v", err)
			return nil, err
		}
		snapshots = append(snapshots, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Version < snapshots[j].Version })
	return snapshots, nil
}

func (s *DynamoSnapshotStorage) Prune(ctx context.Context, retain int) error {
	snapshots, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(snapshots) <= retain {
		return nil
	}

	for _, old := range snapshots[:len(snapshots)-retain] {
		_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.TableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberN{Value: strconv.FormatInt(old.Version, 10)},
			},
		})
		if err != nil {
			logging.Log.Errorf("SNAPSHOT: prune failed for version %d: %v", old.Version, err)
			return err
		}
	}
	return nil
}
