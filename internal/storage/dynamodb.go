package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// metaSortKey is the reserved sort-key value for a day's TTL metadata item.
const metaSortKey = "_meta"

// DynamoStore implements Store on a single DynamoDB table with DateKey as
// partition key and CallID as sort key. The TTL metadata lives in a
// reserved item per date.
type DynamoStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoStore creates a new DynamoDB-backed store
func NewDynamoStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs when
		// static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("table", cfg.CallTable).
		Msg("DynamoDB store initialized")

	return &DynamoStore{client: client, config: cfg, logger: logger}, nil
}

type dynamoCallItem struct {
	DateKey string           `dynamodbav:"DateKey"`
	CallID  string           `dynamodbav:"CallID"`
	Call    types.CallRecord `dynamodbav:"Call"`
}

type dynamoMetaItem struct {
	DateKey string          `dynamodbav:"DateKey"`
	CallID  string          `dynamodbav:"CallID"`
	Meta    types.CacheMeta `dynamodbav:"Meta"`
}

func (s *DynamoStore) AppendCall(date string, call types.CallRecord) error {
	item, err := attributevalue.MarshalMap(dynamoCallItem{
		DateKey: date,
		CallID:  call.CallID,
		Call:    call,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal call item: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.CallTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save call item: %w", err)
	}
	return nil
}

func (s *DynamoStore) ReadCalls(date string) ([]types.CallRecord, error) {
	keyCond := expression.Key("DateKey").Equal(expression.Value(date))
	filter := expression.Name("CallID").NotEqual(expression.Value(metaSortKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.CallTable),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}

	var items []dynamoCallItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal call items: %w", err)
	}

	calls := make([]types.CallRecord, 0, len(items))
	for _, item := range items {
		calls = append(calls, item.Call)
	}
	return calls, nil
}

func (s *DynamoStore) ReadMeta(date string) (*types.CacheMeta, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"DateKey": date,
		"CallID":  metaSortKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meta key: %w", err)
	}

	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.CallTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get meta item: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item dynamoMetaItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meta item: %w", err)
	}
	return &item.Meta, nil
}

func (s *DynamoStore) WriteMeta(date string, meta types.CacheMeta) error {
	item, err := attributevalue.MarshalMap(dynamoMetaItem{
		DateKey: date,
		CallID:  metaSortKey,
		Meta:    meta,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal meta item: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.CallTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save meta item: %w", err)
	}
	return nil
}

// Delete removes every item for a date, the metadata item included,
// with paged queries and batched deletes.
func (s *DynamoStore) Delete(date string) error {
	keyCond := expression.Key("DateKey").Equal(expression.Value(date))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	var lastKey map[string]dbtypes.AttributeValue
	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.CallTable),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(500),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Query(context.Background(), input)
		if err != nil {
			return fmt.Errorf("failed to query items for delete: %w", err)
		}

		// Batch delete in groups of 25
		for i := 0; i < len(result.Items); i += 25 {
			end := i + 25
			if end > len(result.Items) {
				end = len(result.Items)
			}

			requests := make([]dbtypes.WriteRequest, 0, end-i)
			for _, item := range result.Items[i:end] {
				requests = append(requests, dbtypes.WriteRequest{
					DeleteRequest: &dbtypes.DeleteRequest{
						Key: map[string]dbtypes.AttributeValue{
							"DateKey": item["DateKey"],
							"CallID":  item["CallID"],
						},
					},
				})
			}
			if len(requests) == 0 {
				continue
			}

			_, err := s.client.BatchWriteItem(context.Background(), &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]dbtypes.WriteRequest{
					s.config.CallTable: requests,
				},
			})
			if err != nil {
				return fmt.Errorf("failed to batch delete: %w", err)
			}
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	s.logger.Debug().Str("date", date).Msg("day record removed")
	return nil
}
