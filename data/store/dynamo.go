package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/task"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// dynamoItem is the attribute layout read back by task.DecodeImage.
// JSON documents are kept as string attributes.
type dynamoItem struct {
	ID         string `dynamodbav:"id"`
	TaskType   string `dynamodbav:"taskType"`
	TaskData   string `dynamodbav:"taskData"`
	Status     string `dynamodbav:"status"`
	TaskResult string `dynamodbav:"taskResult,omitempty"`
	CreatedAt  string `dynamodbav:"createdAt"`
}

// DynamoStore keeps records in DynamoDB tables keyed by id.
type DynamoStore struct {
	client DynamoAPI
}

// NewDynamoStore wraps a DynamoDB client.
func NewDynamoStore(client DynamoAPI) *DynamoStore {
	return &DynamoStore{client: client}
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

// Get loads one record with a consistent read.
func (s *DynamoStore) Get(ctx context.Context, table, id string) (*task.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	if len(out.Item) == 0 {
		return nil, notFound(table, id)
	}
	return unmarshalItem(out.Item)
}

// Put inserts a new record.
func (s *DynamoStore) Put(ctx context.Context, table string, record *task.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("put %s: %s", table, ecode.FieldIsRequired("record id"))
	}
	item, err := attributevalue.MarshalMap(dynamoItem{
		ID:         record.ID,
		TaskType:   string(record.TaskType),
		TaskData:   string(record.TaskData),
		Status:     string(record.Status),
		TaskResult: string(record.TaskResult),
		CreatedAt:  record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", table, record.ID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, table, record.ID)
	}
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", table, record.ID, err)
	}
	return nil
}

// UpdateStatus applies update when the stored status equals expect.
func (s *DynamoStore) UpdateStatus(ctx context.Context, table, id string, expect task.Status, update task.StatusUpdate) error {
	expr := "SET #status = :status"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(update.Status)},
		":expect": &types.AttributeValueMemberS{Value: string(expect)},
	}
	names := map[string]string{"#status": "status"}
	if update.TaskResult != nil {
		expr += ", #result = :result"
		names["#result"] = "taskResult"
		values[":result"] = &types.AttributeValueMemberS{Value: string(update.TaskResult)}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(table),
		Key:                                 idKey(id),
		UpdateExpression:                    aws.String(expr),
		ConditionExpression:                 aws.String("#status = :expect"),
		ExpressionAttributeNames:            names,
		ExpressionAttributeValues:           values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	if len(ccf.Item) == 0 {
		return notFound(table, id)
	}
	current, uerr := unmarshalItem(ccf.Item)
	if uerr != nil {
		return conflict(table, id, expect, "")
	}
	return conflict(table, id, expect, current.Status)
}

func unmarshalItem(av map[string]types.AttributeValue) (*task.Record, error) {
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("decode task item: %w", err)
	}
	rec := &task.Record{
		ID:        item.ID,
		TaskType:  task.Type(item.TaskType),
		TaskData:  []byte(item.TaskData),
		Status:    task.Status(item.Status),
		CreatedAt: item.CreatedAt,
	}
	if item.TaskResult != "" {
		rec.TaskResult = []byte(item.TaskResult)
	}
	return rec, nil
}
