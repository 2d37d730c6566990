package task

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image() map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":        events.NewStringAttribute("t1"),
		"taskType":  events.NewStringAttribute("EXPORT_DB_TO_CSV"),
		"taskData":  events.NewStringAttribute(`{"email":"a@b.co"}`),
		"status":    events.NewStringAttribute("PENDING"),
		"createdAt": events.NewStringAttribute("2024-01-01T00:00:00Z"),
	}
}

func TestDecodeImage(t *testing.T) {
	rec, err := DecodeImage(image())
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.ID)
	assert.Equal(t, TypeExportDBToCSV, rec.TaskType)
	assert.Equal(t, StatusPending, rec.Status)
	assert.JSONEq(t, `{"email":"a@b.co"}`, string(rec.TaskData))
	assert.Nil(t, rec.TaskResult)
}

func TestDecodeImageNestedMap(t *testing.T) {
	img := image()
	img["taskData"] = events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
		"email": events.NewStringAttribute("a@b.co"),
		"count": events.NewNumberAttribute("3"),
		"tags":  events.NewListAttribute([]events.DynamoDBAttributeValue{events.NewBooleanAttribute(true), events.NewNullAttribute()}),
	})
	img["taskResult"] = events.NewStringAttribute(`{"error":null}`)

	rec, err := DecodeImage(img)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.co","count":3,"tags":[true,null]}`, string(rec.TaskData))
	assert.JSONEq(t, `{"error":null}`, string(rec.TaskResult))
}

func TestDecodeImageInvalid(t *testing.T) {
	cases := map[string]func(map[string]events.DynamoDBAttributeValue){
		"missing id":        func(m map[string]events.DynamoDBAttributeValue) { delete(m, "id") },
		"missing taskData":  func(m map[string]events.DynamoDBAttributeValue) { delete(m, "taskData") },
		"numeric status":    func(m map[string]events.DynamoDBAttributeValue) { m["status"] = events.NewNumberAttribute("1") },
		"unknown status":    func(m map[string]events.DynamoDBAttributeValue) { m["status"] = events.NewStringAttribute("QUEUED") },
		"unknown type":      func(m map[string]events.DynamoDBAttributeValue) { m["taskType"] = events.NewStringAttribute("NOPE") },
		"bad json":          func(m map[string]events.DynamoDBAttributeValue) { m["taskData"] = events.NewStringAttribute(`{"email":`) },
		"binary taskData":   func(m map[string]events.DynamoDBAttributeValue) { m["taskData"] = events.NewBinaryAttribute([]byte("x")) },
		"empty createdAt":   func(m map[string]events.DynamoDBAttributeValue) { m["createdAt"] = events.NewStringAttribute("") },
		"null id attribute": func(m map[string]events.DynamoDBAttributeValue) { m["id"] = events.NewNullAttribute() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			img := image()
			mutate(img)
			_, err := DecodeImage(img)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}

	_, err := DecodeImage(nil)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestTableFromARN(t *testing.T) {
	assert.Equal(t, "Tasks", TableFromARN("arn:aws:dynamodb:us-east-1:123456789012:table/Tasks/stream/2024-01-01T00:00:00.000"))
	assert.Equal(t, "Tasks", TableFromARN("arn:aws:dynamodb:us-east-1:123456789012:table/Tasks"))
	assert.Equal(t, "", TableFromARN("arn:aws:sqs:us-east-1:1:queue"))
	assert.Equal(t, "", TableFromARN(""))
}
