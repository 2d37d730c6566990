// Package stream feeds change stream batches into a dispatcher.
//
// Lambda receives DynamoDB stream batches directly. The Kafka and RabbitMQ
// consumers carry the same records, one JSON encoded
// events.DynamoDBEventRecord per message, for deployments outside Lambda.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ncobase/taskrunner/dispatcher"
)

// Handler processes one batch of stream records.
type Handler interface {
	Handle(ctx context.Context, event events.DynamoDBEvent) (events.DynamoDBEventResponse, error)
}

// DecodeRecord parses a message body into a stream record.
func DecodeRecord(body []byte) (events.DynamoDBEventRecord, error) {
	var rec events.DynamoDBEventRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, fmt.Errorf("decode stream record: %w", err)
	}
	return rec, nil
}

// failedSet indexes the item identifiers of a batch response.
func failedSet(resp events.DynamoDBEventResponse) map[string]bool {
	set := make(map[string]bool, len(resp.BatchItemFailures))
	for _, f := range resp.BatchItemFailures {
		set[f.ItemIdentifier] = true
	}
	return set
}

// isFailed reports whether rec is listed in the failures.
func isFailed(failed map[string]bool, rec events.DynamoDBEventRecord) bool {
	return failed[dispatcher.ItemIdentifier(rec)]
}
