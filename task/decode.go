package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ncobase/taskrunner/validation/validator"
)

// ErrInvalidRecord marks a stream record that cannot be turned into a Record.
var ErrInvalidRecord = errors.New("Invalid task record")

// DecodeImage unwraps a typed-attribute item image into a Record and validates it.
// Every failure wraps ErrInvalidRecord.
func DecodeImage(image map[string]events.DynamoDBAttributeValue) (*Record, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: missing image", ErrInvalidRecord)
	}

	rec := &Record{}
	var err error

	if rec.ID, err = stringAttr(image, "id", true); err != nil {
		return nil, err
	}
	taskType, err := stringAttr(image, "taskType", true)
	if err != nil {
		return nil, err
	}
	rec.TaskType = Type(taskType)

	status, err := stringAttr(image, "status", true)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)

	if rec.CreatedAt, err = stringAttr(image, "createdAt", true); err != nil {
		return nil, err
	}
	if rec.TaskData, err = jsonAttr(image, "taskData", true); err != nil {
		return nil, err
	}
	if rec.TaskResult, err = jsonAttr(image, "taskResult", false); err != nil {
		return nil, err
	}

	if err := validator.Validate(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	return rec, nil
}

// stringAttr reads an S attribute.
func stringAttr(image map[string]events.DynamoDBAttributeValue, name string, required bool) (string, error) {
	av, ok := image[name]
	if !ok || av.IsNull() {
		if required {
			return "", fmt.Errorf("%w: missing attribute %q", ErrInvalidRecord, name)
		}
		return "", nil
	}
	if av.DataType() != events.DataTypeString {
		return "", fmt.Errorf("%w: attribute %q is not a string", ErrInvalidRecord, name)
	}
	return av.String(), nil
}

// jsonAttr reads an attribute holding structured data, either as JSON text (S)
// or as a native map/list, and returns it as raw JSON.
func jsonAttr(image map[string]events.DynamoDBAttributeValue, name string, required bool) (json.RawMessage, error) {
	av, ok := image[name]
	if !ok || av.IsNull() {
		if required {
			return nil, fmt.Errorf("%w: missing attribute %q", ErrInvalidRecord, name)
		}
		return nil, nil
	}

	switch av.DataType() {
	case events.DataTypeString:
		raw := strings.TrimSpace(av.String())
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("%w: attribute %q is not valid JSON", ErrInvalidRecord, name)
		}
		return json.RawMessage(raw), nil
	case events.DataTypeMap, events.DataTypeList:
		value, err := attrValue(av)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %v", ErrInvalidRecord, name, err)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %v", ErrInvalidRecord, name, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: attribute %q has unsupported shape", ErrInvalidRecord, name)
	}
}

// attrValue converts an attribute into plain Go values.
func attrValue(av events.DynamoDBAttributeValue) (any, error) {
	switch av.DataType() {
	case events.DataTypeNull:
		return nil, nil
	case events.DataTypeString:
		return av.String(), nil
	case events.DataTypeNumber:
		return json.Number(av.Number()), nil
	case events.DataTypeBoolean:
		return av.Boolean(), nil
	case events.DataTypeBinary:
		return av.Binary(), nil
	case events.DataTypeStringSet:
		return av.StringSet(), nil
	case events.DataTypeNumberSet:
		set := av.NumberSet()
		out := make([]json.Number, len(set))
		for i, n := range set {
			out[i] = json.Number(n)
		}
		return out, nil
	case events.DataTypeBinarySet:
		return av.BinarySet(), nil
	case events.DataTypeList:
		list := av.List()
		out := make([]any, len(list))
		for i, item := range list {
			v, err := attrValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case events.DataTypeMap:
		m := av.Map()
		out := make(map[string]any, len(m))
		for k, item := range m {
			v, err := attrValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %v", av.DataType())
	}
}

// TableFromARN extracts the table name from a table or stream ARN such as
// arn:aws:dynamodb:us-east-1:123456789012:table/Tasks/stream/2024-01-01T00:00:00.000.
// It returns "" when the ARN does not name a table.
func TableFromARN(arn string) string {
	idx := strings.Index(arn, ":table/")
	if idx < 0 {
		return ""
	}
	rest := arn[idx+len(":table/"):]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
