package stream

import (
	"github.com/aws/aws-lambda-go/lambda"
)

// StartLambda serves h as the Lambda function handler. It does not return.
func StartLambda(h Handler) {
	lambda.Start(h.Handle)
}
