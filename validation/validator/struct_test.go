package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportInput struct {
	Email string `json:"email" validate:"required,email"`
	Model string `json:"model" validate:"required"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestValidateStruct(t *testing.T) {
	msgs := ValidateStruct(&exportInput{Email: "nope", Kind: "c"})
	assert.Equal(t, map[string]string{
		"email": "The field 'email' must be a valid email address.",
		"model": "The field 'model' is required.",
		"kind":  "The field 'kind' must be one of [a b].",
	}, msgs)

	assert.Empty(t, ValidateStruct(&exportInput{Email: "a@b.co", Model: "users"}))
}

func TestValidateJoinsInFieldOrder(t *testing.T) {
	err := Validate(&exportInput{})
	require.Error(t, err)
	assert.Equal(t, "The field 'email' is required. The field 'model' is required.", err.Error())

	assert.NoError(t, Validate(&exportInput{Email: "a@b.co", Model: "m"}))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("a@b.co", "required,email"))
	assert.Error(t, Var("", "required"))
}
