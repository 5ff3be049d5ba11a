package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyInput struct {
	UserID string `json:"userId" validate:"required"`
	Code   string `json:"code" validate:"required,verification-code"`
}

type resetInput struct {
	Token string `json:"token" validate:"required,reset-token"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidate_VerificationCode(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(verifyInput{UserID: "u", Code: "012345"}))

	for _, code := range []string{"12345", "1234567", "12a456", "１２３４５６"} {
		err := v.Validate(verifyInput{UserID: "u", Code: code})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, code)
		assert.Equal(t, "Must be a 6-digit code", vErr.Errors["code"])
	}
}

func TestValidate_ResetToken(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(resetInput{Token: strings.Repeat("a1", 32)}))
	assert.Error(t, v.Validate(resetInput{Token: strings.Repeat("A1", 32)}))
	assert.Error(t, v.Validate(resetInput{Token: "short"}))
}

func TestValidate_UsesJSONNames(t *testing.T) {
	err := New().Validate(resetInput{Email: "nope"})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "This field is required", vErr.Errors["token"])
	assert.Equal(t, "Must be a valid email address", vErr.Errors["email"])
	assert.Equal(t, "Validation failed: field 'email': Must be a valid email address; field 'token': This field is required", vErr.Error())
}
