package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invite struct {
	Email  string `json:"email" validate:"required,basic_email"`
	Method string `json:"method" validate:"required,oneof=email sms social link"`
	Note   string `json:"-" validate:"omitempty,max=3"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&invite{Email: "a@b.co", Method: "sms"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(invite{Email: "nope", Method: "fax"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Failed("email", "basic_email"))
	assert.True(t, verr.Failed("method", "oneof"))
	assert.False(t, verr.Failed("email", "required"))
	assert.Equal(t, "email basic_email; method oneof", verr.Error())
}

func TestStruct_Missing(t *testing.T) {
	err := Struct(&invite{})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Failed("email", "required"))
	assert.True(t, verr.Failed("method", ""))
}

func TestStruct_NotAStruct(t *testing.T) {
	assert.EqualError(t, Struct(nil), "is nil")
	assert.EqualError(t, Struct("x"), "not a struct")
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("test@example.com"))
	assert.False(t, Email("test@example"))
	assert.False(t, Email("te st@example.com"))
	assert.False(t, Email("@example.com"))
}
