package codegen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReferralCode_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := NewReferralCode()
		assert.Len(t, code, CodeLength)
		assert.True(t, IsReferralCode(code), "unexpected code %q", code)
	}
}

func TestNewID_IsUUID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}

func TestIsReferralCode(t *testing.T) {
	assert.True(t, IsReferralCode("TEST0001"))
	assert.False(t, IsReferralCode("test0001"))
	assert.False(t, IsReferralCode("TEST001"))
	assert.False(t, IsReferralCode("TEST-001"))
}

func TestRandom_ImplementsGenerator(t *testing.T) {
	g := Random()
	assert.True(t, IsReferralCode(g.NewReferralCode()))
	assert.NotEmpty(t, g.NewID())
}
