package cont

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refsync/entity"
)

func TestPutGetUser(t *testing.T) {
	assert.Nil(t, GetUser(context.Background()))

	ctx := PutUser(context.Background(), &entity.User{Id: "u1", ReferralCode: "TEST0001"})
	user := GetUser(ctx)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.Id)

	user.Id = "changed"
	assert.Equal(t, "u1", GetUser(ctx).Id)
}
