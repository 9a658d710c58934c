package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"fmt"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := FetchErr("card", cause)

	assert.Equal(t, Fetch, KindOf(err))
	assert.True(t, IsKind(err, Fetch))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "card: fetch failed: connection refused", err.Error())

	wrapped := fmt.Errorf("refresh: %w", err)
	assert.Equal(t, Fetch, KindOf(wrapped))
	assert.Equal(t, Other, KindOf(cause))
}

func TestIsKind_Nested(t *testing.T) {
	inner := DataIntegrityErr("bank", "o-1", "meta.placedAt")
	outer := FetchErr("bank", inner)

	assert.True(t, IsKind(outer, Fetch))
	assert.True(t, IsKind(outer, DataIntegrity))
	assert.False(t, IsKind(outer, Invalid))
}

func TestValidationErrs(t *testing.T) {
	ve := ValidationErrs()
	require.NoError(t, ve.Err())

	ve.Add("mongo.uri", "cannot be empty")
	ve.Add("application", "cannot be empty")
	ve.Add("mongo.uri", "must be a mongodb uri")

	err := ve.Err()
	require.Error(t, err)
	assert.Equal(t, Invalid, KindOf(err))
	assert.Equal(t, "application cannot be empty; mongo.uri cannot be empty, must be a mongodb uri", err.Error())
}

func TestEmptyParamErr(t *testing.T) {
	err := EmptyParamErr("address")
	assert.True(t, IsKind(err, Invalid))
	assert.Contains(t, err.Error(), "address cannot be empty")
}
