package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("disk full")

	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "validation", err: Validationf("name is required"), expected: KindValidation},
		{name: "not found", err: NotFoundf("review %s not found", "x"), expected: KindNotFound},
		{name: "unsupported", err: Unsupportedf("not implemented"), expected: KindUnsupported},
		{name: "storage", err: Storage("query failed", cause), expected: KindStorage},
		{name: "internal", err: Internal("encode failed", cause), expected: KindInternal},
		{name: "unclassified", err: errors.New("plain"), expected: KindInternal},
		{name: "wrapped fault", err: fmt.Errorf("outer: %w", NotFoundf("gone")), expected: KindNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, KindOf(tc.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := Validationf("bad input")

	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(nil, KindValidation))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("query failed", cause)

	assert.Equal(t, "query failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NotFoundf("review %s not found", "abc")
	assert.Equal(t, "review abc not found", bare.Error())

	var fe *Error

	require.ErrorAs(t, bare, &fe)
	assert.Nil(t, fe.Unwrap())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unsupported", KindUnsupported.String())
	assert.Equal(t, "storage", KindStorage.String())
	assert.Equal(t, "internal", KindInternal.String())
}
