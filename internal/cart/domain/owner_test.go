package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOwner(t *testing.T) {
	t.Run("user header only", func(t *testing.T) {
		o, err := ParseOwner("user-1", "")
		assert.NoError(t, err)
		assert.True(t, o.IsUser())
		assert.Equal(t, "user-1", o.ID())
	})

	t.Run("session header only", func(t *testing.T) {
		o, err := ParseOwner("", "sess-1")
		assert.NoError(t, err)
		assert.True(t, o.IsGuest())
		assert.Equal(t, "sess-1", o.ID())
	})

	t.Run("both headers rejected", func(t *testing.T) {
		_, err := ParseOwner("user-1", "sess-1")
		assert.ErrorIs(t, err, ErrInvalidOwner)
	})

	t.Run("neither header rejected", func(t *testing.T) {
		_, err := ParseOwner("", "")
		assert.ErrorIs(t, err, ErrInvalidOwner)
	})
}

func TestOwnerZeroValueIsInvalid(t *testing.T) {
	var o Owner
	assert.True(t, o.IsZero())
	assert.False(t, o.IsUser())
	assert.False(t, o.IsGuest())
}
