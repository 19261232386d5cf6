package lockout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	t.Run("is stable across case and whitespace", func(t *testing.T) {
		assert.Equal(t, keyFor("Alice@X.com "), keyFor("alice@x.com"))
	})

	t.Run("never contains the raw address", func(t *testing.T) {
		key := keyFor("alice@x.com")
		assert.NotContains(t, key, "alice")
		assert.NotContains(t, key, "@")
	})

	t.Run("distinct emails get distinct keys", func(t *testing.T) {
		assert.NotEqual(t, keyFor("a@x.com"), keyFor("b@x.com"))
	})
}
