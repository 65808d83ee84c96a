package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	ident := func(s string) string { return s }

	page, next := paginate(items, "", 2, ident)
	assert.Equal(t, []string{"a", "b"}, page)
	assert.Equal(t, "b", next)

	page, next = paginate(items, "b", 2, ident)
	assert.Equal(t, []string{"c", "d"}, page)
	assert.Equal(t, "d", next)

	page, next = paginate(items, "d", 2, ident)
	assert.Equal(t, []string{"e"}, page)
	assert.Equal(t, "", next)

	// Exhausted and unknown cursors.
	page, next = paginate(items, "e", 2, ident)
	assert.Empty(t, page)
	assert.Equal(t, "", next)

	page, _ = paginate(items, "zz", 3, ident)
	assert.Equal(t, []string{"a", "b", "c"}, page)

	page, next = paginate([]string{}, "", 10, ident)
	assert.Empty(t, page)
	assert.Equal(t, "", next)
}
