package gateway

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// pageParams reads the cursor/limit query params, clamping limit to sane bounds
func pageParams(c *gin.Context) (string, int) {
	cursor := c.Query("cursor")
	limit := defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return cursor, limit
}

// paginate slices an already-ordered list after the cursor item. The cursor
// is the id of the last item of the previous page; an unknown cursor starts
// from the beginning. The returned next cursor is empty on the final page.
func paginate[T any](items []T, cursor string, limit int, id func(T) string) ([]T, string) {
	start := 0
	if cursor != "" {
		for i, item := range items {
			if id(item) == cursor {
				start = i + 1
				break
			}
		}
	}
	if start >= len(items) {
		return []T{}, ""
	}
	end := start + limit
	if end >= len(items) {
		return items[start:], ""
	}
	return items[start:end], id(items[end-1])
}
