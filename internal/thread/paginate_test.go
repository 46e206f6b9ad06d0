package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageWindowDefaultsToLastPage(t *testing.T) {
	window := PageWindow(60, 0, 25)

	assert.Equal(t, 3, window.Page)
	assert.Equal(t, 50, window.Offset)
	assert.Equal(t, 3, window.TotalPages)
	assert.True(t, window.HasPrevious)
	assert.False(t, window.HasNext)
}

func TestPageWindowNegativeRequestMeansLastPage(t *testing.T) {
	window := PageWindow(60, -3, 25)
	assert.Equal(t, 3, window.Page)
}

func TestPageWindowExplicitPage(t *testing.T) {
	window := PageWindow(60, 2, 25)

	assert.Equal(t, 2, window.Page)
	assert.Equal(t, 25, window.Offset)
	assert.True(t, window.HasPrevious)
	assert.True(t, window.HasNext)
}

func TestPageWindowClampsOutOfRange(t *testing.T) {
	window := PageWindow(60, 99, 25)

	assert.Equal(t, 3, window.Page)
	assert.False(t, window.HasNext)
}

func TestPageWindowEmpty(t *testing.T) {
	window := PageWindow(0, 0, 25)

	assert.Equal(t, 1, window.Page)
	assert.Equal(t, 0, window.Offset)
	assert.Equal(t, 1, window.TotalPages)
	assert.False(t, window.HasPrevious)
	assert.False(t, window.HasNext)
}

func TestPageWindowExactMultiple(t *testing.T) {
	window := PageWindow(50, 0, 25)

	assert.Equal(t, 2, window.Page)
	assert.Equal(t, 25, window.Offset)
	assert.Equal(t, 2, window.TotalPages)
}

func TestPageWindowPerPageFallback(t *testing.T) {
	window := PageWindow(10, 1, 0)
	assert.Equal(t, 25, window.PerPage)
}
