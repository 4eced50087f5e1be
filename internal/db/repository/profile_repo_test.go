package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendUnique(t *testing.T) {
	existing := []string{"q1", "q2"}

	merged := appendUnique(existing, []string{"q2", "q3", "q1", "q4"})
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, merged, "insertion order is preserved")

	assert.Equal(t, existing, appendUnique(existing, nil))
}

func TestAppendUniqueDedupesIncoming(t *testing.T) {
	merged := appendUnique(nil, []string{"q1", "q1", "q2"})
	assert.Equal(t, []string{"q1", "q2"}, merged)
}

func TestNotNil(t *testing.T) {
	assert.Equal(t, []string{}, notNil(nil))
	assert.Equal(t, []string{"a"}, notNil([]string{"a"}))
}
