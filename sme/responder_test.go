package sme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponder(t *testing.T) {
	r, c := NewResponder[int]()
	r.Respond(42)

	assert.Equal(t, 42, <-c)
	_, ok := <-c
	assert.False(t, ok)

	assert.Panics(t, func() { r.Respond(43) })
}
