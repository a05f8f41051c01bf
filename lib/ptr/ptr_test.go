package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTo(t *testing.T) {
	assert.Equal(t, "true", *To("true"))
	value := 5
	p := To(value)
	*p = 6
	assert.Equal(t, 5, value)
}
