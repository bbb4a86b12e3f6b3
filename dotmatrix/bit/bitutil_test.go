package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.Equal(t, uint16(0xBEEF), Combine(0xBE, 0xEF))
	assert.Equal(t, uint8(0xBE), High(0xBEEF))
	assert.Equal(t, uint8(0xEF), Low(0xBEEF))
}

func TestBitOps(t *testing.T) {
	assert.True(t, IsSet(0, 0x01))
	assert.False(t, IsSet(1, 0x01))
	assert.True(t, IsSet16(9, 0x0200))

	assert.Equal(t, uint8(0x05), Set(2, 0x01))
	assert.Equal(t, uint8(0x01), Reset(2, 0x05))

	assert.Equal(t, uint8(1), Value(7, 0x80))
	assert.Equal(t, uint8(0), Value(6, 0x80))
}
