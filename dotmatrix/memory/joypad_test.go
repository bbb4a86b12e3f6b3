package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoypad_compose(t *testing.T) {
	testCases := []struct {
		desc      string
		selection byte
		press     []Key
		want      byte
	}{
		{desc: "nothing selected floats high", selection: 0x30, press: []Key{KeyA, KeyDown}, want: 0xFF},
		{desc: "directions selected", selection: 0x20, press: []Key{KeyRight}, want: 0xEE},
		{desc: "actions selected", selection: 0x10, press: []Key{KeyA}, want: 0xDE},
		{desc: "actions selected ignores directions", selection: 0x10, press: []Key{KeyRight}, want: 0xDF},
		{desc: "both selected ANDs the groups", selection: 0x00, press: []Key{KeyA, KeyUp}, want: 0xCA},
		{desc: "idle reads all released", selection: 0x20, want: 0xEF},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			j := NewJoypad()
			j.Write(tC.selection)
			for _, key := range tC.press {
				j.Press(key)
			}
			assert.Equal(t, tC.want, j.Read())
		})
	}
}

func TestJoypad_selectionMaskOnly(t *testing.T) {
	j := NewJoypad()

	// only bits 4-5 of a write survive
	j.Write(0xFF)
	assert.Equal(t, byte(0xFF), j.Read())

	j.Write(0xCF)
	assert.Equal(t, byte(0xCF), j.Read(), "low and high written bits are dropped")
}

func TestJoypad_upperBitsAlwaysSet(t *testing.T) {
	j := NewJoypad()
	for _, selection := range []byte{0x00, 0x10, 0x20, 0x30} {
		j.Write(selection)
		assert.Equal(t, byte(0xC0), j.Read()&0xC0)
	}
}

func TestJoypad_pressEdgeInterrupt(t *testing.T) {
	fired := 0
	j := NewJoypad()
	j.RequestInterrupt = func() { fired++ }

	j.Press(KeyStart)
	assert.Equal(t, 1, fired, "a 1 -> 0 transition requests the interrupt")

	j.Press(KeyStart)
	assert.Equal(t, 1, fired, "holding the key does not retrigger")

	j.Release(KeyStart)
	assert.Equal(t, 1, fired, "releases never request interrupts")

	j.Press(KeyStart)
	assert.Equal(t, 2, fired)
}
