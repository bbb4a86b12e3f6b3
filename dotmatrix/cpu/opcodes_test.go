package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvallone/go-dotmatrix/dotmatrix/memory"
)

// romWith builds a flat ROM image with the given bytes patched in. The fill
// byte is NOP so stray execution is harmless.
func romWith(patches map[uint16]byte) []byte {
	data := make([]byte, memory.ROMSize)
	for address, value := range patches {
		data[address] = value
	}
	return data
}

func newCPUWithROM(t *testing.T, patches map[uint16]byte) (*CPU, *memory.MMU) {
	t.Helper()
	cart, err := memory.LoadCartridge(romWith(patches))
	require.NoError(t, err)
	mmu := memory.NewWithCartridge(cart)
	return New(mmu), mmu
}

func TestOpcodes_nopSlide(t *testing.T) {
	// 99 NOPs from the entry point, then JR -2 parking the CPU in place.
	c, _ := newCPUWithROM(t, map[uint16]byte{
		0x0163: 0x18,
		0x0164: 0xFE,
	})

	var total uint64
	for i := 0; i < 100; i++ {
		cycles := step(t, c)
		if i < 99 {
			assert.Equal(t, 4, cycles)
		} else {
			assert.Equal(t, 12, cycles)
		}
		total += uint64(cycles)
	}

	assert.Equal(t, uint64(4*99+12), total)
	assert.Equal(t, uint16(0x0163), c.pc, "JR -2 loops on itself")

	step(t, c)
	assert.Equal(t, uint16(0x0163), c.pc)
}

func TestOpcodes_xorAClearsA(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xAF) // XOR A
	c.a = 0x5A
	c.f = 0

	cycles := step(t, c)

	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint8(0x00), c.a)
	assert.Equal(t, uint8(0x80), c.f, "only Z is set")
}

func TestOpcodes_decBHalfCarry(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x05) // DEC B
	c.b = 0x10
	c.f = uint8(carryFlag)

	step(t, c)

	assert.Equal(t, uint8(0x0F), c.b)
	assert.False(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.isSetFlag(subFlag))
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.True(t, c.isSetFlag(carryFlag), "DEC leaves carry untouched")
}

func TestOpcodes_jrNZTaken(t *testing.T) {
	c, _ := newCPUWithROM(t, map[uint16]byte{
		0x0200: 0x20, // JR NZ, +5
		0x0201: 0x05,
	})
	c.pc = 0x0200
	c.resetFlag(zeroFlag)

	cycles := step(t, c)

	assert.Equal(t, 12, cycles)
	assert.Equal(t, uint16(0x0207), c.pc, "offset applies after the operand")
}

func TestOpcodes_jrBackward(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x18, 0xFC) // JR -4
	step(t, c)
	assert.Equal(t, uint16(0xBFFE), c.pc)
}

func TestOpcodes_xorThenJPNZNeverBranches(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xAF, 0xC2, 0x34, 0x12) // XOR A; JP NZ, 0x1234
	c.a = 0x77

	step(t, c)
	cycles := step(t, c)

	assert.Equal(t, 12, cycles, "untaken JP costs 12")
	assert.Equal(t, uint16(0xC004), c.pc, "the branch is never taken after XOR A")
}

func TestOpcodes_jrZCanonical(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x28, 0x02) // JR Z, +2
	c.setFlag(zeroFlag)

	cycles := step(t, c)
	assert.Equal(t, 12, cycles, "JR Z branches when Z is set")
	assert.Equal(t, uint16(0xC004), c.pc)
}

func TestOpcodes_ldACCopiesC(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x79) // LD A, C
	c.b = 0x11
	c.c = 0x42

	step(t, c)
	assert.Equal(t, uint8(0x42), c.a)
}

func TestOpcodes_conditionalTiming(t *testing.T) {
	testCases := []struct {
		desc    string
		code    []byte
		flags   Flag
		cycles  int
	}{
		{desc: "JR NZ untaken", code: []byte{0x20, 0x05}, flags: zeroFlag, cycles: 8},
		{desc: "JR NZ taken", code: []byte{0x20, 0x05}, cycles: 12},
		{desc: "JP Z untaken", code: []byte{0xCA, 0x00, 0xC1}, cycles: 12},
		{desc: "JP Z taken", code: []byte{0xCA, 0x00, 0xC1}, flags: zeroFlag, cycles: 16},
		{desc: "CALL NC untaken", code: []byte{0xD4, 0x00, 0xC1}, flags: carryFlag, cycles: 12},
		{desc: "CALL NC taken", code: []byte{0xD4, 0x00, 0xC1}, cycles: 24},
		{desc: "RET C untaken", code: []byte{0xD8}, cycles: 8},
		{desc: "RET C taken", code: []byte{0xD8}, flags: carryFlag, cycles: 20},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, mmu := newTestCPU()
			loadProgram(c, mmu, tC.code...)
			c.f = uint8(tC.flags)
			c.pushStack(0xC100)

			assert.Equal(t, tC.cycles, step(t, c))
		})
	}
}

func TestOpcodes_callAndRet(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xCD, 0x00, 0xC1) // CALL 0xC100
	mmu.Write(0xC100, 0xC9)               // RET

	sp := c.sp

	cycles := step(t, c)
	assert.Equal(t, 24, cycles)
	assert.Equal(t, uint16(0xC100), c.pc)
	assert.Equal(t, uint16(0xC003), mmu.Read16(c.sp), "CALL pushes the post-operand PC")

	cycles = step(t, c)
	assert.Equal(t, 16, cycles)
	assert.Equal(t, uint16(0xC003), c.pc)
	assert.Equal(t, sp, c.sp)
}

func TestOpcodes_rstVectors(t *testing.T) {
	vectors := map[byte]uint16{
		0xC7: 0x00, 0xCF: 0x08, 0xD7: 0x10, 0xDF: 0x18,
		0xE7: 0x20, 0xEF: 0x28, 0xF7: 0x30, 0xFF: 0x38,
	}
	for opcode, vector := range vectors {
		c, mmu := newTestCPU()
		loadProgram(c, mmu, opcode)

		cycles := step(t, c)
		assert.Equal(t, 16, cycles)
		assert.Equal(t, vector, c.pc)
		assert.Equal(t, uint16(0xC001), mmu.Read16(c.sp))
	}
}

func TestOpcodes_pushPopAF(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xF5, 0xF1) // PUSH AF; POP AF
	c.a = 0x12
	c.f = 0xB0

	step(t, c)
	c.a = 0
	c.f = 0
	step(t, c)

	assert.Equal(t, uint16(0x12B0), c.getAF())
}

func TestOpcodes_popAFMasksLowNibble(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xF1) // POP AF
	c.pushStack(0x34FF)

	step(t, c)
	assert.Equal(t, uint16(0x34F0), c.getAF(), "POP AF keeps the F low nibble clear")
}

func TestOpcodes_hlPointerLoads(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x22, 0x32, 0x2A, 0x3A) // LD (HL+),A; LD (HL-),A; LD A,(HL+); LD A,(HL-)
	c.setHL(0xD000)
	c.a = 0x77

	step(t, c) // LD (HL+), A
	assert.Equal(t, byte(0x77), mmu.Read(0xD000))
	assert.Equal(t, uint16(0xD001), c.getHL())

	step(t, c) // LD (HL-), A
	assert.Equal(t, byte(0x77), mmu.Read(0xD001))
	assert.Equal(t, uint16(0xD000), c.getHL())

	c.a = 0
	step(t, c) // LD A, (HL+)
	assert.Equal(t, uint8(0x77), c.a)
	assert.Equal(t, uint16(0xD001), c.getHL())

	step(t, c) // LD A, (HL-)
	assert.Equal(t, uint16(0xD000), c.getHL())
}

func TestOpcodes_highRAMAccess(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xE0, 0x80, 0xF0, 0x80) // LDH (0x80),A; LDH A,(0x80)
	c.a = 0x42

	cycles := step(t, c)
	assert.Equal(t, 12, cycles)
	assert.Equal(t, byte(0x42), mmu.Read(0xFF80))

	c.a = 0
	cycles = step(t, c)
	assert.Equal(t, 12, cycles)
	assert.Equal(t, uint8(0x42), c.a)
}

func TestOpcodes_ldSPOps(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu,
		0x31, 0xF0, 0xCF, // LD SP, 0xCFF0
		0x08, 0x00, 0xD0, // LD (0xD000), SP
		0xE8, 0x10, // ADD SP, 0x10
		0xF8, 0xFE, // LD HL, SP-2
		0xF9, // LD SP, HL
	)

	assert.Equal(t, 12, step(t, c))
	assert.Equal(t, uint16(0xCFF0), c.sp)

	assert.Equal(t, 20, step(t, c))
	assert.Equal(t, uint16(0xCFF0), mmu.Read16(0xD000))

	assert.Equal(t, 16, step(t, c))
	assert.Equal(t, uint16(0xD000), c.sp)

	assert.Equal(t, 12, step(t, c))
	assert.Equal(t, uint16(0xCFFE), c.getHL())

	assert.Equal(t, 8, step(t, c))
	assert.Equal(t, uint16(0xCFFE), c.sp)
}

func TestOpcodes_indirectALU(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x86, 0x34, 0x35) // ADD A,(HL); INC (HL); DEC (HL)
	c.setHL(0xD100)
	mmu.Write(0xD100, 0x05)
	c.a = 0x03

	cycles := step(t, c)
	assert.Equal(t, 8, cycles)
	assert.Equal(t, uint8(0x08), c.a)

	cycles = step(t, c)
	assert.Equal(t, 12, cycles)
	assert.Equal(t, byte(0x06), mmu.Read(0xD100))

	cycles = step(t, c)
	assert.Equal(t, 12, cycles)
	assert.Equal(t, byte(0x05), mmu.Read(0xD100))
}

func TestOpcodes_accumulatorRotatesClearZ(t *testing.T) {
	// RLCA of zero keeps A zero but must not set Z
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0x07) // RLCA
	c.a = 0x00
	c.f = 0

	step(t, c)
	assert.Equal(t, uint8(0), c.f)
}

func TestOpcodes_jpHL(t *testing.T) {
	c, mmu := newTestCPU()
	loadProgram(c, mmu, 0xE9) // JP HL
	c.setHL(0xD234)

	cycles := step(t, c)
	assert.Equal(t, 4, cycles)
	assert.Equal(t, uint16(0xD234), c.pc)
}
