package cpu

import "github.com/pvallone/go-dotmatrix/dotmatrix/bit"

// The CB-prefixed opcode space is fully regular: bits 7:6 select the
// category (shift/rotate, BIT, RES, SET), bits 5:3 the sub-operation or bit
// index, bits 2:0 the operand (B, C, D, E, H, L, (HL), A). The 256-entry
// table is assembled here from that decomposition instead of being spelled
// out by hand.

// cbOperand reads and writes one of the eight CB operands.
type cbOperand struct {
	get func(*CPU) uint8
	set func(*CPU, uint8)
}

var cbOperands = [8]cbOperand{
	{func(c *CPU) uint8 { return c.b }, func(c *CPU, v uint8) { c.b = v }},
	{func(c *CPU) uint8 { return c.c }, func(c *CPU, v uint8) { c.c = v }},
	{func(c *CPU) uint8 { return c.d }, func(c *CPU, v uint8) { c.d = v }},
	{func(c *CPU) uint8 { return c.e }, func(c *CPU, v uint8) { c.e = v }},
	{func(c *CPU) uint8 { return c.h }, func(c *CPU, v uint8) { c.h = v }},
	{func(c *CPU) uint8 { return c.l }, func(c *CPU, v uint8) { c.l = v }},
	{
		func(c *CPU) uint8 { return c.bus.Read(c.getHL()) },
		func(c *CPU, v uint8) { c.bus.Write(c.getHL(), v) },
	},
	{func(c *CPU) uint8 { return c.a }, func(c *CPU, v uint8) { c.a = v }},
}

// cbShiftOps maps bits 5:3 of a category-00 opcode to the shift/rotate body.
var cbShiftOps = [8]func(*CPU, uint8) uint8{
	(*CPU).rlcOp,
	(*CPU).rrcOp,
	(*CPU).rlOp,
	(*CPU).rrOp,
	(*CPU).slaOp,
	(*CPU).sraOp,
	(*CPU).swapOp,
	(*CPU).srlOp,
}

const operandHL = 6

// opcodesCB is the prefixed dispatch table, filled by init.
var opcodesCB [256]Opcode

func init() {
	for i := range opcodesCB {
		opcodesCB[i] = buildCB(uint8(i))
	}
}

func buildCB(opcode uint8) Opcode {
	operand := cbOperands[opcode&0x07]
	index := (opcode >> 3) & 0x07

	cycles := 8
	if opcode&0x07 == operandHL {
		cycles = 16
	}

	switch opcode >> 6 {
	case 0: // shift/rotate family
		op := cbShiftOps[index]
		return func(c *CPU) int {
			operand.set(c, op(c, operand.get(c)))
			return cycles
		}
	case 1: // BIT n, r: test only, no writeback
		bitCycles := 8
		if opcode&0x07 == operandHL {
			bitCycles = 12
		}
		return func(c *CPU) int {
			c.bitTest(index, operand.get(c))
			return bitCycles
		}
	case 2: // RES n, r
		return func(c *CPU) int {
			operand.set(c, bit.Reset(index, operand.get(c)))
			return cycles
		}
	default: // SET n, r
		return func(c *CPU) int {
			operand.set(c, bit.Set(index, operand.get(c)))
			return cycles
		}
	}
}

// execCB runs the prefixed opcode fetched after 0xCB.
func execCB(c *CPU, opcode uint8) int {
	return opcodesCB[opcode](c)
}

// Rotate/shift bodies shared between the CB family and the accumulator
// rotates. All of them set Z from the result and clear N/H; the accumulator
// variants clear Z afterwards.

// rotateLeft rotates left, bit 7 into both bit 0 and carry.
func (c *CPU) rotateLeft(value uint8) uint8 {
	carry := value >> 7
	result := value<<1 | carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry == 1)

	return result
}

// rotateLeftThroughCarry rotates left through the carry flag.
func (c *CPU) rotateLeftThroughCarry(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, value>>7 == 1)

	return result
}

// rotateRight rotates right, bit 0 into both bit 7 and carry.
func (c *CPU) rotateRight(value uint8) uint8 {
	carry := value & 1
	result := value>>1 | carry<<7

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry == 1)

	return result
}

// rotateRightThroughCarry rotates right through the carry flag.
func (c *CPU) rotateRightThroughCarry(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, value&1 == 1)

	return result
}

func (c *CPU) rlcOp(value uint8) uint8 { return c.rotateLeft(value) }
func (c *CPU) rrcOp(value uint8) uint8 { return c.rotateRight(value) }
func (c *CPU) rlOp(value uint8) uint8  { return c.rotateLeftThroughCarry(value) }
func (c *CPU) rrOp(value uint8) uint8  { return c.rotateRightThroughCarry(value) }

// slaOp shifts left arithmetically, bit 7 into carry, bit 0 cleared.
func (c *CPU) slaOp(value uint8) uint8 {
	result := value << 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, value>>7 == 1)

	return result
}

// sraOp shifts right arithmetically, bit 7 preserved, bit 0 into carry.
func (c *CPU) sraOp(value uint8) uint8 {
	result := value>>1 | value&0x80

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, value&1 == 1)

	return result
}

// swapOp exchanges the high and low nibbles.
func (c *CPU) swapOp(value uint8) uint8 {
	result := value<<4 | value>>4

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)

	return result
}

// srlOp shifts right logically, bit 7 cleared, bit 0 into carry.
func (c *CPU) srlOp(value uint8) uint8 {
	result := value >> 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, value&1 == 1)

	return result
}

// bitTest sets Z from the complement of the tested bit; C is untouched.
func (c *CPU) bitTest(index uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}
