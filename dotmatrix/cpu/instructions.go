package cpu

import "github.com/pvallone/go-dotmatrix/dotmatrix/bit"

// Shared instruction bodies. Each opcode handler in opcodes.go delegates to
// one of these, so the flag rules live in exactly one place.

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

// inc8 increments a value, setting Z/N/H and leaving C untouched.
func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, result&0x0F == 0)

	return result
}

// dec8 decrements a value, setting Z/N/H and leaving C untouched.
func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, result&0x0F == 0x0F)

	return result
}

// add adds a value (plus the carry flag for ADC) into A.
func (c *CPU) add(value uint8, withCarry bool) {
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}

	sum := uint16(c.a) + uint16(value) + uint16(carry)
	result := uint8(sum)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (c.a&0x0F)+(value&0x0F)+carry > 0x0F)
	c.setFlagToCondition(carryFlag, sum > 0xFF)

	c.a = result
}

// sub subtracts a value (plus the carry flag for SBC) from A.
func (c *CPU) sub(value uint8, withCarry bool) {
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}

	result := c.a - value - carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, c.a&0x0F < (value&0x0F)+carry)
	c.setFlagToCondition(carryFlag, uint16(c.a) < uint16(value)+uint16(carry))

	c.a = result
}

// compare is sub with the result discarded.
func (c *CPU) compare(value uint8) {
	a := c.a
	c.sub(value, false)
	c.a = a
}

func (c *CPU) and(value uint8) {
	c.a &= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// addToHL adds a 16 bit value into HL. Z is left untouched; H and C are the
// bit-11 and bit-15 carries.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, uint32(hl)+uint32(value) > 0xFFFF)

	c.setHL(hl + value)
}

// addToSP computes SP plus a signed offset, used by both ADD SP,e8 and
// LD HL,SP+e8. H and C come from the unsigned low-byte addition; Z and N
// are always cleared.
func (c *CPU) addToSP(offset int8) uint16 {
	result := uint16(int32(c.sp) + int32(offset))

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (c.sp&0x0F)+(uint16(uint8(offset))&0x0F) > 0x0F)
	c.setFlagToCondition(carryFlag, (c.sp&0xFF)+uint16(uint8(offset)) > 0xFF)

	return result
}

// daa adjusts A back into packed BCD after an addition or subtraction,
// driven by the N/H/C flags of that operation.
func (c *CPU) daa() {
	a := uint16(c.a)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			a = (a - 0x06) & 0xFF
		}
		if c.isSetFlag(carryFlag) {
			a -= 0x60
		}
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
		if c.isSetFlag(carryFlag) || a > 0x9F {
			a += 0x60
		}
	}

	if a&0x100 != 0 {
		c.setFlag(carryFlag)
	}
	c.a = uint8(a)
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) cpl() {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) ccf() {
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) scf() {
	c.setFlag(carryFlag)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
}

// Accumulator rotates (RLCA/RLA/RRCA/RRA). Unlike their CB counterparts
// these always clear Z.

func (c *CPU) rlca() {
	c.a = c.rotateLeft(c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) rla() {
	c.a = c.rotateLeftThroughCarry(c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) rrca() {
	c.a = c.rotateRight(c.a)
	c.resetFlag(zeroFlag)
}

func (c *CPU) rra() {
	c.a = c.rotateRightThroughCarry(c.a)
	c.resetFlag(zeroFlag)
}

// jr applies a relative jump: the signed offset is added after PC has
// advanced past the operand. Returns the taken/untaken cycle cost.
func (c *CPU) jr(condition bool) int {
	offset := c.readSignedImmediate()
	if !condition {
		return 8
	}
	c.pc = uint16(int32(c.pc) + int32(offset))
	return 12
}

func (c *CPU) jp(condition bool) int {
	target := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pc = target
	return 16
}

func (c *CPU) call(condition bool) int {
	target := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pushStack(c.pc)
	c.pc = target
	return 24
}

func (c *CPU) ret(condition bool) int {
	if !condition {
		return 8
	}
	c.pc = c.popStack()
	return 20
}

// rst pushes PC and jumps to one of the fixed vectors.
func (c *CPU) rst(vector uint16) {
	c.pushStack(c.pc)
	c.pc = vector
}
