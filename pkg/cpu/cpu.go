package cpu

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	OpHLT  uint16 = 0x00
	OpNOP  uint16 = 0x01
	OpLDI  uint16 = 0x02
	OpMOV  uint16 = 0x03
	OpLD   uint16 = 0x04
	OpST   uint16 = 0x05
	OpADD  uint16 = 0x06
	OpSUB  uint16 = 0x07
	OpAND  uint16 = 0x08
	OpOR   uint16 = 0x09
	OpXOR  uint16 = 0x0A
	OpNOT  uint16 = 0x0B
	OpSHL  uint16 = 0x0C
	OpSHR  uint16 = 0x0D
	OpJMP  uint16 = 0x0E
	OpJZ   uint16 = 0x0F
	OpJNZ  uint16 = 0x10
	OpJN   uint16 = 0x11
	OpPUSH uint16 = 0x12
	OpPOP  uint16 = 0x13
	OpCALL uint16 = 0x14
	OpRET  uint16 = 0x15
	OpLDSP uint16 = 0x1A
	OpSTSP uint16 = 0x1B
	OpMUL  uint16 = 0x1C
	OpDIV  uint16 = 0x1D
	OpLDB  uint16 = 0x20
	OpSTB  uint16 = 0x21
	OpIDIV uint16 = 0x22
	OpJC   uint16 = 0x23
	OpJNC  uint16 = 0x24
)

const (
	RegA uint16 = 0
	RegB uint16 = 1
	RegC uint16 = 2
	RegD uint16 = 3
)

// Console ports. Everything else in the MMIO window reads as 0 and ignores
// writes.
const (
	PortChar   uint16 = 0xFF00 // prints the low byte as a character
	PortNumber uint16 = 0xFF01 // prints the word as signed decimal

	mmioStart uint16 = 0xFF00
	mmioEnd   uint16 = 0xFF0F
)

// StackTop is the initial SP. The stack grows down from just below the MMIO
// window toward the loaded program image and never enters either.
const StackTop uint16 = mmioStart

var (
	// ErrStepLimit is returned by RunFor when the program is still running
	// after the allowed number of steps.
	ErrStepLimit = errors.New("step limit reached")
	// ErrIllegalInstruction is wrapped by Fault when an unknown opcode halts
	// the CPU.
	ErrIllegalInstruction = errors.New("illegal instruction")
	// ErrProgramTooLarge is returned by Load for images over 64 KiB.
	ErrProgramTooLarge = errors.New("program too large")
	// ErrStackOverflow is wrapped by Fault when a push would leave the stack
	// region, either into the program image or into the MMIO window.
	ErrStackOverflow = errors.New("stack overflow")
	// ErrStackUnderflow is wrapped by Fault when POP or RET finds the stack
	// empty.
	ErrStackUnderflow = errors.New("stack underflow")
)

type CPU struct {
	Regs [8]uint16

	PC uint16
	SP uint16

	Z bool
	N bool
	C bool

	Halted bool
	// Fault is set when the CPU halted on an illegal instruction or a stack
	// fault.
	Fault error

	// Steps counts executed instructions since the last Reset.
	Steps uint64

	Memory [65536]byte

	// Output is where console MMIO writes (0xFF00, 0xFF01) are sent.
	// If nil, os.Stdout is used.
	Output io.Writer

	// stackFloor is the end of the loaded image; pushes below it fault.
	stackFloor int
}

// NewCPU creates a CPU with the stack pointer at StackTop.
func NewCPU() *CPU {
	return &CPU{SP: StackTop}
}

// Reset clears registers, flags and memory. Output is kept.
func (c *CPU) Reset() {
	out := c.Output
	*c = CPU{SP: StackTop, Output: out}
}

// Load resets the CPU and copies program into memory at address 0.
func (c *CPU) Load(program []byte) error {
	if len(program) > len(c.Memory) {
		return fmt.Errorf("%w: %d bytes", ErrProgramTooLarge, len(program))
	}
	c.Reset()
	copy(c.Memory[:], program)
	c.stackFloor = len(program)
	return nil
}

func (c *CPU) fault(err error) {
	c.Halted = true
	c.Fault = err
}

// push stores val below SP. It reports false after faulting.
func (c *CPU) push(val uint16) bool {
	sp := c.SP - 2
	if int(sp) < c.stackFloor || sp > StackTop-2 {
		c.fault(fmt.Errorf("%w: SP=0x%04X", ErrStackOverflow, c.SP))
		return false
	}
	c.SP = sp
	c.Write16(sp, val)
	return true
}

// pop loads the word at SP. It reports false after faulting.
func (c *CPU) pop() (uint16, bool) {
	if c.SP > StackTop-2 {
		c.fault(fmt.Errorf("%w: SP=0x%04X", ErrStackUnderflow, c.SP))
		return 0, false
	}
	val := c.Read16(c.SP)
	c.SP += 2
	return val, true
}

func (c *CPU) outputSink() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}

func (c *CPU) reg(idx uint16) *uint16 {
	return &c.Regs[idx&0x07]
}

func (c *CPU) updateFlags(result uint16) {
	c.Z = result == 0
	c.N = (result & 0x8000) != 0
}

func isMMIO(addr uint16) bool {
	return addr >= mmioStart && addr <= mmioEnd
}

// Read16 reads a little-endian uint16 from addr and addr+1.
func (c *CPU) Read16(addr uint16) uint16 {
	lo := uint16(c.ReadByte(addr))
	hi := uint16(c.ReadByte(addr + 1))
	return lo | (hi << 8)
}

// Write16 writes a little-endian uint16 to addr and addr+1. A write that
// starts on a console port goes to the port as a single word.
func (c *CPU) Write16(addr uint16, val uint16) {
	if isMMIO(addr) {
		c.handleMMIOWrite16(addr, val)
		return
	}
	c.WriteByte(addr, byte(val&0xFF))
	c.WriteByte(addr+1, byte(val>>8))
}

func (c *CPU) ReadByte(addr uint16) byte {
	if isMMIO(addr) {
		return 0
	}
	return c.Memory[addr]
}

func (c *CPU) WriteByte(addr uint16, val byte) {
	if isMMIO(addr) {
		c.handleMMIOWrite16(addr, uint16(val))
		return
	}
	c.Memory[addr] = val
}

func (c *CPU) handleMMIOWrite16(addr uint16, val uint16) {
	switch addr {
	case PortChar:
		fmt.Fprintf(c.outputSink(), "%c", rune(val&0xFF))
	case PortNumber:
		fmt.Fprintf(c.outputSink(), "%d", int16(val))
	}
}

func (c *CPU) fetchImmediate() uint16 {
	imm := c.Read16(c.PC)
	c.PC += 2
	return imm
}

// Step executes one instruction. It does nothing once the CPU has halted.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	pc := c.PC
	instr := c.Read16(c.PC)
	c.PC += 2
	c.Steps++

	opcode := (instr >> 10) & 0x3F
	regA := (instr >> 7) & 0x07
	regB := (instr >> 4) & 0x07
	valA, valB := *c.reg(regA), *c.reg(regB)

	switch opcode {
	case OpHLT:
		c.Halted = true

	case OpNOP:

	case OpLDI:
		*c.reg(regA) = c.fetchImmediate()

	case OpMOV:
		*c.reg(regA) = valB

	case OpLD:
		*c.reg(regA) = c.Read16(valB)

	case OpST:
		c.Write16(valA, valB)

	case OpLDB:
		*c.reg(regA) = uint16(c.ReadByte(valB))

	case OpSTB:
		c.WriteByte(valA, byte(valB&0xFF))

	case OpADD:
		res32 := uint32(valA) + uint32(valB)
		result := uint16(res32)
		c.C = res32 > 0xFFFF
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpSUB:
		result := valA - valB
		c.C = valA < valB
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpAND:
		c.alu(regA, valA&valB)
	case OpOR:
		c.alu(regA, valA|valB)
	case OpXOR:
		c.alu(regA, valA^valB)
	case OpNOT:
		c.alu(regA, ^valA)
	case OpSHL:
		c.alu(regA, valA<<valB)
	case OpSHR:
		c.alu(regA, valA>>valB)
	case OpMUL:
		c.alu(regA, valA*valB)

	case OpDIV:
		if valB == 0 {
			c.alu(regA, 0)
		} else {
			c.alu(regA, valA/valB)
		}

	case OpIDIV:
		if valB == 0 {
			c.alu(regA, 0)
		} else {
			c.alu(regA, uint16(int16(valA)/int16(valB)))
		}

	case OpJMP:
		c.PC = c.fetchImmediate()
	case OpJZ:
		c.jumpIf(c.Z)
	case OpJNZ:
		c.jumpIf(!c.Z)
	case OpJN:
		c.jumpIf(c.N)
	case OpJC:
		c.jumpIf(c.C)
	case OpJNC:
		c.jumpIf(!c.C)

	case OpPUSH:
		c.push(valA)

	case OpPOP:
		if val, ok := c.pop(); ok {
			*c.reg(regA) = val
		}

	case OpCALL:
		target := c.fetchImmediate()
		if c.push(c.PC) {
			c.PC = target
		}

	case OpRET:
		if ret, ok := c.pop(); ok {
			c.PC = ret
		}

	case OpLDSP:
		*c.reg(regA) = c.SP

	case OpSTSP:
		c.SP = valA

	default:
		c.fault(fmt.Errorf("%w 0x%02X at 0x%04X", ErrIllegalInstruction, opcode, pc))
	}
}

func (c *CPU) alu(regA, result uint16) {
	*c.reg(regA) = result
	c.updateFlags(result)
}

func (c *CPU) jumpIf(cond bool) {
	target := c.fetchImmediate()
	if cond {
		c.PC = target
	}
}

// Run steps until the CPU halts. It returns Fault, if any.
func (c *CPU) Run() error {
	for !c.Halted {
		c.Step()
	}
	return c.Fault
}

// RunFor steps until the CPU halts or limit instructions have executed,
// whichever comes first.
func (c *CPU) RunFor(limit int) error {
	for i := 0; i < limit && !c.Halted; i++ {
		c.Step()
	}
	if !c.Halted {
		return fmt.Errorf("%w after %d instructions", ErrStepLimit, limit)
	}
	return c.Fault
}

func EncodeInstruction(opcode, regA, regB, regC uint16) uint16 {
	return (opcode << 10) | ((regA & 0x07) << 7) | ((regB & 0x07) << 4) | ((regC & 0x07) << 1)
}
