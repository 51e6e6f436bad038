// Package vm implements the word memory, character I/O port, opcode
// handlers and dispatcher of the subleq virtual machine: the part of the
// system that runs once an image has been loaded and optimized.
package vm

// MemSize is the number of addressable 16-bit words. Addresses wrap
// modulo MemSize; the distinguished value Mask denotes the I/O port
// whenever it appears as an address.
const MemSize = 1 << 16

// HalfSize is the program-counter halt threshold: reaching or exceeding
// mem_size/2 is the halt condition, matching the loaded image's convention
// of branching beyond program bounds to stop.
const HalfSize = MemSize / 2

// Mask is the all-ones 16-bit word: as an address it is the I/O port, as
// a value it represents -1.
const Mask uint16 = 0xFFFF

// Memory is a fixed 65,536-word array with 16-bit masked addressing. All
// arithmetic on words and addresses wraps modulo 2^16 via Go's native
// unsigned-integer overflow, so no explicit wrapping helpers are needed.
type Memory struct {
	words   [MemSize]uint16
	maxAddr uint16
}

// NewMemory returns a zero-initialized Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Load copies image into memory starting at address 0, as the external
// loader does after tokenizing an image file.
func (m *Memory) Load(image []uint16) {
	copy(m.words[:], image)
}

// Read returns the word at addr.
func (m *Memory) Read(addr uint16) uint16 {
	return m.words[addr]
}

// Write stores v at addr.
func (m *Memory) Write(addr, v uint16) {
	m.words[addr] = v
}

// trackMaxAddr updates the high-water mark used for diagnostics. It is not
// consulted for semantics and, matching the C reference, is only called
// from the native SUBLEQ handler's writes to its b operand.
func (m *Memory) trackMaxAddr(addr uint16) {
	if addr > m.maxAddr {
		m.maxAddr = addr
	}
}

// MaxAddr returns the highest b operand a SUBLEQ step has written, for
// diagnostics. Writes through Write or the derived opcodes do not move it.
func (m *Memory) MaxAddr() uint16 {
	return m.maxAddr
}

// Len returns the number of cells, always MemSize.
func (m *Memory) Len() int {
	return len(m.words)
}
