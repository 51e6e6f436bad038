package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jserv/subleq/insts"
	"github.com/jserv/subleq/vm"
)

func TestMemoryLoadAndRead(t *testing.T) {
	mem := vm.NewMemory()
	mem.Load([]uint16{10, 20, 30})
	if got := mem.Read(0); got != 10 {
		t.Errorf("Read(0) = %d, want 10", got)
	}
	if got := mem.Read(2); got != 30 {
		t.Errorf("Read(2) = %d, want 30", got)
	}
	if got := mem.Read(3); got != 0 {
		t.Errorf("Read(3) = %d, want 0 (unloaded cell)", got)
	}
}

func TestMemoryWriteWraps(t *testing.T) {
	mem := vm.NewMemory()
	mem.Write(0, 1)
	mem.Write(0, mem.Read(0)-2)
	if got := mem.Read(0); got != vm.Mask {
		t.Errorf("Read(0) = %#x, want %#x (unsigned wraparound)", got, vm.Mask)
	}
}

func TestMemoryMaxAddrTracksHighWaterMark(t *testing.T) {
	mem := vm.NewMemory()
	if got := mem.MaxAddr(); got != 0 {
		t.Errorf("MaxAddr() on fresh memory = %d, want 0", got)
	}
	// Only SUBLEQ steps move the mark, so the writes go through three raw
	// SUBLEQ instructions whose b operands are 5, 3 and 9.
	decoded := make([]insts.Instruction, vm.MemSize)
	decoded[0] = insts.Instruction{Op: insts.OpSubleq, Src: 100, Dst: 5, Aux: 3}
	decoded[3] = insts.Instruction{Op: insts.OpSubleq, Src: 100, Dst: 3, Aux: 6}
	decoded[6] = insts.Instruction{Op: insts.OpSubleq, Src: 100, Dst: 9, Aux: 9}
	decoded[9] = insts.Instruction{Op: insts.OpHalt}
	m := vm.New(mem, decoded, vm.WithInput(strings.NewReader("")), vm.WithOutput(&bytes.Buffer{}))
	if err := m.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := mem.MaxAddr(); got != 9 {
		t.Errorf("MaxAddr() = %d, want 9", got)
	}
}

func TestMemoryLen(t *testing.T) {
	mem := vm.NewMemory()
	if got := mem.Len(); got != vm.MemSize {
		t.Errorf("Len() = %d, want %d", got, vm.MemSize)
	}
}
