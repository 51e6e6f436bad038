package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/jserv/subleq/insts"
)

// Option configures a VM at construction, following the functional-options
// pattern the teacher uses for its emulator (WithStdout, WithStderr,
// WithMaxInstructions).
type Option func(*VM)

// WithInput sets the character-input source. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(v *VM) { v.input = r }
}

// WithOutput sets the character-output sink. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.output = w }
}

// WithStats enables per-opcode substitution and execution counters.
func WithStats() Option {
	return func(v *VM) { v.stats = NewStats() }
}

// WithProfiler enables the PC-indexed hot-spot execution counter.
func WithProfiler() Option {
	return func(v *VM) { v.profiler = newProfiler() }
}

// VM is the execution context: word memory, the decoded-instruction store
// produced by the optimizer, the program counter, the I/O port, and
// optional statistics/profiler counters. It is owned exclusively by one
// goroutine for its lifetime; there is no concurrency inside the core.
type VM struct {
	Mem     *Memory
	Decoded []insts.Instruction

	PC      uint16
	halted  bool
	err     error

	input  io.Reader
	output io.Writer
	port   *Port

	stats    *Stats
	profiler *profiler
}

// New builds a VM over mem and decoded (as produced by optimizer.Optimize
// or a raw SUBLEQ decode), applying opts.
func New(mem *Memory, decoded []insts.Instruction, opts ...Option) *VM {
	v := &VM{Mem: mem, Decoded: decoded}
	for _, opt := range opts {
		opt(v)
	}
	if v.input == nil {
		v.input = os.Stdin
	}
	if v.output == nil {
		v.output = os.Stdout
	}
	v.port = NewPort(v.input, v.output)
	return v
}

// Err returns the error that stopped execution, if any (runtime I/O
// failure). nil after a clean HALT.
func (v *VM) Err() error {
	return v.err
}

// Halted reports whether the dispatcher has stopped.
func (v *VM) Halted() bool {
	return v.halted
}

// Stats returns the statistics snapshot, or nil if WithStats wasn't used.
func (v *VM) Stats() *Stats {
	return v.stats
}

// SetSubstCounts records the optimizer's per-opcode substitution counts
// into the statistics table. A no-op if WithStats wasn't used.
func (v *VM) SetSubstCounts(counts [insts.OpCount]uint64) {
	if v.stats != nil {
		v.stats.Subst = counts
	}
}

// Profiler returns the hot-spot report, or nil if WithProfiler wasn't used.
func (v *VM) Profiler() *ProfileReport {
	if v.profiler == nil {
		return nil
	}
	return v.profiler.report(v.Decoded)
}

// Step performs one fetch-decode-execute cycle: it reads the decoded
// record at PC and invokes its handler. It reports whether the dispatcher
// should continue.
func (v *VM) Step() bool {
	if v.halted || v.err != nil {
		return false
	}
	if int(v.PC) >= HalfSize {
		v.halted = true
		return false
	}
	insn := v.Decoded[v.PC]
	if v.stats != nil {
		v.stats.countExec(insn.Op)
	}
	if v.profiler != nil {
		v.profiler.countPC(v.PC)
	}
	handlers[insn.Op](v, insn)
	return !v.halted && v.err == nil
}

// Run executes Step in an explicit loop (not recursion, so the call stack
// never grows regardless of how many steps the program takes — a hard
// requirement since programs run billions of steps) until the dispatcher
// halts, an I/O error occurs, or the program counter leaves bounds.
func (v *VM) Run() error {
	for v.Step() {
	}
	if v.port != nil {
		if ferr := v.port.Flush(); ferr != nil && v.err == nil {
			v.err = fmt.Errorf("flushing output: %w", ferr)
		}
	}
	return v.err
}
