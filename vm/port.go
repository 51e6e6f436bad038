package vm

import (
	"bufio"
	"io"
	"os"
)

// Port is the memory-mapped character I/O device behind address Mask. It
// is dependency-injected the way the teacher's DefaultSyscallHandler takes
// its stdin/stdout/stderr at construction, so tests can swap in an
// in-memory reader/writer without touching the real terminal.
type Port struct {
	reader      *bufio.Reader
	writer      *bufio.Writer
	interactive bool
}

// NewPort builds a Port reading from in and writing to out. Output is
// flushed after every byte only when out is an interactive terminal;
// otherwise bytes are buffered and must be flushed explicitly (the VM
// caller is responsible for calling Flush when the run ends).
func NewPort(in io.Reader, out io.Writer) *Port {
	return &Port{
		reader:      bufio.NewReader(in),
		writer:      bufio.NewWriter(out),
		interactive: isInteractive(out),
	}
}

func isInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// GetByte reads one input byte, blocking until it is available. EINTR is
// retried transparently by the Go runtime's file I/O, so no explicit retry
// loop is needed here. Returns an error (including io.EOF) on failure.
func (p *Port) GetByte() (uint16, error) {
	b, err := p.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(b), nil
}

// PutByte writes one output byte, flushing immediately on an interactive
// terminal.
func (p *Port) PutByte(v uint16) error {
	if err := p.writer.WriteByte(byte(v)); err != nil {
		return err
	}
	if p.interactive {
		return p.writer.Flush()
	}
	return nil
}

// Flush drains any buffered output. Callers must invoke this once after a
// run completes so non-interactive output isn't lost.
func (p *Port) Flush() error {
	return p.writer.Flush()
}
