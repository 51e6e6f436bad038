package vm

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jserv/subleq/insts"
)

// Stats holds per-opcode substitution counts (filled in by the optimizer)
// and execution counts (filled in by the dispatcher), plus the wall-clock
// duration of the run. Written to stderr as a fixed-column table.
type Stats struct {
	Subst   [insts.OpCount]uint64
	Exec    [insts.OpCount]uint64
	started time.Time
	Elapsed time.Duration
}

// NewStats returns a zeroed Stats and starts its wall-clock timer.
func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// countExec increments the execution counter for op; called once per
// dispatched instruction when statistics are enabled.
func (s *Stats) countExec(op insts.Op) {
	s.Exec[op]++
}

// Stop records elapsed wall-clock time since the stats were created. Call
// once after the run completes, before Write.
func (s *Stats) Stop() {
	s.Elapsed = time.Now().Sub(s.started)
}

// Write renders the fixed-column per-opcode table described in the
// external interfaces: substitution counts, execution counts, percentage
// of total executed instructions, and total wall-clock seconds.
func (s *Stats) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPCODE\tSUBSTITUTED\tEXECUTED\tPCT")

	var total uint64
	for _, n := range s.Exec {
		total += n
	}

	for op := insts.Op(0); int(op) < insts.OpCount; op++ {
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(s.Exec[op]) / float64(total)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", op, s.Subst[op], s.Exec[op], pct)
	}
	fmt.Fprintf(tw, "TOTAL\t-\t%d\t100.00%%\n", total)
	fmt.Fprintf(tw, "ELAPSED\t-\t-\t%.6fs\n", s.Elapsed.Seconds())

	return tw.Flush()
}
