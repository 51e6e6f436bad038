package vm

import (
	"fmt"
	"io"
	"sort"

	"github.com/jserv/subleq/insts"
)

// maxHotSpots bounds the hot-spot list the profiler reports, matching the
// top-k (k <= 64) limit from the external interfaces.
const maxHotSpots = 64

// profiler is an independent side concern (per the design notes, it may be
// omitted entirely from a minimal rewrite without affecting correctness):
// a PC-indexed execution counter used only to build a human-readable
// report after the run.
type profiler struct {
	counts map[uint16]uint64
}

func newProfiler() *profiler {
	return &profiler{counts: make(map[uint16]uint64)}
}

func (p *profiler) countPC(pc uint16) {
	p.counts[pc]++
}

// HotSpot is one entry in the profiler's ranked-by-execution-count report.
type HotSpot struct {
	PC    uint16
	Op    insts.Op
	Count uint64
}

// ProfileReport is the instruction mix plus the top-k hot-spot list.
type ProfileReport struct {
	Mix      [insts.OpCount]uint64
	HotSpots []HotSpot
}

func (p *profiler) report(decoded []insts.Instruction) *ProfileReport {
	r := &ProfileReport{}
	spots := make([]HotSpot, 0, len(p.counts))
	for pc, n := range p.counts {
		op := insts.OpSubleq
		if int(pc) < len(decoded) {
			op = decoded[pc].Op
		}
		r.Mix[op] += n
		spots = append(spots, HotSpot{PC: pc, Op: op, Count: n})
	}
	sort.Slice(spots, func(i, j int) bool {
		if spots[i].Count != spots[j].Count {
			return spots[i].Count > spots[j].Count
		}
		return spots[i].PC < spots[j].PC
	})
	if len(spots) > maxHotSpots {
		spots = spots[:maxHotSpots]
	}
	r.HotSpots = spots
	return r
}

// Write renders the profiler report in the human-readable format written
// to profiler_report.txt: instruction mix, then the ranked hot-spot list.
func (r *ProfileReport) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "INSTRUCTION MIX"); err != nil {
		return err
	}
	for op := insts.Op(0); int(op) < insts.OpCount; op++ {
		if r.Mix[op] == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-8s %d\n", op, r.Mix[op]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nTOP %d HOT SPOTS\n", len(r.HotSpots)); err != nil {
		return err
	}
	for i, hs := range r.HotSpots {
		if _, err := fmt.Fprintf(w, "  %3d. pc=%-6d %-8s %d\n", i+1, hs.PC, hs.Op, hs.Count); err != nil {
			return err
		}
	}
	return nil
}
