// Command subleq runs a SUBLEQ image through the peephole-optimizing
// virtual machine.
//
// Usage:
//
//	subleq [-O] [-s] [-p] [-cpuprofile file] <image>
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/jserv/subleq/insts"
	"github.com/jserv/subleq/loader"
	"github.com/jserv/subleq/optimizer"
	"github.com/jserv/subleq/vm"
)

// Exit codes, per the external interface contract: 0 on clean halt, 1 on
// setup/I/O failure, 2 on file-close failure, any other non-zero value on
// a runtime I/O failure.
const (
	exitOK             = 0
	exitSetupFailure   = 1
	exitCloseFailure   = 2
	exitRuntimeFailure = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("subleq", flag.ContinueOnError)
	noOpt := fs.Bool("O", false, "disable the peephole optimizer; decode every cell as raw SUBLEQ")
	stats := fs.Bool("s", false, "print the per-opcode statistics table to stderr")
	profile := fs.Bool("p", false, "enable the hot-spot profiler and write profiler_report.txt")
	cpuProfile := fs.String("cpuprofile", "", "write a Go pprof CPU profile to this file")
	if err := fs.Parse(args); err != nil {
		return exitSetupFailure
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: subleq [-O] [-s] [-p] [-cpuprofile file] <image>")
		return exitSetupFailure
	}

	image, closeErr, err := readImage(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitSetupFailure
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
		return exitCloseFailure
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitSetupFailure
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitSetupFailure
		}
		defer pprof.StopCPUProfile()
	}

	mem := vm.NewMemory()
	mem.Load(image)

	var decoded []insts.Instruction
	var substCounts [insts.OpCount]uint64
	if *noOpt {
		decoded = optimizer.DecodeRaw(mem, len(image))
	} else {
		decoded, substCounts = optimizer.Optimize(mem, len(image))
	}

	var opts []vm.Option
	if *stats {
		opts = append(opts, vm.WithStats())
	}
	if *profile {
		opts = append(opts, vm.WithProfiler())
	}
	machine := vm.New(mem, decoded, opts...)
	if *stats {
		machine.SetSubstCounts(substCounts)
	}

	runErr := machine.Run()

	if st := machine.Stats(); st != nil {
		st.Stop()
		if err := st.Write(os.Stderr); err != nil {
			fmt.Fprintln(os.Stderr, "writing statistics:", err)
		}
	}
	if report := machine.Profiler(); report != nil {
		if err := writeProfileReport(report); err != nil {
			fmt.Fprintln(os.Stderr, "writing profiler report:", err)
		}
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return exitRuntimeFailure
	}
	return exitOK
}

// readImage opens and tokenizes path, returning the parse error and the
// file-close error separately so the caller can distinguish the two exit
// codes the external interface promises.
func readImage(path string) ([]uint16, error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %q: %w", path, err), nil
	}
	words, parseErr := loader.Tokenize(f)
	closeErr := f.Close()
	if parseErr != nil {
		return nil, fmt.Errorf("parsing image %q: %w", path, parseErr), nil
	}
	if closeErr != nil {
		return nil, nil, fmt.Errorf("closing image %q: %w", path, closeErr)
	}
	return words, nil, nil
}

func writeProfileReport(report *vm.ProfileReport) error {
	f, err := os.Create("profiler_report.txt")
	if err != nil {
		return err
	}
	if err := report.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
