// Package main provides the entry point for subleq.
// subleq is a peephole-optimizing virtual machine for the
// subtract-and-branch-if-less-or-equal-to-zero one-instruction computer.
//
// For the full CLI, use: go run ./cmd/subleq
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("subleq - SUBLEQ virtual machine")
	fmt.Println("")
	fmt.Println("Usage: subleq [options] <image>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -O            disable the peephole optimizer")
	fmt.Println("  -s            print the per-opcode statistics table")
	fmt.Println("  -p            enable the hot-spot profiler")
	fmt.Println("  -cpuprofile   write a Go pprof CPU profile to this file")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/subleq' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/subleq' instead.")
	}
}
