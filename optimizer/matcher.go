// Package optimizer recognizes canonical multi-word SUBLEQ idioms and
// rewrites them into the extended opcodes insts defines, so the dispatcher
// never has to interpret a raw three-word SUBLEQ triple for the idioms
// that matter most to execution speed.
package optimizer

import (
	"unicode"

	"github.com/jserv/subleq/vm"
)

// Matcher is a stateless-per-call pattern tester over a word-memory view.
// Captured variables are scoped to one Match call via a monotonic version
// counter, so a Matcher can be reused across an entire optimizer pass
// without callers needing to reset it between attempts.
//
// Pattern alphabet, each consuming exactly one word unless noted:
//
//	0-9   variable slot: first occurrence captures, later occurrences match
//	Z     word must be 0
//	N     word must equal vm.Mask
//	>     word must equal the address immediately following this symbol
//	%     word must equal the next variadic uint16 argument
//	!     capture the word into the next variadic *uint16 argument
//	?     wildcard
//	P     word is strictly positive under signed interpretation
//	M     word is a valid address (every uint16 qualifies, or equals Mask)
//	R     word equals the variable whose index is the next variadic int
//	(whitespace is ignored, for pattern readability)
type Matcher struct {
	mem     *vm.Memory
	version uint64
	bound   [10]uint64
	vars    [10]uint16
}

// NewMatcher builds a Matcher over mem.
func NewMatcher(mem *vm.Memory) *Matcher {
	return &Matcher{mem: mem}
}

// Match tests pattern against the window of at most maxLen words starting
// at base. It returns false without any externally visible effect on
// failure; on success, captured variables are available via Var until the
// next call to Match.
func (m *Matcher) Match(base uint16, maxLen int, pattern string, args ...any) bool {
	if maxLen <= 0 {
		return false
	}
	m.version++

	argi := 0
	offset := 0
	// '!' captures are held here and stored through their pointers only
	// once the whole pattern has matched.
	var outPtrs []*uint16
	var outVals []uint16
	for _, sym := range pattern {
		if unicode.IsSpace(sym) {
			continue
		}
		if offset >= maxLen {
			return false
		}
		word := m.mem.Read(base + uint16(offset))

		switch {
		case sym >= '0' && sym <= '9':
			idx := int(sym - '0')
			if m.bound[idx] == m.version {
				if m.vars[idx] != word {
					return false
				}
			} else {
				m.bound[idx] = m.version
				m.vars[idx] = word
			}
		case sym == 'Z':
			if word != 0 {
				return false
			}
		case sym == 'N':
			if word != vm.Mask {
				return false
			}
		case sym == '>':
			if uint32(word) != uint32(base)+uint32(offset)+1 {
				return false
			}
		case sym == '%':
			want, ok := nextArg[uint16](args, &argi)
			if !ok || word != want {
				return false
			}
		case sym == '!':
			ptr, ok := nextArg[*uint16](args, &argi)
			if !ok {
				return false
			}
			outPtrs = append(outPtrs, ptr)
			outVals = append(outVals, word)
		case sym == '?':
			// wildcard: consumes the word, asserts nothing.
		case sym == 'P':
			if word == 0 || word&0x8000 != 0 {
				return false
			}
		case sym == 'M':
			// every uint16 is a valid address or equals Mask.
		case sym == 'R':
			idx, ok := nextArg[int](args, &argi)
			if !ok || idx < 0 || idx > 9 || m.bound[idx] != m.version || m.vars[idx] != word {
				return false
			}
		default:
			return false
		}
		offset++
	}
	for i, ptr := range outPtrs {
		*ptr = outVals[i]
	}
	return true
}

// Var returns the value captured into numbered variable n by the most
// recent successful Match, or vm.Mask if n was never captured.
func (m *Matcher) Var(n int) uint16 {
	if m.bound[n] != m.version {
		return vm.Mask
	}
	return m.vars[n]
}

func nextArg[T any](args []any, i *int) (T, bool) {
	var zero T
	if *i >= len(args) {
		return zero, false
	}
	v, ok := args[*i].(T)
	*i++
	if !ok {
		return zero, false
	}
	return v, true
}
