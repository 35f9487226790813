package markov

import (
	"fmt"
	"strings"
)

// CharData records one character observed after a window: how many times it
// was seen, its probability P, and the cumulative probability CP of every
// entry up to and including this one.
type CharData struct {
	Char  rune
	Count int
	P     float64
	CP    float64
}

// String renders the entry as "('c' count p cp)". The character is quoted so
// control characters stay on one line.
func (cd CharData) String() string {
	return fmt.Sprintf("(%q %d %v %v)", cd.Char, cd.Count, cd.P, cd.CP)
}

// CharList is the ordered set of characters that followed a single window.
// Entries keep the order in which each character was first observed, which
// the sampler relies on.
type CharList struct {
	entries []CharData
}

// update records one more observation of c.
func (l *CharList) update(c rune) {
	for i := range l.entries {
		if l.entries[i].Char == c {
			l.entries[i].Count++
			return
		}
	}
	l.entries = append(l.entries, CharData{Char: c, Count: 1})
}

// calculateProbabilities sets P and CP on every entry from the current counts.
func (l *CharList) calculateProbabilities() {
	total := 0
	for _, cd := range l.entries {
		total += cd.Count
	}
	if total == 0 {
		return
	}

	prev := 0.0
	for i := range l.entries {
		cd := &l.entries[i]
		cd.P = float64(cd.Count) / float64(total)
		cd.CP = prev + cd.P
		prev = cd.CP
	}
}

// sample returns the first character whose cumulative probability exceeds r.
// Rounding can leave the last CP a hair under 1, so a draw above every CP
// falls back to the last entry.
func (l *CharList) sample(r float64) rune {
	for _, cd := range l.entries {
		if cd.CP > r {
			return cd.Char
		}
	}
	return l.entries[len(l.entries)-1].Char
}

// total returns the sum of all counts in the list.
func (l *CharList) total() int {
	total := 0
	for _, cd := range l.entries {
		total += cd.Count
	}
	return total
}

func (l *CharList) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, cd := range l.entries {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(cd.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
