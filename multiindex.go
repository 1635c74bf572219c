package gotaylor

import (
	"sync"

	"gonum.org/v1/gonum/stat/combin"
)

// ============================================================
// Multi-index space
// ============================================================

// A multi-index is a tuple of n non-negative integers; its degree is the sum
// of its components. The space for (n, m) enumerates every multi-index of
// degree <= m in graded lexicographic order: degree blocks come first, and
// within a block tuples are ordered by descending leading components. The
// enumeration is the storage layout of every Series coefficient slice, so it
// must be deterministic.

type convPair struct{ a, b int }

type indexSpace struct {
	n, m    int
	indices [][]int        // slot -> multi-index
	slots   map[string]int // encoded multi-index -> slot
	deg     []int          // slot -> total degree
	degOff  []int          // degOff[d] = first slot of degree d; len m+2
	conv    [][]convPair   // conv[out] = all slot pairs (a,b) with index(a)+index(b) = index(out)
}

var (
	spaceMu  sync.Mutex
	spaceReg = map[[2]int]*indexSpace{}
)

// spaceFor returns the (cached) index space for n variables truncated at
// total degree m. Spaces are immutable after construction.
func spaceFor(n, m int) *indexSpace {
	spaceMu.Lock()
	defer spaceMu.Unlock()
	key := [2]int{n, m}
	if s, ok := spaceReg[key]; ok {
		return s
	}
	s := newIndexSpace(n, m)
	spaceReg[key] = s
	return s
}

func newIndexSpace(n, m int) *indexSpace {
	s := &indexSpace{
		n:      n,
		m:      m,
		slots:  map[string]int{},
		degOff: make([]int, m+2),
	}
	s.indices = make([][]int, 0, s.count())
	s.deg = make([]int, 0, s.count())
	for d := 0; d <= m; d++ {
		s.degOff[d] = len(s.indices)
		appendCompositions(&s.indices, d, n, nil)
		for len(s.deg) < len(s.indices) {
			s.deg = append(s.deg, d)
		}
	}
	s.degOff[m+1] = len(s.indices)
	for i, k := range s.indices {
		s.slots[encodeIndex(k)] = i
	}
	s.buildConv()
	return s
}

// appendCompositions appends, in order, every n-tuple with component sum d,
// leading components descending.
func appendCompositions(out *[][]int, d, n int, prefix []int) {
	if n == 1 {
		k := make([]int, len(prefix)+1)
		copy(k, prefix)
		k[len(prefix)] = d
		*out = append(*out, k)
		return
	}
	for first := d; first >= 0; first-- {
		appendCompositions(out, d-first, n-1, append(prefix, first))
	}
}

// buildConv precomputes the truncated convolution table: every ordered slot
// pair whose degrees sum to at most m, grouped by the slot of the summed
// multi-index. Pairs beyond the truncation degree are never formed.
func (s *indexSpace) buildConv() {
	s.conv = make([][]convPair, len(s.indices))
	sum := make([]int, s.n)
	for a, ka := range s.indices {
		for b, kb := range s.indices {
			if s.deg[a]+s.deg[b] > s.m {
				continue
			}
			for i := range sum {
				sum[i] = ka[i] + kb[i]
			}
			out := s.slots[encodeIndex(sum)]
			s.conv[out] = append(s.conv[out], convPair{a, b})
		}
	}
}

func encodeIndex(k []int) string {
	buf := make([]byte, len(k))
	for i, v := range k {
		buf[i] = byte(v)
	}
	return string(buf)
}

// count is the number of valid multi-indices: C(n+m, n).
func (s *indexSpace) count() int { return combin.Binomial(s.n+s.m, s.n) }

// slotOf maps a multi-index to its dense slot. The second result is false
// when k has the wrong length, a negative component, or degree > m.
func (s *indexSpace) slotOf(k []int) (int, bool) {
	if len(k) != s.n {
		return 0, false
	}
	d := 0
	for _, v := range k {
		if v < 0 {
			return 0, false
		}
		d += v
	}
	if d > s.m {
		return 0, false
	}
	slot, ok := s.slots[encodeIndex(k)]
	return slot, ok
}

// indexOf returns a copy of the multi-index stored at slot.
func (s *indexSpace) indexOf(slot int) []int {
	k := make([]int, s.n)
	copy(k, s.indices[slot])
	return k
}
