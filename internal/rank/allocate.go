package rank

import (
	"github.com/steveyegge/lineup/internal/types"
)

// Allocate returns a rank between prev and next for the given partition.
// A nil bound means the caller has no neighbour on that side. Allocate never
// fails and performs no I/O.
//
// Known limitations, kept on purpose and covered by tests:
//
//   - When prev and next end in adjacent symbols, prev's trailing symbol is
//     bumped by one (wrapping at the alphabet end) before the midpoint is
//     taken. Two ranks that differ only in their last symbol therefore yield
//     a rank equal to next.
//   - When the first differing symbols are adjacent, the midpoint equals
//     prev's symbol and the tail is zeroed, so the result can be <= prev.
//   - The missing-next sentinel is Max for both partitions, not the
//     Incomplete partition's real upper bound (Floor of Completed).
//   - For Completed allocations the first symbol is forced to Marker after
//     the midpoint is computed. This keeps Completed after Incomplete but can
//     place the result outside (prev, next).
func Allocate(prev, next *Rank, p types.Partition) Rank {
	if prev == nil && next == nil {
		return Default(p)
	}

	lo := Floor(p)
	if prev != nil {
		lo = *prev
	}
	hi := Ceiling(p)
	if next != nil {
		hi = *next
	}

	r := midpoint(lo.Pad(), hi.Pad())
	if p == types.PartitionCompleted {
		r = forceMarker(r)
	}
	return r
}

// midpoint averages lo and hi at their first differing symbol.
func midpoint(lo, hi Rank) Rank {
	a := clean(lo)
	b := clean(hi)

	last := Width - 1
	if d := index(a[last]) - index(b[last]); d == 1 || d == -1 {
		a[last] = Alphabet[(index(a[last])+1)%Base]
	}

	out := make([]byte, Width)
	for i := 0; i < Width; i++ {
		if a[i] == b[i] {
			out[i] = a[i]
			continue
		}
		out[i] = Alphabet[(index(a[i])+index(b[i]))/2]
		for j := i + 1; j < Width; j++ {
			out[j] = Alphabet[0]
		}
		break
	}
	return Rank(out)
}

// clean copies r, replacing symbols outside the alphabet with the minimum.
func clean(r Rank) []byte {
	b := []byte(r)
	for i := range b {
		if index(b[i]) < 0 {
			b[i] = Alphabet[0]
		}
	}
	return b
}

// forceMarker overwrites the first symbol with Marker.
func forceMarker(r Rank) Rank {
	if len(r) == 0 || r[0] == Marker {
		return r
	}
	b := []byte(r)
	b[0] = Marker
	return Rank(b)
}
