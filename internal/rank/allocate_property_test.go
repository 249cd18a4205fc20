package rank

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/steveyegge/lineup/internal/types"
)

// spacedPair draws prev < next whose first differing symbols are at least two
// alphabet positions apart, so a strict midpoint always exists. When
// completed is set both ranks carry the marker; otherwise neither does.
func spacedPair(t *rapid.T, completed bool) (Rank, Rank) {
	minShared := 0
	if completed {
		minShared = 1
	}
	shared := rapid.IntRange(minShared, Width-1).Draw(t, "shared")

	lo := make([]byte, Width)
	hi := make([]byte, Width)
	for i := 0; i < shared; i++ {
		if i == 0 && completed {
			lo[i], hi[i] = Marker, Marker
			continue
		}
		top := Base - 1
		if i == 0 {
			top = Base - 2 // keep the marker out of incomplete ranks
		}
		c := Alphabet[rapid.IntRange(0, top).Draw(t, "prefix")]
		lo[i], hi[i] = c, c
	}

	ceiling := Base - 1
	if shared == 0 {
		ceiling = Base - 2
	}
	a := rapid.IntRange(0, ceiling-2).Draw(t, "lo")
	b := rapid.IntRange(a+2, ceiling).Draw(t, "hi")
	lo[shared], hi[shared] = Alphabet[a], Alphabet[b]

	for i := shared + 1; i < Width; i++ {
		lo[i] = Alphabet[rapid.IntRange(0, Base-1).Draw(t, "loTail")]
		hi[i] = Alphabet[rapid.IntRange(0, Base-1).Draw(t, "hiTail")]
	}
	return Rank(lo), Rank(hi)
}

func TestAllocateStrictlyBetweenProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		completed := rapid.Bool().Draw(t, "completed")
		p := types.PartitionIncomplete
		if completed {
			p = types.PartitionCompleted
		}
		prev, next := spacedPair(t, completed)

		r := Allocate(&prev, &next, p)

		if !r.Valid() {
			t.Fatalf("Allocate(%s, %s) = %q is not a valid rank", prev, next, r)
		}
		if !prev.Less(r) || !r.Less(next) {
			t.Fatalf("Allocate(%s, %s, %s) = %s, want strictly between", prev, next, p, r)
		}
		if r.Partition() != p {
			t.Fatalf("Allocate(%s, %s, %s) = %s encodes partition %s", prev, next, p, r, r.Partition())
		}
	})
}

func TestAllocateCompletedAlwaysMarkedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var prev, next *Rank
		if rapid.Bool().Draw(t, "hasPrev") {
			r := Rank(rapid.StringMatching(`[0-9A-Z]{10}`).Draw(t, "prev"))
			prev = &r
		}
		if rapid.Bool().Draw(t, "hasNext") {
			r := Rank(rapid.StringMatching(`[0-9A-Z]{10}`).Draw(t, "next"))
			next = &r
		}

		r := Allocate(prev, next, types.PartitionCompleted)
		if r[0] != Marker {
			t.Fatalf("completed allocation %q lacks the marker", r)
		}
		if again := Allocate(prev, next, types.PartitionCompleted); again != r {
			t.Fatalf("Allocate is not deterministic: %q then %q", r, again)
		}
	})
}

func TestAllocateIncompleteNeverMarkedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var prev, next *Rank
		if rapid.Bool().Draw(t, "hasPrev") {
			r := Rank(rapid.StringMatching(`[0-9A-Y][0-9A-Z]{9}`).Draw(t, "prev"))
			prev = &r
		}
		if rapid.Bool().Draw(t, "hasNext") {
			r := Rank(rapid.StringMatching(`[0-9A-Y][0-9A-Z]{9}`).Draw(t, "next"))
			next = &r
		}

		r := Allocate(prev, next, types.PartitionIncomplete)
		if r[0] == Marker {
			t.Fatalf("Allocate(%v, %v) = %q carries the completed marker", prev, next, r)
		}
	})
}
