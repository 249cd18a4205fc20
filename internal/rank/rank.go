// Package rank implements fixed-width fractional ranks used to order items
// without renumbering the collection.
//
// A rank is a string of exactly Width symbols drawn from Alphabet. Because
// every rank has the same width and the alphabet is listed in value order,
// plain byte comparison of two ranks equals numeric comparison of the values
// they encode.
//
// Ranks are split into two partitions. Every Completed rank starts with the
// Marker symbol (the alphabet maximum), so every Completed rank sorts after
// every Incomplete rank.
package rank

import (
	"strings"

	"github.com/steveyegge/lineup/internal/types"
)

// Alphabet lists the rank symbols in ascending value order.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Width is the fixed length of every rank.
const Width = 10

// Base is the number of symbols in Alphabet.
const Base = len(Alphabet)

// Marker tags a rank as Completed when it is the first symbol. It is the
// last symbol of Alphabet.
const Marker byte = 'Z'

// midIndex is the alphabet index used for the default mid-space ranks.
const midIndex = 5

// Rank is a fixed-width order key. The zero value is not a valid rank.
type Rank string

var (
	// Min is the smallest rank.
	Min = Rank(strings.Repeat(string(Alphabet[0]), Width))
	// Max is the largest rank.
	Max = Rank(strings.Repeat(string(Marker), Width))
)

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to
// or after b.
func Compare(a, b Rank) int {
	return strings.Compare(string(a.Pad()), string(b.Pad()))
}

// Less reports whether r sorts strictly before other.
func (r Rank) Less(other Rank) bool {
	return Compare(r, other) < 0
}

// Pad right-pads r with the minimum symbol to Width. Longer ranks are
// truncated to Width.
func (r Rank) Pad() Rank {
	if len(r) >= Width {
		return r[:Width]
	}
	return r + Rank(strings.Repeat(string(Alphabet[0]), Width-len(r)))
}

// Valid reports whether r has the right width and only alphabet symbols.
func (r Rank) Valid() bool {
	if len(r) != Width {
		return false
	}
	for i := 0; i < len(r); i++ {
		if index(r[i]) < 0 {
			return false
		}
	}
	return true
}

// Partition reports which partition the rank's first symbol encodes.
func (r Rank) Partition() types.Partition {
	if len(r) > 0 && r[0] == Marker {
		return types.PartitionCompleted
	}
	return types.PartitionIncomplete
}

func (r Rank) String() string { return string(r) }

// Default returns the fixed mid-space rank used when a partition is empty.
func Default(p types.Partition) Rank {
	mid := string(Alphabet[midIndex]) + strings.Repeat(string(Alphabet[0]), Width-1)
	if p == types.PartitionCompleted {
		return Rank(string(Marker) + mid[:Width-1])
	}
	return Rank(mid)
}

// Floor returns the lower sentinel of a partition.
func Floor(p types.Partition) Rank {
	if p == types.PartitionCompleted {
		return Rank(string(Marker) + strings.Repeat(string(Alphabet[0]), Width-1))
	}
	return Min
}

// Ceiling returns the upper sentinel used when no next rank is known. It is
// Max for both partitions; see Allocate.
func Ceiling(types.Partition) Rank {
	return Max
}

// index returns the alphabet position of c, or -1.
func index(c byte) int {
	return strings.IndexByte(Alphabet, c)
}
