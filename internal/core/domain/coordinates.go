package domain

import "fmt"

// Coordinate is the identity of a variant record used for validation.
type Coordinate struct {
	Chrom string
	Pos   string
	Ref   string
	Alt   string
}

// Key is a stable text form of the coordinate.
func (c Coordinate) Key() string {
	return c.Chrom + "\t" + c.Pos + "\t" + c.Ref + "\t" + c.Alt
}

// CoordinateDigest is a 128-bit digest of a coordinate Key, built from two
// independently seeded 64-bit hashes. A false match needs both halves to
// collide at once.
type CoordinateDigest struct {
	Hi, Lo uint64
}

// CoordinateSet holds distinct coordinates as digests of Key.
type CoordinateSet map[CoordinateDigest]struct{}

// Add inserts a digest.
func (s CoordinateSet) Add(digest CoordinateDigest) {
	s[digest] = struct{}{}
}

// Diff returns how many digests are only in s and only in other.
func (s CoordinateSet) Diff(other CoordinateSet) (onlyHere, onlyThere int) {
	for k := range s {
		if _, ok := other[k]; !ok {
			onlyHere++
		}
	}
	for k := range other {
		if _, ok := s[k]; !ok {
			onlyThere++
		}
	}
	return onlyHere, onlyThere
}

// Equal reports whether both sets hold the same digests.
func (s CoordinateSet) Equal(other CoordinateSet) bool {
	if len(s) != len(other) {
		return false
	}
	a, b := s.Diff(other)
	return a == 0 && b == 0
}

// String summarises the set for logs.
func (s CoordinateSet) String() string {
	return fmt.Sprintf("%d distinct coordinates", len(s))
}
