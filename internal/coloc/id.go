package coloc

import (
	"strconv"
	"strings"
)

// ID is a nullable particle identifier. The zero value is the absent ID,
// meaning no particle from that channel covers the location.
type ID struct {
	Value int
	Valid bool
}

// NewID returns a present particle identifier.
func NewID(v int) ID { return ID{Value: v, Valid: true} }

// Absent is the null identifier used for channels with no footprint at a
// location. It is a concrete value: two absent IDs compare equal and group
// together.
var Absent = ID{}

func (id ID) String() string {
	if !id.Valid {
		return ""
	}
	return strconv.Itoa(id.Value)
}

// Less orders IDs ascending by value with absent IDs sorting last.
func (id ID) Less(other ID) bool {
	if id.Valid != other.Valid {
		return id.Valid
	}
	if !id.Valid {
		return false
	}
	return id.Value < other.Value
}

// Tuple is the ordered list of per-channel identifiers for one
// correspondence row. Index i holds the ID reported by channel i.
type Tuple []ID

// Equal reports whether two tuples have the same length and elements.
// Absent entries are compared as values, not wildcards.
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare orders tuples lexicographically, absent entries last within each
// position. Returns -1, 0 or 1.
func (t Tuple) Compare(other Tuple) int {
	n := len(t)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if t[i] == other[i] {
			continue
		}
		if t[i].Less(other[i]) {
			return -1
		}
		return 1
	}
	switch {
	case len(t) < len(other):
		return -1
	case len(t) > len(other):
		return 1
	}
	return 0
}

// Key returns a string form of the tuple usable as a map key. Absent
// entries are encoded as "-" so they group as a distinct value.
func (t Tuple) Key() string {
	var b strings.Builder
	for i, id := range t {
		if i > 0 {
			b.WriteByte(',')
		}
		if !id.Valid {
			b.WriteByte('-')
			continue
		}
		b.WriteString(strconv.Itoa(id.Value))
	}
	return b.String()
}

// HasAbsent reports whether any entry in the tuple is absent.
func (t Tuple) HasAbsent() bool {
	for _, id := range t {
		if !id.Valid {
			return true
		}
	}
	return false
}

func (t Tuple) clone() Tuple {
	out := make(Tuple, len(t))
	copy(out, t)
	return out
}
