// Package fracindex implements a fractional-index allocator: a pure
// function that generates a short string lexicographically between two
// existing neighbours, for ordered views (topKWithFractionalIndex) that
// must assign new positions without renumbering their neighbours.
package fracindex

import "errors"

// Alphabet bounds: printable ASCII 0x20 (' ') through 0x7D ('}'),
// reserving 0x7E ('~') as an unused terminator sentinel.
const (
	alphaMin byte = 0x20
	alphaMax byte = 0x7D
	digits        = int(alphaMax-alphaMin) + 1 // 94
)

// ErrOutOfOrder is returned when the caller supplies a >= b.
var ErrOutOfOrder = errors.New("fracindex: lower bound must be strictly less than upper bound")

// ErrInvalidChar is returned when a or b contains a byte outside the
// alphabet.
var ErrInvalidChar = errors.New("fracindex: character outside the fractional-index alphabet")

// Between returns a string strictly between a and b. A nil a means
// "before everything"; a nil b means "after everything". When both are
// non-nil, a must be strictly less than b.
func Between(a, b *string) (string, error) {
	var aDigits, bDigits []int
	if a != nil {
		d, err := decode(*a)
		if err != nil {
			return "", err
		}
		aDigits = d
	}
	if b != nil {
		d, err := decode(*b)
		if err != nil {
			return "", err
		}
		bDigits = d
	}
	if a != nil && b != nil && *a >= *b {
		return "", ErrOutOfOrder
	}
	return encode(between(aDigits, bDigits)), nil
}

// between computes the digit sequence of a value strictly between a and
// b, where an absent head digit means "unconstrained" on that side.
func between(a, b []int) []int {
	const unconstrainedLow = -1
	const unconstrainedHigh = digits

	aHead, aHasHead := unconstrainedLow, false
	if len(a) > 0 {
		aHead, aHasHead = a[0], true
	}
	bHead, bHasHead := unconstrainedHigh, false
	if len(b) > 0 {
		bHead, bHasHead = b[0], true
	}

	// Shared prefix digit: consume it and keep narrowing.
	if aHasHead && bHasHead && aHead == bHead {
		var restA, restB []int
		if len(a) > 1 {
			restA = a[1:]
		}
		if len(b) > 1 {
			restB = b[1:]
		}
		return append([]int{aHead}, between(restA, restB)...)
	}

	// Room for a midpoint digit strictly between the two heads. A final
	// digit equal to the alphabet minimum is never produced: nothing
	// could later be allocated below such a string within its prefix.
	if bHead-aHead > 1 {
		if mid := aHead + (bHead-aHead)/2; mid > 0 {
			return []int{mid}
		}
	}

	// Adjacent (or a unconstrained against a low b head): reuse a's own
	// digit (or the alphabet minimum if a is unconstrained) and recurse to
	// extend the suffix by one character. When a is unconstrained and b
	// starts with the alphabet minimum, that digit is shared with b, so
	// the recursion stays bounded by the rest of b.
	digit := aHead
	if !aHasHead {
		digit = 0
		if bHasHead && bHead == 0 {
			return append([]int{0}, between(nil, b[1:])...)
		}
	}
	var restA []int
	if aHasHead {
		restA = a[1:]
	}
	return append([]int{digit}, between(restA, nil)...)
}

func decode(s string) ([]int, error) {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < alphaMin || c > alphaMax {
			return nil, ErrInvalidChar
		}
		out[i] = int(c - alphaMin)
	}
	return out, nil
}

func encode(ds []int) string {
	out := make([]byte, len(ds))
	for i, d := range ds {
		out[i] = alphaMin + byte(d)
	}
	return string(out)
}
