package fracindex

import "testing"

func TestFirstAllocationIsUnconstrained(t *testing.T) {
	s, err := Between(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s == "" {
		t.Fatal("expected a non-empty first allocation")
	}
}

func TestBetweenTwoDistantStrings(t *testing.T) {
	a, b := "b", "d"
	s, err := Between(&a, &b)
	if err != nil {
		t.Fatal(err)
	}
	if !(a < s && s < b) {
		t.Fatalf("expected %q < %q < %q", a, s, b)
	}
}

func TestBetweenAdjacentStringsGrowsLength(t *testing.T) {
	a, b := "a", "b"
	s, err := Between(&a, &b)
	if err != nil {
		t.Fatal(err)
	}
	if !(a < s && s < b) {
		t.Fatalf("expected %q < %q < %q", a, s, b)
	}
	if len(s) <= len(a) {
		t.Fatalf("expected growth past %q, got %q", a, s)
	}
}

func TestBeforeEverything(t *testing.T) {
	b := "m"
	s, err := Between(nil, &b)
	if err != nil {
		t.Fatal(err)
	}
	if !(s < b) {
		t.Fatalf("expected %q < %q", s, b)
	}
}

func TestAfterEverything(t *testing.T) {
	a := "m"
	s, err := Between(&a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !(a < s) {
		t.Fatalf("expected %q < %q", a, s)
	}
}

func TestRepeatedInsertionAtSameGapStaysOrdered(t *testing.T) {
	lo, hi := "a", "z"
	cur := hi
	for i := 0; i < 20; i++ {
		s, err := Between(&lo, &cur)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if !(lo < s && s < cur) {
			t.Fatalf("iteration %d: expected %q < %q < %q", i, lo, s, cur)
		}
		cur = s
	}
}

func TestOutOfOrderIsRejected(t *testing.T) {
	a, b := "z", "a"
	if _, err := Between(&a, &b); err != ErrOutOfOrder {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}
