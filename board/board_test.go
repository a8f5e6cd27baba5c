package board

import (
	"errors"
	"math/rand"
	"testing"
)

func TestFromRows(t *testing.T) {
	b, err := FromRows(
		"00X00",
		"00X00",
		"00000",
		"0X00T",
		"00000",
	)
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}

	if b.Size() != 5 {
		t.Errorf("Expected size 5, got %d", b.Size())
	}
	if b.Tunnel() != (Cell{3, 4}) {
		t.Errorf("Expected tunnel at (3,4), got %v", b.Tunnel())
	}
	if b.Count(Obstacle) != 3 {
		t.Errorf("Expected 3 obstacles, got %d", b.Count(Obstacle))
	}
	if b.At(Cell{0, 2}) != Obstacle {
		t.Errorf("Expected obstacle at (0,2)")
	}
	if b.At(Cell{-1, 0}) != Obstacle {
		t.Errorf("Out-of-bounds cells should read as obstacles")
	}
	if got := b.Symbols()[3][4]; got != "T" {
		t.Errorf("Expected tunnel symbol, got %q", got)
	}
}

func TestFromRows_Malformed(t *testing.T) {
	cases := map[string][]string{
		"no tunnel":   {"00", "00"},
		"two tunnels": {"T0", "0T"},
		"ragged":      {"T00", "00", "000"},
		"bad symbol":  {"T?", "00"},
	}
	for name, rows := range cases {
		if _, err := FromRows(rows...); !errors.Is(err, ErrBadLayout) {
			t.Errorf("%s: expected ErrBadLayout, got %v", name, err)
		}
	}
}

func TestConnected(t *testing.T) {
	open, _ := FromRows(
		"000",
		"0X0",
		"00T",
	)
	if !open.Connected() {
		t.Error("Ring around a single obstacle should be connected")
	}

	split, _ := FromRows(
		"0X0",
		"0X0",
		"0XT",
	)
	if split.Connected() {
		t.Error("A full obstacle column should disconnect the board")
	}

	isolated, err := FromRows("TX", "X0")
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	if isolated.Connected() {
		t.Error("Diagonal-only contact must not count as connected")
	}
}

func TestAdjacent(t *testing.T) {
	origin := Cell{1, 1}
	for _, n := range origin.Neighbors() {
		if !Adjacent(origin, n) {
			t.Errorf("Expected %v adjacent to %v", n, origin)
		}
	}
	for _, c := range []Cell{{1, 1}, {2, 2}, {1, 3}, {3, 1}, {0, 0}} {
		if Adjacent(origin, c) {
			t.Errorf("Expected %v not adjacent to %v", c, origin)
		}
	}
}

func TestGenerator_Properties(t *testing.T) {
	g, err := NewGenerator(5, 5, 10000, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	wardenFirst := 0
	for i := 0; i < 500; i++ {
		layout, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate failed on iteration %d: %v", i, err)
		}
		b := layout.Board

		if b.Count(Tunnel) != 1 {
			t.Fatalf("Expected exactly one tunnel, got %d", b.Count(Tunnel))
		}
		if b.Count(Obstacle) != 5 {
			t.Fatalf("Expected 5 obstacles, got %d", b.Count(Obstacle))
		}
		if !b.Connected() {
			t.Fatalf("Generated board is not connected:\n%v", b.Symbols())
		}
		if layout.Warden == layout.Prisoner {
			t.Fatalf("Pieces share a starting cell %v", layout.Warden)
		}
		for _, start := range []Cell{layout.Warden, layout.Prisoner} {
			if b.At(start) != Free {
				t.Fatalf("Piece starts on %v terrain at %v", b.At(start), start)
			}
		}
		if layout.Attempts < 1 {
			t.Fatalf("Expected at least one attempt, got %d", layout.Attempts)
		}
		if layout.WardenFirst {
			wardenFirst++
		}
	}

	if wardenFirst == 0 || wardenFirst == 500 {
		t.Errorf("First mover never varied across 500 layouts (%d warden-first)", wardenFirst)
	}
}

func TestNewGenerator_Invalid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := [][3]int{
		{1, 0, 10},
		{5, -1, 10},
		{5, 23, 10},
		{5, 5, 0},
	}
	for _, c := range cases {
		if _, err := NewGenerator(c[0], c[1], c[2], rng); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewGenerator(%v): expected ErrInvalidSize, got %v", c, err)
		}
	}
}

func TestFirstConnected_Exhausted(t *testing.T) {
	split, _ := FromRows(
		"0X0",
		"0X0",
		"0XT",
	)
	calls := 0
	_, attempts, err := firstConnected(25, func() *Board {
		calls++
		return split
	})

	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Expected ErrUnreachable, got %v", err)
	}
	if calls != 25 || attempts != 25 {
		t.Errorf("Expected 25 attempts, got calls=%d attempts=%d", calls, attempts)
	}
}

func TestFirstConnected_RetriesUntilValid(t *testing.T) {
	split, _ := FromRows("0X0", "0X0", "0XT")
	open, _ := FromRows("000", "0X0", "00T")

	calls := 0
	b, attempts, err := firstConnected(10, func() *Board {
		calls++
		if calls < 4 {
			return split
		}
		return open
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if b != open || attempts != 4 {
		t.Errorf("Expected the fourth candidate, got attempts=%d", attempts)
	}
}

func TestPlace_AvoidsTunnelAndObstacles(t *testing.T) {
	g, _ := NewGenerator(3, 1, 10, rand.New(rand.NewSource(3)))
	b, _ := FromRows(
		"T00",
		"0X0",
		"000",
	)
	for i := 0; i < 100; i++ {
		layout := g.Place(b)
		if layout.Board != b {
			t.Fatal("Place must keep the given board")
		}
		if layout.Warden == layout.Prisoner {
			t.Fatal("Place returned overlapping pieces")
		}
		if b.At(layout.Warden) != Free || b.At(layout.Prisoner) != Free {
			t.Fatalf("Place used a non-free cell: %v %v", layout.Warden, layout.Prisoner)
		}
	}
}
