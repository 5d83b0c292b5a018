package node

import (
	"math"
	"testing"
)

func TestNewArenaLeafDefaults(t *testing.T) {
	a := NewArena(4)
	if a.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", a.Size())
	}
	for i := 0; i < 4; i++ {
		if a.Flag[i] {
			t.Errorf("leaf %d: Flag = true, want false", i)
		}
		if a.PLeft[i] != NoParent || a.PRight[i] != NoParent {
			t.Errorf("leaf %d: expected NoParent children", i)
		}
	}
	for i := 4; i < 7; i++ {
		if !a.Flag[i] {
			t.Errorf("internal slot %d: Flag = false, want true (unpopulated)", i)
		}
	}
}

func TestArenaMerge(t *testing.T) {
	a := NewArena(3)
	a.NK[0], a.NK[1] = 1, 1
	a.Merge(3, 0, 1)
	if a.NK[3] != 2 {
		t.Errorf("NK[3] = %f, want 2", a.NK[3])
	}
	if !a.Flag[0] || !a.Flag[1] {
		t.Error("expected both children consumed")
	}
	if a.PLeft[3] != 0 || a.PRight[3] != 1 {
		t.Errorf("PLeft/PRight = %d/%d, want 0/1", a.PLeft[3], a.PRight[3])
	}
}

func TestPairTableRoundTrip(t *testing.T) {
	pt := NewPairTable(5)
	pt.Set(0, 4, 1.5, 0.5)
	pt.Set(1, 2, -3.0, -1.0)
	if got := pt.Wt(0, 4); got != 1.0 {
		t.Errorf("Wt(0,4) = %f, want 1.0", got)
	}
	if got := pt.Wt(1, 2); got != -2.0 {
		t.Errorf("Wt(1,2) = %f, want -2.0", got)
	}
	if got := pt.Num1(0, 4); got != 1.5 {
		t.Errorf("Num1(0,4) = %f, want 1.5", got)
	}
	if got := pt.Num2(1, 2); got != -1.0 {
		t.Errorf("Num2(1,2) = %f, want -1.0", got)
	}
}

func TestPairTableIndexNoCollision(t *testing.T) {
	const m = 9
	pt := NewPairTable(m)
	seen := make(map[int]bool)
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			idx := pt.index(i, j)
			if seen[idx] {
				t.Fatalf("collision at (%d,%d) -> %d", i, j, idx)
			}
			seen[idx] = true
		}
	}
	wantSize := m * (m - 1) / 2
	if len(seen) != wantSize {
		t.Errorf("got %d distinct indices, want %d", len(seen), wantSize)
	}
}

func TestLogSumExpMatchesNaive(t *testing.T) {
	cases := [][2]float64{{-10, -20}, {0, 0}, {-50, -50}, {40, -40}, {-1, -2}}
	for _, c := range cases {
		a, b := c[0], c[1]
		got := LogSumExp(a, b)
		want := math.Log(math.Exp(a) + math.Exp(b))
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("LogSumExp(%f,%f) = %f, want %f", a, b, got, want)
		}
	}
}

func TestLogSumExpBothNegInf(t *testing.T) {
	got := LogSumExp(math.Inf(-1), math.Inf(-1))
	if !math.IsInf(got, -1) {
		t.Errorf("LogSumExp(-Inf,-Inf) = %f, want -Inf", got)
	}
}
