package interval

import (
	"testing"
	"time"
)

func TestNextIntervalForgotten(t *testing.T) {
	for current := 1; current <= 365; current++ {
		if got := NextInterval(current, false); got != 1 {
			t.Fatalf("Expected interval %d to reset to 1, but got %d", current, got)
		}
	}
}

func TestNextIntervalRemembered(t *testing.T) {
	testCases := []struct {
		current  int
		expected int
	}{
		{current: 1, expected: 2},
		{current: 2, expected: 4},
		{current: 90, expected: 180},
		{current: 182, expected: 364},
		{current: 183, expected: 365},
		{current: 200, expected: 365},
		{current: 365, expected: 365},
	}

	for _, tc := range testCases {
		if got := NextInterval(tc.current, true); got != tc.expected {
			t.Errorf("NextInterval(%d, true): expected %d, but got %d", tc.current, tc.expected, got)
		}
	}

	for current := 1; current <= 365; current++ {
		want := min(current*2, 365)
		if got := NextInterval(current, true); got != want {
			t.Fatalf("NextInterval(%d, true): expected %d, but got %d", current, want, got)
		}
	}
}

func TestNextIntervalOutOfRangeInput(t *testing.T) {
	if got := NextInterval(0, true); got != 1 {
		t.Errorf("Expected a zero interval to clamp to 1, but got %d", got)
	}
	if got := NextInterval(1000, true); got != 365 {
		t.Errorf("Expected a huge interval to clamp to 365, but got %d", got)
	}
}

func TestComputeDueAt(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)

	due := ComputeDueAt(now, 1)
	if diff := due.UnixMilli() - now.UnixMilli(); diff != 86_400_000 {
		t.Errorf("Expected due date one day ahead (86400000ms), but got %dms", diff)
	}

	due = ComputeDueAt(now, 365)
	if diff := due.UnixMilli() - now.UnixMilli(); diff != 365*86_400_000 {
		t.Errorf("Expected due date a year ahead, but got %dms", diff)
	}
}
