package wellness

import (
	"errors"
	"testing"
)

func TestExpandRangeInclusive(t *testing.T) {
	days, err := ExpandRange("2024-03-01", "2024-03-03")
	if err != nil {
		t.Fatalf("error inesperado: %v", err)
	}
	want := []string{"2024-03-01", "2024-03-02", "2024-03-03"}
	if len(days) != len(want) {
		t.Fatalf("días = %v, esperaba %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("días[%d] = %q, esperaba %q", i, days[i], want[i])
		}
	}
}

func TestExpandRangeSingleDay(t *testing.T) {
	days, err := ExpandRange("2024-03-01", "2024-03-01")
	if err != nil {
		t.Fatalf("error inesperado: %v", err)
	}
	if len(days) != 1 || days[0] != "2024-03-01" {
		t.Fatalf("días = %v, esperaba solo 2024-03-01", days)
	}
}

func TestExpandRangeInverted(t *testing.T) {
	_, err := ExpandRange("2024-03-05", "2024-03-01")
	var ire *InvalidRangeError
	if !errors.As(err, &ire) {
		t.Fatalf("esperaba InvalidRangeError, obtuve %v", err)
	}
}

func TestExpandRangeMalformed(t *testing.T) {
	for _, tc := range []struct{ start, end string }{
		{"03-01-2024", "2024-03-05"},
		{"2024-03-01", "no-es-fecha"},
		{"", "2024-03-05"},
	} {
		_, err := ExpandRange(tc.start, tc.end)
		var ire *InvalidRangeError
		if !errors.As(err, &ire) {
			t.Fatalf("ExpandRange(%q, %q): esperaba InvalidRangeError, obtuve %v", tc.start, tc.end, err)
		}
	}
}

func TestExpandRangeCrossesMonth(t *testing.T) {
	days, err := ExpandRange("2024-02-28", "2024-03-01")
	if err != nil {
		t.Fatalf("error inesperado: %v", err)
	}
	// 2024 es bisiesto
	want := []string{"2024-02-28", "2024-02-29", "2024-03-01"}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("días = %v, esperaba %v", days, want)
		}
	}
}
