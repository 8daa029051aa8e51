package canvasrenderer

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度。
func TestPtMmRoundTrip(t *testing.T) {
	for _, pt := range []float64{0, 0.001, 1, 12, 14.4, 72, 1000} {
		back := pt * PtToMm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%g back=%g", pt, back)
		}
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		mm   float64
		unit Unit
	}{
		{"0.2", 0.2, UnitMM},
		{"0.2mm", 0.2, UnitMM},
		{" 1 CM ", 10, UnitCM},
		{"1in", 25.4, UnitIN},
		{"12pt", 12 * PtToMm, UnitPT},
		{"2px", 2, UnitPX},
	}
	for _, tt := range tests {
		l, err := ParseLength(tt.in)
		if err != nil {
			t.Fatalf("ParseLength(%q): %v", tt.in, err)
		}
		if l.Unit != tt.unit || math.Abs(l.ToMM()-tt.mm) > 1e-9 {
			t.Fatalf("ParseLength(%q) = %+v (%gmm), want %gmm", tt.in, l, l.ToMM(), tt.mm)
		}
	}
	for _, bad := range []string{"", "pt", "abc", "-1mm"} {
		if _, err := ParseLength(bad); err == nil {
			t.Fatalf("ParseLength(%q): expected error", bad)
		}
	}
	if s := (Length{Value: 0.5, Unit: UnitPT}).String(); s != "0.5pt" {
		t.Fatalf("String() = %q", s)
	}
}
