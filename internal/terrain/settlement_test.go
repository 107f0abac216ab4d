package terrain

import (
	"testing"

	"worldmap-server/internal/pointcloud"
)

// line places points along y=500 at the given data x offsets. With anchored
// points and an 1100x1100 viewport, one data unit is one pixel and the
// settlement radius is 22 pixels.
func line(xs ...float64) []pointcloud.Point {
	pts := make([]pointcloud.Point, len(xs))
	for i, x := range xs {
		pts[i] = pointcloud.Point{ID: int64(100 + i), X: 500 + x, Y: 500}
	}
	return pts
}

func TestDetectSettlementsMinimumSize(t *testing.T) {
	e := NewEngine(DefaultPadding, 0, 0)
	got := e.DetectSettlements(anchored(line(0, 5)...), 1100, 1100)
	if len(got) != 0 {
		t.Errorf("two close points formed %d settlements", len(got))
	}
	got = e.DetectSettlements(anchored(line(0, 5, 10)...), 1100, 1100)
	if len(got) != 1 || got[0].Size != 3 || got[0].Type != SettlementVillage {
		t.Fatalf("settlements = %+v, want one village of 3", got)
	}
	if got[0].X != 555 || got[0].Y != 550 {
		t.Errorf("centroid = (%v, %v), want (555, 550)", got[0].X, got[0].Y)
	}
}

func TestSettlementTypeThresholds(t *testing.T) {
	tests := []struct {
		size int
		want SettlementType
	}{
		{3, SettlementVillage},
		{7, SettlementVillage},
		{8, SettlementTown},
		{15, SettlementCity},
		{29, SettlementCity},
		{30, SettlementMetropolis},
	}
	for _, tt := range tests {
		if got := settlementType(tt.size); got != tt.want {
			t.Errorf("settlementType(%d) = %s, want %s", tt.size, got, tt.want)
		}
	}
}

func TestDetectSettlementsIsOrderDependent(t *testing.T) {
	e := NewEngine(DefaultPadding, 0, 0)

	// A consumes B but is too small; C consumes D and is too small as well.
	forward := anchored(line(0, 15, 30, 45)...)
	if got := e.DetectSettlements(forward, 1100, 1100); len(got) != 0 {
		t.Errorf("forward order: %d settlements, want 0", len(got))
	}

	// B first absorbs both A and C.
	pts := line(0, 15, 30, 45)
	pts[0], pts[1] = pts[1], pts[0]
	got := e.DetectSettlements(anchored(pts...), 1100, 1100)
	if len(got) != 1 || got[0].Size != 3 {
		t.Errorf("B-first order: %+v, want one settlement of 3", got)
	}
}

func TestDetectSettlementsCappedAndSorted(t *testing.T) {
	e := NewEngine(DefaultPadding, 0, 0)
	var pts []pointcloud.Point
	id := int64(1)
	for g := 0; g < 60; g++ {
		cx := float64(50 + (g%10)*90)
		cy := float64(50 + (g/10)*90)
		size := 3 + g%5
		for k := 0; k < size; k++ {
			pts = append(pts, pointcloud.Point{ID: id, X: cx + float64(k), Y: cy})
			id++
		}
	}
	got := e.DetectSettlements(anchored(pts...), 1100, 1100)
	if len(got) != MaxSettlements {
		t.Fatalf("len = %d, want %d", len(got), MaxSettlements)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Size > got[i-1].Size {
			t.Fatalf("not sorted at %d: %d > %d", i, got[i].Size, got[i-1].Size)
		}
	}
	for _, s := range got {
		if s.Size < 3 {
			t.Errorf("settlement of size %d", s.Size)
		}
	}
	if got[0].Size != 7 {
		t.Errorf("largest = %d, want 7", got[0].Size)
	}
}

func TestSurfaceTiers(t *testing.T) {
	r := Resolve(nil)
	tests := []struct {
		d    float64
		want SurfaceTier
	}{
		{0, TierNone},
		{0.0999, TierNone},
		{0.1, TierHouse},
		{0.3, TierVillage},
		{0.6, TierCity},
		{1, TierCity},
	}
	for _, tt := range tests {
		if got := r.SurfaceTier(tt.d); got != tt.want {
			t.Errorf("SurfaceTier(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}

	grid := &DensityGrid{Cols: 2, Rows: 1, CellSize: 1, Values: []float64{0.05, 0.7}}
	tiers := ClassifySurface(grid, r)
	if len(tiers) != 2 || tiers[0] != TierNone || tiers[1] != TierCity {
		t.Errorf("ClassifySurface = %v", tiers)
	}
}

func TestDensityPeaks(t *testing.T) {
	values := make([]float64, 20*20)
	values[5*20+5] = 1
	values[5*20+7] = 0.9
	values[15*20+15] = 0.8
	grid := &DensityGrid{Cols: 20, Rows: 20, CellSize: 2, Values: values}

	peaks := DensityPeaks(grid, 0.5)
	if len(peaks) != 2 {
		t.Fatalf("peaks = %+v, want 2", peaks)
	}
	if peaks[0].Density != 1 || peaks[0].X != 11 || peaks[0].Y != 11 {
		t.Errorf("first peak = %+v", peaks[0])
	}
	if peaks[1].Density != 0.8 {
		t.Errorf("second peak = %+v, want the distant 0.8 peak", peaks[1])
	}
}

func TestShadow(t *testing.T) {
	grid := &DensityGrid{Cols: 2, Rows: 2, CellSize: 1, Values: []float64{1, 0, 0, 0}}
	if got := Shadow(grid, 0, 0); got < 0.99 {
		t.Errorf("Shadow(falling slope) = %v, want ~1", got)
	}
	grid.Values = []float64{0, 1, 1, 0}
	if got := Shadow(grid, 0, 0); got > 0.01 {
		t.Errorf("Shadow(rising slope) = %v, want ~0", got)
	}
	grid.Values = []float64{0.5, 0.5, 0.5, 0.5}
	if got := Shadow(grid, 0, 0); got != 0 {
		t.Errorf("Shadow(flat) = %v, want 0", got)
	}
	if got := Shadow(grid, 1, 0); got != 0 {
		t.Errorf("last row Shadow = %v, want 0", got)
	}
}
