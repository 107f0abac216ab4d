package landmass

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"worldmap-server/internal/pointcloud"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// blobSet is a 10x10 lattice with spacing 0.2 plus one far point, grouped
// into one high and one detailed cluster.
func blobSet() *pointcloud.Set {
	set := &pointcloud.Set{}
	var ids []int64
	for i := 0; i < 100; i++ {
		id := int64(i + 1)
		set.Points = append(set.Points, pointcloud.Point{
			ID: id,
			X:  float64(i%10) * 0.2,
			Y:  float64(i/10) * 0.2,
		})
		ids = append(ids, id)
	}
	set.Points = append(set.Points, pointcloud.Point{ID: 101, X: 12, Y: 12})
	ids = append(ids, 101)

	set.Clusters = []pointcloud.Cluster{
		{ID: "0", Level: pointcloud.LevelHigh, Members: ids[:100]},
		{ID: "7", Level: pointcloud.LevelDetailed, Members: ids},
	}
	return set
}

func newSynth(t *testing.T, seed int64) *Synthesizer {
	t.Helper()
	s, err := New(DefaultConfig(seed))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGenerateProducesAllLevels(t *testing.T) {
	polys, stats, err := newSynth(t, 42).Generate(context.Background(), blobSet())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if stats.Continents != 1 || stats.Islands == 0 || stats.Atolls == 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := stats.Continents + stats.Islands + stats.Atolls; got != len(polys) {
		t.Errorf("stats count %d, len(polys) %d", got, len(polys))
	}

	for i, p := range polys {
		if i > 0 && polys[i-1].Area < p.Area {
			t.Errorf("polygons not sorted by area at %d", i)
		}
		if len(p.Points) < 3 || p.Area <= 0 {
			t.Errorf("%s is degenerate", p.ID)
		}
		if p.Area != math.Abs(planar.Area(p.Points)) {
			t.Errorf("%s area %v does not match its ring", p.ID, p.Area)
		}
		if p.Cluster == nil || p.Cluster.ID != p.ClusterID {
			t.Errorf("%s cluster reference mismatch", p.ID)
		}
		prefix := map[Level]string{
			LevelContinent: "continent-0",
			LevelIsland:    "island-7-",
			LevelAtoll:     "atoll-7-",
		}[p.Level]
		if !strings.HasPrefix(p.ID, prefix) {
			t.Errorf("id %q does not start with %q", p.ID, prefix)
		}
	}
}

func TestGenerateAssignsIslandsToContainingContinent(t *testing.T) {
	polys, _, err := newSynth(t, 42).Generate(context.Background(), blobSet())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var continent *MapPolygon
	children := 0
	for _, p := range polys {
		if p.Level == LevelContinent {
			continent = p
		}
	}
	if continent == nil {
		t.Fatal("no continent")
	}
	for _, child := range continent.Children {
		children++
		if child.Level != LevelIsland {
			t.Errorf("child %s has level %s", child.ID, child.Level)
		}
		if !planar.RingContains(closed(continent.Points), child.Points[0]) {
			t.Errorf("child %s starts outside its continent", child.ID)
		}
	}
	if children == 0 {
		t.Error("continent has no islands")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, _, err := newSynth(t, 7).Generate(context.Background(), blobSet())
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := newSynth(t, 7).Generate(context.Background(), blobSet())
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("len %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || !reflect.DeepEqual(a[i].Points, b[i].Points) {
			t.Fatalf("polygon %d differs between runs", i)
		}
	}

	c, _, err := newSynth(t, 8).Generate(context.Background(), blobSet())
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a[0].Points, c[0].Points) {
		t.Error("different seeds produced identical outlines")
	}
}

func TestGenerateWorkerCountDoesNotChangeOutput(t *testing.T) {
	cfg := DefaultConfig(3)
	cfg.Workers = 1
	serial, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Workers = 8
	parallel, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	a, _, _ := serial.Generate(context.Background(), blobSet())
	b, _, _ := parallel.Generate(context.Background(), blobSet())
	if !reflect.DeepEqual(ids(a), ids(b)) {
		t.Errorf("ids differ: %v vs %v", ids(a), ids(b))
	}
}

func ids(polys []*MapPolygon) []string {
	out := make([]string, len(polys))
	for i, p := range polys {
		out[i] = p.ID
	}
	return out
}

func TestGenerateEmptySet(t *testing.T) {
	polys, stats, err := newSynth(t, 1).Generate(context.Background(), &pointcloud.Set{})
	if err != nil {
		t.Fatal(err)
	}
	if polys == nil || len(polys) != 0 {
		t.Errorf("polys = %v, want empty non-nil", polys)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGenerateSkipsTinyClusters(t *testing.T) {
	set := &pointcloud.Set{
		Points: []pointcloud.Point{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 1, Y: 1}},
		Clusters: []pointcloud.Cluster{
			{ID: "h", Level: pointcloud.LevelHigh, Members: []int64{1, 2}},
		},
	}
	polys, stats, err := newSynth(t, 1).Generate(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	if len(polys) != 0 || stats.Skipped != 1 {
		t.Errorf("polys = %d, stats = %+v", len(polys), stats)
	}
}

func TestIslandIDsCountSkippedGroups(t *testing.T) {
	// k-means seeds at the first three points: the far point is a group of
	// one and yields no island, but still takes index 0.
	coords := [][2]float64{{100, 100}, {0, 0}, {50, 0}, {0, 1}, {1, 0}, {50, 1}, {51, 0}}
	set := &pointcloud.Set{}
	var ids []int64
	for i, c := range coords {
		set.Points = append(set.Points, pointcloud.Point{ID: int64(i + 1), X: c[0], Y: c[1]})
		ids = append(ids, int64(i+1))
	}
	set.Clusters = []pointcloud.Cluster{{ID: "d", Level: pointcloud.LevelDetailed, Members: ids}}

	polys, _, err := newSynth(t, 1).Generate(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, p := range polys {
		if p.Level == LevelIsland {
			got[p.ID] = true
		}
	}
	want := map[string]bool{"island-d-1": true, "island-d-2": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("island ids = %v, want %v", got, want)
	}
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newSynth(t, 1).Generate(ctx, blobSet())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAtollRing(t *testing.T) {
	s := newSynth(t, 11)
	center := orb.Point{4, -2}
	ring := s.atollRing(center)
	if len(ring) < 16 || len(ring) > 23 {
		t.Errorf("segments = %d, want 16..23", len(ring))
	}
	for _, p := range ring {
		if d := math.Hypot(p[0]-center[0], p[1]-center[1]); d <= 0 || d > 0.65 {
			t.Errorf("vertex %v at distance %v", p, d)
		}
	}
	if !reflect.DeepEqual(ring, s.atollRing(center)) {
		t.Error("atoll ring is not stable")
	}
}

func TestPerturbSkipsZeroLengthEdges(t *testing.T) {
	s := newSynth(t, 5)
	ring := orb.Ring{{0, 0}, {1, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	out := s.perturb(ring, 1)
	// 1-unit edges are cut into 10 samples each; the duplicate vertex and the
	// closing point add nothing.
	if len(out) != 40 {
		t.Errorf("len(out) = %d, want 40", len(out))
	}
}

func TestNewNoise(t *testing.T) {
	for _, kind := range []string{NoiseSimplex, NoisePerlin} {
		a, err := NewNoise(kind, 99)
		if err != nil {
			t.Fatalf("NewNoise(%q): %v", kind, err)
		}
		b, _ := NewNoise(kind, 99)
		if a.Eval2(0.37, 1.9) != b.Eval2(0.37, 1.9) {
			t.Errorf("%s noise is not reproducible", kind)
		}
	}
	if _, err := NewNoise("value", 1); err == nil {
		t.Error("NewNoise accepted an unknown kind")
	}
}

func TestMapPolygonJSONListsChildIDs(t *testing.T) {
	island := &MapPolygon{ID: "island-1-0", Level: LevelIsland}
	continent := &MapPolygon{
		ID:       "continent-1",
		Level:    LevelContinent,
		Points:   orb.Ring{{0, 0}, {1, 0}, {0, 1}},
		Children: []*MapPolygon{island},
	}
	data, err := json.Marshal(continent)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	children, ok := got["children"].([]any)
	if !ok || len(children) != 1 || children[0] != "island-1-0" {
		t.Errorf("children = %v", got["children"])
	}
	if _, ok := got["Cluster"]; ok {
		t.Error("cluster reference leaked into JSON")
	}
}
