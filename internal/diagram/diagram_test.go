package diagram

import (
	"encoding/json"
	"strings"
	"testing"

	"edgepath/internal/route"
	"edgepath/internal/vector"
)

// sample mirrors the starter layout: four 100x40 nodes on a 250x150 grid.
func sample() *Document {
	return &Document{
		Name: "sample",
		Nodes: []Node{
			{ID: "1", X: 0, Y: 0, Width: 100, Height: 40},
			{ID: "2", X: 250, Y: 0, Width: 100, Height: 40},
			{ID: "3", X: 0, Y: 150, Width: 100, Height: 40},
			{ID: "4", X: 250, Y: 150, Width: 100, Height: 40},
		},
		Edges: []Edge{
			{ID: "e1", Source: "1", Target: "4", Algorithm: route.Linear, Kind: KindYes},
			{ID: "e2", Source: "3", Target: "2"},
		},
	}
}

func TestResolveAnchor(t *testing.T) {
	d := sample()
	a, err := d.ResolveAnchor("2", vector.SideLeft)
	if err != nil {
		t.Fatalf("ResolveAnchor: %v", err)
	}
	if a.Pt != (vector.Pt{X: 250, Y: 20}) || !a.Snapped() || a.Side != vector.SideLeft {
		t.Fatalf("unexpected anchor %+v", a)
	}
	if _, err := d.ResolveAnchor("9", vector.SideLeft); err == nil {
		t.Fatalf("expected error for unknown node")
	}
}

func TestRouteUsesDefaultHandles(t *testing.T) {
	d := sample()
	r, err := d.Route(d.Edges[0], route.Options{})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	pts := r.Points()
	want := []vector.Pt{{X: 100, Y: 20}, {X: 175, Y: 20}, {X: 175, Y: 170}, {X: 250, Y: 170}}
	if len(pts) != len(want) {
		t.Fatalf("unexpected route %+v", pts)
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Fatalf("point %d: want %+v got %+v", i, want[i], pts[i])
		}
	}
}

func TestEdgeColor(t *testing.T) {
	d := sample()
	if d.Edges[0].Color().Hex() != "#38a169" {
		t.Fatalf("kind color should win, got %s", d.Edges[0].Color().Hex())
	}
	if d.Edges[1].Color() != route.DefaultAlgorithm.Color() {
		t.Fatalf("edge without kind should use the algorithm color")
	}
}

func TestValidate(t *testing.T) {
	if err := sample().Validate(); err != nil {
		t.Fatalf("sample should be valid: %v", err)
	}
	d := sample()
	d.Nodes = append(d.Nodes, Node{ID: "1"})
	d.Edges = append(d.Edges, Edge{ID: "e1", Source: "1", Target: "x", Algorithm: "zigzag", Kind: "maybe",
		Waypoints: []route.Waypoint{{ID: "a"}, {ID: "a"}}})
	err := d.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, frag := range []string{"duplicate node id", "duplicate edge id", "unknown target", "unknown algorithm", "unknown kind", "duplicated"} {
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("missing %q in %v", frag, err)
		}
	}
}

func TestBoundsCoversNodesAndEdges(t *testing.T) {
	d := sample()
	b := d.Bounds(route.Options{})
	if b.X != 0 || b.Y != 0 || b.W != 350 || b.H != 190 {
		t.Fatalf("unexpected bounds %+v", b)
	}
}

func TestDocumentJSONSides(t *testing.T) {
	d := sample()
	d.Edges[1].SourceHandle = vector.SideBottom
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"sourceHandle":"bottom"`) {
		t.Fatalf("sides should serialize by name: %s", b)
	}
	var got Document
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e, ok := got.EdgeByID("e2"); !ok || e.SourceHandle != vector.SideBottom {
		t.Fatalf("unexpected edge %+v", e)
	}
}
