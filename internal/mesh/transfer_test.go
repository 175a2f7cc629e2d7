package mesh

import (
	"reflect"
	"strings"
	"testing"

	"github.com/chriscorrea/kwcanon/internal/graph"
)

const annotatedPapers = `Id,Label,Doi,MESH,MESH_ID
1,Motor learning in the cerebellum,10.1/a,Cerebellum; Humans,D002531; D006801
2,Dopamine and reward,,Dopamine,D004298
3,Dopamine and reward,,Reward,D012201
4,"Sleep, memory and the motor cortex",,Sleep,D012890
5,No descriptors,10.1/e,,
`

func graphNode(id, label string, attrs map[string]string) graph.Node {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return graph.Node{ID: id, Label: label, Attrs: attrs}
}

func TestTransfer(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(annotatedPapers))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	g := &graph.Graph{Nodes: []graph.Node{
		graphNode("a", "A different title", map[string]string{"doi": " 10.1/a "}),
		graphNode("b", "Sleep memory and the  Motor Cortex.", nil),
		graphNode("c", "Dopamine and reward", nil),
		graphNode("d", "Already done", map[string]string{"MESH": "Brain"}),
		graphNode("e", "No descriptors", map[string]string{"doi": "10.1/e"}),
		graphNode("f", "", map[string]string{"title": "Motor learning in the cerebellum"}),
	}}

	values, stats, err := Transfer(g, tbl, "Label")
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	want := map[string]map[string]string{
		"a": {"mesh": "Cerebellum; Humans", "mesh_id": "D002531; D006801"},
		"b": {"mesh": "Sleep", "mesh_id": "D012890"},
		"c": {"mesh": "Reward", "mesh_id": "D012201"},
		"f": {"mesh": "Cerebellum; Humans", "mesh_id": "D002531; D006801"},
	}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("Transfer() values = %v, want %v", values, want)
	}

	if stats.Total != 6 || stats.Annotated != 1 {
		t.Errorf("stats = %+v, want 6 total and 1 annotated", stats)
	}
	wantMatched := map[Match]int{ByDOI: 1, ByTitle: 1, ByNormalizedTitle: 2}
	if !reflect.DeepEqual(stats.Matched, wantMatched) {
		t.Errorf("Matched = %v, want %v", stats.Matched, wantMatched)
	}
	if len(stats.Unmatched) != 1 || stats.Unmatched[0].ID != "e" {
		t.Errorf("Unmatched = %v, want node e", stats.Unmatched)
	}
}

func TestTransfer_MissingColumns(t *testing.T) {
	g := &graph.Graph{Nodes: []graph.Node{graphNode("a", "x", nil)}}

	tbl, _ := ReadTable(strings.NewReader("Id,Label\n1,x\n"))
	if _, _, err := Transfer(g, tbl, "Label"); err == nil {
		t.Error("Transfer() expected error without a MESH column")
	}

	tbl, _ = ReadTable(strings.NewReader("Id,MESH\n1,Brain\n"))
	if _, _, err := Transfer(g, tbl, "Label"); err == nil {
		t.Error("Transfer() expected error without title and DOI columns")
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Sleep, memory and the Motor-Cortex. ", "sleep memory and the motorcortex"},
		{"Motor\tlearning\n(M1)", "motor learning m1"},
		{"Électrophysiologie_2", "électrophysiologie_2"},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
