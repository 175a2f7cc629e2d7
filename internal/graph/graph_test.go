package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGEXF = `<?xml version="1.0" encoding="UTF-8"?>
<gexf xmlns="http://gexf.net/1.3" xmlns:viz="http://gexf.net/1.3/viz" version="1.3">
  <graph defaultedgetype="undirected">
    <attributes class="node" mode="static">
      <attribute id="0" title="keywords" type="string"/>
      <attribute id="1" title="modularity_class" type="integer"/>
      <attribute id="2" title="MESH" type="string"/>
    </attributes>
    <attributes class="edge" mode="static">
      <attribute id="0" title="weight" type="double"/>
    </attributes>
    <nodes>
      <node id="n1" label="Paper one">
        <attvalues>
          <attvalue for="0" value="Motor Cortex, cerebellum"/>
          <attvalue for="1" value="1"/>
          <attvalue for="2" value="Humans; Motor Cortex"/>
        </attvalues>
        <viz:size value="10.0"/>
      </node>
      <node id="n2" label="Paper two">
        <attvalues>
          <attvalue for="0" value="Unknown keywords"/>
          <attvalue for="1" value="2"/>
        </attvalues>
      </node>
      <node id="n3" label="Paper three"/>
    </nodes>
    <edges>
      <edge id="0" source="n1" target="n2"/>
    </edges>
  </graph>
</gexf>`

func TestRead(t *testing.T) {
	g, err := Read(strings.NewReader(sampleGEXF))
	require.NoError(t, err)

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, []string{"keywords", "modularity_class", "MESH"}, g.Attributes)

	n1 := g.Nodes[0]
	assert.Equal(t, "n1", n1.ID)
	assert.Equal(t, "Paper one", n1.Label)
	assert.Equal(t, "1", n1.Attrs["modularity_class"])

	kw, ok := n1.Keywords()
	assert.True(t, ok)
	assert.Equal(t, "Motor Cortex, cerebellum", kw)

	mesh, ok := n1.Mesh()
	assert.True(t, ok)
	assert.Equal(t, "Humans; Motor Cortex", mesh)

	_, ok = g.Nodes[2].Keywords()
	assert.False(t, ok)
	assert.Empty(t, g.Nodes[2].Attrs)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader(`<gexf><graph><nodes></nodes></graph></gexf>`))
	assert.ErrorIs(t, err, ErrEmptyGraph)

	_, err = Read(strings.NewReader(`<gexf><graph>`))
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.gexf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.gexf")
	require.NoError(t, os.WriteFile(path, []byte(sampleGEXF), 0o644))

	g, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
}

func TestNode_AttrPrecedence(t *testing.T) {
	n := Node{Attrs: map[string]string{"keywords": "  ", "Keywords": "b", "KEYWORDS": "c"}}
	v, ok := n.Keywords()
	assert.True(t, ok)
	assert.Equal(t, "b", v, "blank values are skipped")
}

func TestClusterAttribute(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		attrs   []string
		want    string
		wantErr error
	}{
		{
			name:  "declared candidate",
			attrs: []string{"keywords", "community", "modularity_class"},
			nodes: []Node{{Attrs: map[string]string{"community": "1"}}},
			want:  "modularity_class",
		},
		{
			name:  "candidate only on nodes",
			nodes: []Node{{Attrs: map[string]string{"partition": "4"}}},
			want:  "partition",
		},
		{
			name:  "integer fallback",
			attrs: []string{"keywords", "year", "group"},
			nodes: []Node{
				{Attrs: map[string]string{"keywords": "a", "year": "2020", "group": "3"}},
				{Attrs: map[string]string{"keywords": "b", "year": "x", "group": "4.0"}},
			},
			want: "group",
		},
		{
			name:    "none",
			attrs:   []string{"keywords"},
			nodes:   []Node{{Attrs: map[string]string{"keywords": "a"}}},
			wantErr: ErrNoClusterAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{Nodes: tt.nodes, Attributes: tt.attrs}
			got, err := g.ClusterAttribute()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClusterKey(t *testing.T) {
	assert.Equal(t, "3", ClusterKey("3"))
	assert.Equal(t, "3", ClusterKey(" 3.0 "))
	assert.Equal(t, "-1", ClusterKey("-1"))
	assert.Equal(t, "3.5", ClusterKey("3.5"))
	assert.Equal(t, "alpha", ClusterKey(" alpha "))
}
