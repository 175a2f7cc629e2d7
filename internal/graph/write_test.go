package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAttributes(t *testing.T, src string, values map[string]map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, SetAttributes([]byte(src), &buf, values))
	return buf.String()
}

func TestSetAttributes(t *testing.T) {
	out := setAttributes(t, sampleGEXF, map[string]map[string]string{
		"n1": {"mesh": "Cerebellum", "mesh_id": "D002531"},
		"n2": {"mesh": "Reward; Dopamine & Behavior", "mesh_id": "D012201; D004298"},
		"n3": {"mesh": "Humans"},
	})

	g, err := Read(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"keywords", "modularity_class", "MESH", "mesh", "mesh_id"}, g.Attributes)

	assert.Equal(t, "Cerebellum", g.Nodes[0].Attrs["mesh"])
	assert.Equal(t, "D002531", g.Nodes[0].Attrs["mesh_id"])
	assert.Equal(t, "Humans; Motor Cortex", g.Nodes[0].Attrs["MESH"], "other attributes are kept")
	assert.Equal(t, "Reward; Dopamine & Behavior", g.Nodes[1].Attrs["mesh"])
	assert.Equal(t, "Humans", g.Nodes[2].Attrs["mesh"], "self-closing node gets attvalues")
	assert.NotContains(t, g.Nodes[2].Attrs, "mesh_id")

	assert.Contains(t, out, `<viz:size value="10.0"/>`)
	assert.Contains(t, out, `<edge id="0" source="n1" target="n2"/>`)
	assert.Contains(t, out, `<attribute id="0" title="weight" type="double"/>`)
	assert.Contains(t, out, `<attribute id="mesh" title="mesh" type="string"/>`)
}

func TestSetAttributes_ReplacesValues(t *testing.T) {
	first := setAttributes(t, sampleGEXF, map[string]map[string]string{
		"n1": {"mesh": "Cerebellum"},
	})
	second := setAttributes(t, first, map[string]map[string]string{
		"n1": {"mesh": "Motor Cortex"},
	})

	assert.Equal(t, 1, strings.Count(second, `<attribute id="mesh"`))
	assert.Equal(t, 1, strings.Count(second, `for="mesh"`))

	g, err := Read(strings.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, "Motor Cortex", g.Nodes[0].Attrs["mesh"])
}

func TestSetAttributes_NoDeclarations(t *testing.T) {
	src := `<gexf><graph><nodes><node id="a" label="A"></node><node id="b" label="B"/></nodes></graph></gexf>`
	out := setAttributes(t, src, map[string]map[string]string{
		"a": {"mesh": "Brain"},
	})

	assert.Equal(t, `<gexf><graph><attributes class="node"><attribute id="mesh" title="mesh" type="string"/></attributes>`+
		`<nodes><node id="a" label="A"><attvalues><attvalue for="mesh" value="Brain"/></attvalues></node>`+
		`<node id="b" label="B"/></nodes></graph></gexf>`, out)
}

func TestSetAttributes_IDCollision(t *testing.T) {
	src := `<gexf><graph><attributes class="node"><attribute id="mesh" title="Keywords"/></attributes>` +
		`<nodes><node id="a"><attvalues><attvalue for="mesh" value="x"/></attvalues></node></nodes></graph></gexf>`
	out := setAttributes(t, src, map[string]map[string]string{"a": {"mesh": "Brain"}})

	g, err := Read(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "x", g.Nodes[0].Attrs["Keywords"])
	assert.Equal(t, "Brain", g.Nodes[0].Attrs["mesh"])
	assert.Contains(t, out, `<attribute id="mesh_2" title="mesh" type="string"/>`)
}

func TestSetAttributes_Invalid(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SetAttributes([]byte(`<gexf><graph>`), &buf, nil))
	assert.Error(t, SetAttributes([]byte(`<gexf></gexf>`), &buf, nil))
}
