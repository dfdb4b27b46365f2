package graphdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonData = `{
  "nodes": [
    {"id": "a", "label": "Alpha", "category": "svc", "isRoot": true},
    {"id": "b", "label": "Beta", "type": "db", "x": 10, "y": 20}
  ],
  "links": [{"source_id": "a", "target_id": "b", "category": "sql"}]
}`

const yamlData = `
nodes:
  - id: a
    label: Alpha
    category: svc
    isRoot: true
  - id: b
    label: Beta
    type: db
    x: 10
    y: 20
links:
  - source_id: a
    target_id: b
    category: sql
`

func TestDecode(t *testing.T) {
	for _, x := range []struct {
		format Format
		input  string
	}{
		{FormatJSON, jsonData},
		{FormatYAML, yamlData},
	} {
		t.Run(string(x.format), func(t *testing.T) {
			d, err := Decode(strings.NewReader(x.input), x.format)
			require.NoError(t, err)
			require.Len(t, d.Nodes, 2)
			assert.Equal(t, "Alpha", d.Nodes[0].Label)
			assert.True(t, d.Nodes[0].IsRoot)
			assert.Equal(t, "db", d.Nodes[1].Type)
			require.NotNil(t, d.Nodes[1].X)
			assert.Equal(t, 10.0, *d.Nodes[1].X)
			assert.Equal(t, []RawLink{{SourceID: "a", TargetID: "b", Category: "sql"}}, d.Links)
		})
	}
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"nodes": [{"id": "a", "colour": "red"}]}`), FormatJSON)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))
	d, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 2)

	_, err = Load(filepath.Join(dir, "graph.csv"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
