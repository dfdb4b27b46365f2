package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/netgraph"
	"github.com/recera/netgraph/pkg/scheduler"
)

func component(t *testing.T) *netgraph.Component {
	t.Helper()
	c := netgraph.New(scheduler.NewLoop(1), &netgraph.Options{Seed: 9})
	require.NoError(t, c.Assign(graphdata.Data{
		Nodes: []graphdata.RawNode{
			{ID: "gw", Label: "Gateway", Category: "edge", IsRoot: true},
			{ID: "api", Label: "API", Category: "svc"},
			{ID: "db", Label: "Postgres", Category: "store"},
		},
		Links: []graphdata.RawLink{
			{SourceID: "gw", TargetID: "api", Category: "http"},
			{SourceID: "api", TargetID: "db", Category: "sql"},
			{SourceID: "api", TargetID: "db", Category: "sql"},
		},
	}))
	c.Settle(1000)
	return c
}

func TestDOT(t *testing.T) {
	c := component(t)
	out, err := DOT(FromComponent(c), "services")
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, "strict digraph services {") || strings.HasPrefix(s, "digraph services {"), s)
	assert.Contains(t, s, "layout=neato")
	assert.Contains(t, s, `label=Gateway`)
	assert.Contains(t, s, "shape=box")
	assert.Equal(t, 2, strings.Count(s, "api -> db"), "parallel links are kept")
	assert.Contains(t, s, `pos="`)
}

func TestDOTSkipsHidden(t *testing.T) {
	c := component(t)
	c.ToggleCategory("store")
	out, err := DOT(FromComponent(c), "")
	require.NoError(t, err)
	s := string(out)
	assert.NotContains(t, s, "Postgres")
	assert.NotContains(t, s, "-> db")
	assert.Contains(t, s, "gw -> api")
}

func TestJSONRoundTrip(t *testing.T) {
	c := component(t)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, FromComponent(c)))

	d, err := graphdata.Decode(&buf, graphdata.FormatJSON)
	require.NoError(t, err)
	require.Len(t, d.Nodes, 3)
	require.Len(t, d.Links, 3)
	assert.True(t, d.Nodes[0].IsRoot)

	api, _ := c.Node("api")
	require.NotNil(t, d.Nodes[1].X)
	assert.Equal(t, api.X, *d.Nodes[1].X)

	// Assigning the export back reproduces the layout as the starting point.
	h := graphdata.NewHolder()
	require.NoError(t, h.Assign(d))
	n, _ := h.Node("api")
	assert.Equal(t, api.X, n.X)
	assert.Equal(t, api.Y, n.Y)
}
