package graphdata

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Data {
	return Data{
		Nodes: []RawNode{
			{ID: "a", Label: "A", Category: "server", IsRoot: true},
			{ID: "b", Label: "B", Category: "client"},
			{ID: "c", Label: "C", Category: "client"},
			{ID: "d", Label: "D", Type: "db"},
		},
		Links: []RawLink{
			{SourceID: "a", TargetID: "b", Category: "http"},
			{SourceID: "a", TargetID: "c", Category: "http"},
			{SourceID: "a", TargetID: "d", Category: "sql"},
		},
	}
}

func TestAssign(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Assign(sample()))

	assert.Equal(t, 4, h.Len())
	assert.Equal(t, uint64(1), h.Generation())
	assert.Equal(t, []string{"server", "client", "db"}, h.Categories())

	a, ok := h.Node("a")
	require.True(t, ok)
	assert.True(t, a.IsRoot)
	assert.True(t, math.IsNaN(a.X))
	assert.False(t, a.HasPosition())

	links := h.Links()
	require.Len(t, links, 3)
	assert.Same(t, a, links[0].Source)
	d, _ := h.Node("d")
	assert.Equal(t, "db", d.Category, "type is an alias for category")
	assert.Same(t, d, links[2].Target)
}

func TestAssignInitialPosition(t *testing.T) {
	x, y := 3.0, -4.0
	h := NewHolder()
	require.NoError(t, h.Assign(Data{Nodes: []RawNode{{ID: "a", X: &x, Y: &y}}}))
	a, _ := h.Node("a")
	assert.True(t, a.HasPosition())
	assert.Equal(t, 3.0, a.X)
	assert.Equal(t, -4.0, a.Y)
}

func TestAssignErrors(t *testing.T) {
	for _, x := range []struct {
		name string
		data Data
		want error
	}{
		{
			name: "dangling target",
			data: Data{Nodes: []RawNode{{ID: "a"}}, Links: []RawLink{{SourceID: "a", TargetID: "zz"}}},
			want: ErrDanglingReference,
		},
		{
			name: "dangling source",
			data: Data{Nodes: []RawNode{{ID: "a"}}, Links: []RawLink{{SourceID: "zz", TargetID: "a"}}},
			want: ErrDanglingReference,
		},
		{
			name: "duplicate",
			data: Data{Nodes: []RawNode{{ID: "a"}, {ID: "a"}}},
			want: ErrDuplicateNode,
		},
		{
			name: "empty id",
			data: Data{Nodes: []RawNode{{Label: "nameless"}}},
			want: ErrEmptyID,
		},
	} {
		t.Run(x.name, func(t *testing.T) {
			h := NewHolder()
			require.NoError(t, h.Assign(sample()))
			h.Toggle("client")
			before := h.Nodes()

			err := h.Assign(x.data)
			assert.ErrorIs(t, err, x.want)

			// Prior state is untouched.
			assert.Equal(t, before, h.Nodes())
			assert.Equal(t, uint64(1), h.Generation())
			assert.True(t, h.IsHidden("client"))
		})
	}
}

func TestDanglingReferenceError(t *testing.T) {
	h := NewHolder()
	err := h.Assign(Data{
		Nodes: []RawNode{{ID: "a"}, {ID: "b"}},
		Links: []RawLink{{SourceID: "a", TargetID: "b"}, {SourceID: "b", TargetID: "missing"}},
	})
	var dre *DanglingReferenceError
	require.True(t, errors.As(err, &dre))
	assert.Equal(t, 1, dre.Link)
	assert.Equal(t, "target", dre.Endpoint)
	assert.Equal(t, "missing", dre.ID)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestEmptyGraph(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Assign(Data{}))
	v := h.Visible()
	assert.Empty(t, v.Nodes)
	assert.Empty(t, v.Links)
	assert.Empty(t, v.Legend)
}

func TestToggle(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Assign(sample()))
	all := h.Visible()

	assert.True(t, h.Toggle("client"))
	v := h.Visible()
	assert.Len(t, v.Nodes, 2)
	assert.Len(t, v.Links, 1, "links to hidden nodes are hidden")
	assert.Equal(t, []LegendEntry{{"server", false}, {"client", true}, {"db", false}}, v.Legend)
	assert.Equal(t, []string{"client"}, h.Hidden())

	assert.False(t, h.Toggle("client"))
	assert.Equal(t, all, h.Visible())
	assert.Empty(t, h.Hidden())
}

func TestToggleLinkCategory(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Assign(sample()))
	h.Toggle("sql")
	v := h.Visible()
	assert.Len(t, v.Nodes, 4)
	assert.Len(t, v.Links, 2)
	assert.Equal(t, []string{"sql"}, h.Hidden())
}

func TestAssignResetsHidden(t *testing.T) {
	h := NewHolder()
	require.NoError(t, h.Assign(sample()))
	h.Toggle("client")
	require.NoError(t, h.Assign(sample()))
	assert.Empty(t, h.Hidden())
	assert.Equal(t, uint64(2), h.Generation())
}
