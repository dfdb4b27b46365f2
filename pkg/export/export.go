// Package export writes a laid-out diagram in formats other tools read:
// Graphviz DOT with pinned positions, and JSON that can be assigned back.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/netgraph"
	"github.com/recera/netgraph/pkg/scene"
)

// Snapshot is a copy of a diagram's data and layout at one point in time.
type Snapshot struct {
	Nodes   []graphdata.Node
	Links   []*graphdata.Link
	Hidden  []string
	Palette *scene.Palette
}

// FromComponent captures the current state of c.
func FromComponent(c *netgraph.Component) Snapshot {
	return Snapshot{
		Nodes:   c.Nodes(),
		Links:   c.Links(),
		Hidden:  c.Hidden(),
		Palette: c.Renderer().Palette(),
	}
}

func (s Snapshot) hidden() map[string]bool {
	m := make(map[string]bool, len(s.Hidden))
	for _, c := range s.Hidden {
		m[c] = true
	}
	return m
}

// Data converts the snapshot back into assignable data, with each node's
// current position as its initial position.
func (s Snapshot) Data() graphdata.Data {
	d := graphdata.Data{
		Nodes: make([]graphdata.RawNode, 0, len(s.Nodes)),
		Links: make([]graphdata.RawLink, 0, len(s.Links)),
	}
	for _, n := range s.Nodes {
		raw := graphdata.RawNode{ID: n.ID, Label: n.Label, Category: n.Category, IsRoot: n.IsRoot}
		if n.HasPosition() {
			x, y := n.X, n.Y
			raw.X, raw.Y = &x, &y
		}
		d.Nodes = append(d.Nodes, raw)
	}
	for _, l := range s.Links {
		d.Links = append(d.Links, graphdata.RawLink{
			SourceID: l.Source.ID,
			TargetID: l.Target.ID,
			Category: l.Category,
		})
	}
	return d
}

// JSON writes the snapshot as indented JSON data.
func JSON(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Data()); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}
