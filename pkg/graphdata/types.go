// Package graphdata holds the node/link data set rendered by a network diagram.
//
// The host supplies a Data value of raw records whose links refer to nodes by id.
// A Holder resolves those ids to node references once per assignment and owns the
// canonical node and link slices from then on. Other packages get read-only views
// (see Holder.Visible); only the force simulation writes positions, and only the
// simulation's pin API writes FX/FY.
package graphdata

import "math"

// RawNode is a node record as supplied by the host.
type RawNode struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	// Type is accepted as an alias for Category.
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	IsRoot bool   `json:"isRoot,omitempty" yaml:"isRoot,omitempty"`

	// Optional initial position. Nodes without one are placed by the simulation.
	X *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y *float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

// RawLink is a link record as supplied by the host, referring to nodes by id.
type RawLink struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	TargetID string `json:"target_id" yaml:"target_id"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Data is a complete data set. Any change to the diagram's data goes through
// assigning a new Data value; there is no per-node mutation.
type Data struct {
	Nodes []RawNode `json:"nodes" yaml:"nodes"`
	Links []RawLink `json:"links" yaml:"links"`
}

// Node is a resolved graph vertex.
type Node struct {
	Index    int
	ID       string
	Label    string
	Category string
	IsRoot   bool

	// Simulated position and velocity.
	X, Y   float64
	VX, VY float64

	// Pinned position. While both are set the node is rigid at (FX, FY).
	FX, FY *float64
}

// Pinned returns true if the node has a pinned position.
func (n *Node) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// HasPosition returns true once the node has finite coordinates.
func (n *Node) HasPosition() bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y) && !math.IsInf(n.X, 0) && !math.IsInf(n.Y, 0)
}

// Link is a resolved association between two nodes of the same data set.
type Link struct {
	Index    int
	Source   *Node
	Target   *Node
	Category string
}

// LegendEntry is one category of the legend together with its visibility.
type LegendEntry struct {
	Category string
	Hidden   bool
}

// View is a filtered snapshot of the held data: the nodes and links that are not
// hidden, and the full legend. The slices are fresh copies; the pointed-to nodes
// are shared and must be treated as read-only by the receiver.
type View struct {
	Nodes  []*Node
	Links  []*Link
	Legend []LegendEntry
}
