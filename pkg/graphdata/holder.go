package graphdata

import (
	"fmt"
	"math"
	"slices"
)

// Holder owns the current node and link set together with its derived metadata:
// the distinct categories and the set of categories currently hidden.
//
// A Holder is not safe for concurrent use; it is driven from the component's
// event loop like everything else in a diagram.
type Holder struct {
	nodes      []*Node
	links      []*Link
	byID       map[string]*Node
	categories []string
	hidden     map[string]struct{}
	generation uint64
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{
		byID:   make(map[string]*Node),
		hidden: make(map[string]struct{}),
	}
}

// Assign replaces the held data set. Link endpoints are resolved from ids to node
// references exactly once here. Categories are recomputed and the hidden set is
// reset. If the data set is invalid, an error is returned and the holder is left
// exactly as it was.
func (h *Holder) Assign(d Data) error {
	nodes, byID, err := resolveNodes(d.Nodes)
	if err != nil {
		return err
	}
	links, err := resolveLinks(d.Links, byID)
	if err != nil {
		return err
	}

	h.nodes = nodes
	h.links = links
	h.byID = byID
	h.categories = deriveCategories(nodes)
	h.hidden = make(map[string]struct{})
	h.generation++
	return nil
}

func resolveNodes(raw []RawNode) ([]*Node, map[string]*Node, error) {
	nodes := make([]*Node, 0, len(raw))
	byID := make(map[string]*Node, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			return nil, nil, fmt.Errorf("node %d: %w", i, ErrEmptyID)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, nil, fmt.Errorf("node %d %q: %w", i, r.ID, ErrDuplicateNode)
		}
		n := &Node{
			Index:    i,
			ID:       r.ID,
			Label:    r.Label,
			Category: r.Category,
			IsRoot:   r.IsRoot,
			X:        math.NaN(),
			Y:        math.NaN(),
		}
		if n.Category == "" {
			n.Category = r.Type
		}
		if r.X != nil && r.Y != nil {
			n.X, n.Y = *r.X, *r.Y
		}
		nodes = append(nodes, n)
		byID[r.ID] = n
	}
	return nodes, byID, nil
}

func resolveLinks(raw []RawLink, byID map[string]*Node) ([]*Link, error) {
	links := make([]*Link, 0, len(raw))
	for i, r := range raw {
		source, ok := byID[r.SourceID]
		if !ok {
			return nil, &DanglingReferenceError{Link: i, Endpoint: "source", ID: r.SourceID}
		}
		target, ok := byID[r.TargetID]
		if !ok {
			return nil, &DanglingReferenceError{Link: i, Endpoint: "target", ID: r.TargetID}
		}
		links = append(links, &Link{Index: i, Source: source, Target: target, Category: r.Category})
	}
	return links, nil
}

// deriveCategories returns the distinct node categories in first-seen order.
// Nodes without a category do not contribute a legend entry.
func deriveCategories(nodes []*Node) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range nodes {
		if n.Category == "" || seen[n.Category] {
			continue
		}
		seen[n.Category] = true
		out = append(out, n.Category)
	}
	return out
}

// Generation counts successful assignments. Callbacks bound to an earlier
// generation are stale.
func (h *Holder) Generation() uint64 { return h.generation }

// Len returns the number of held nodes.
func (h *Holder) Len() int { return len(h.nodes) }

// Nodes returns a copy of the node slice. The nodes themselves are shared.
func (h *Holder) Nodes() []*Node { return slices.Clone(h.nodes) }

// Links returns a copy of the link slice. The links themselves are shared.
func (h *Holder) Links() []*Link { return slices.Clone(h.links) }

// Node looks up a node by id.
func (h *Holder) Node(id string) (*Node, bool) {
	n, ok := h.byID[id]
	return n, ok
}

// Categories returns the legend categories in first-seen order.
func (h *Holder) Categories() []string { return slices.Clone(h.categories) }

// Hidden returns the hidden categories, in legend order first and then any
// hidden category that is not a node category, sorted.
func (h *Holder) Hidden() []string {
	out := make([]string, 0, len(h.hidden))
	for _, c := range h.categories {
		if _, ok := h.hidden[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range h.hidden {
		if !slices.Contains(h.categories, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// IsHidden returns true if category is in the hidden set.
func (h *Holder) IsHidden(category string) bool {
	_, ok := h.hidden[category]
	return ok
}

// Toggle flips the membership of category in the hidden set and returns the
// new state: true if the category is now hidden.
func (h *Holder) Toggle(category string) bool {
	if _, ok := h.hidden[category]; ok {
		delete(h.hidden, category)
		return false
	}
	h.hidden[category] = struct{}{}
	return true
}

// NodeVisible returns true if the node's category is not hidden.
func (h *Holder) NodeVisible(n *Node) bool {
	return !h.IsHidden(n.Category)
}

// LinkVisible returns true if the link's category is not hidden and both of its
// endpoints are visible.
func (h *Holder) LinkVisible(l *Link) bool {
	if l.Category != "" && h.IsHidden(l.Category) {
		return false
	}
	return h.NodeVisible(l.Source) && h.NodeVisible(l.Target)
}

// Visible returns a filtered snapshot of the held data for rendering.
func (h *Holder) Visible() View {
	v := View{
		Nodes:  make([]*Node, 0, len(h.nodes)),
		Links:  make([]*Link, 0, len(h.links)),
		Legend: make([]LegendEntry, 0, len(h.categories)),
	}
	for _, n := range h.nodes {
		if h.NodeVisible(n) {
			v.Nodes = append(v.Nodes, n)
		}
	}
	for _, l := range h.links {
		if h.LinkVisible(l) {
			v.Links = append(v.Links, l)
		}
	}
	for _, c := range h.categories {
		v.Legend = append(v.Legend, LegendEntry{Category: c, Hidden: h.IsHidden(c)})
	}
	return v
}
