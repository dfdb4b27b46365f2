// Package scene maintains the retained visual tree of a network diagram.
//
// A Renderer owns the single scene root. Build discards the previous tree and
// creates one primitive per visible node, link, node label and legend entry.
// Tick only rewrites coordinates of existing primitives. Every change is also
// recorded as a Patch so that a host mirroring the scene elsewhere (a browser, a
// terminal) can replay it; see Flush.
package scene

import (
	"fmt"
	"math"
	"strconv"

	"github.com/recera/netgraph/pkg/graphdata"
)

// Config holds the presentational parameters read at build time.
type Config struct {
	Width, Height float64
	Radius        float64
	FontSize      float64
	FontFamily    string
}

func (c Config) withDefaults() Config {
	c.Width, c.Height = math.Abs(c.Width), math.Abs(c.Height)
	if c.Width == 0 {
		c.Width = 800
	}
	if c.Height == 0 {
		c.Height = 600
	}
	if c.Radius <= 0 {
		c.Radius = 5
	}
	if c.FontSize <= 0 {
		c.FontSize = 10
	}
	if c.FontFamily == "" {
		c.FontFamily = "sans-serif"
	}
	return c
}

// Class names of the primitive groups.
const (
	ClassLink      = "ngraph-link"
	ClassNode      = "ngraph-node"
	ClassNodeLabel = "ngraph-node-label"
	ClassLegend    = "ngraph-label"
)

// DisabledOpacity is the scene opacity while the diagram is disabled.
const DisabledOpacity = 0.5

type nodePrim struct {
	node  *graphdata.Node
	shape *Element
	label *Element
}

type linkPrim struct {
	link *graphdata.Link
	line *Element
}

type legendPrim struct {
	category string
	text     *Element
}

// Counts reports the number of primitives of each kind in the current scene.
type Counts struct {
	Nodes  int
	Links  int
	Labels int
	Legend int
}

// Renderer builds and updates the scene.
type Renderer struct {
	cfg     Config
	palette *Palette
	nextID  uint32

	root     *Element
	viewport *Element
	nodes    []nodePrim
	links    []linkPrim
	legend   []legendPrim
	targets  map[uint32]Target

	journal journal
	// mirrored is the root id a host holds after the last flush; fresh is set
	// while the current root has not been flushed yet.
	mirrored uint32
	fresh    bool
	enabled  bool
	tx, ty  float64
	k       float64
	builds  int
}

// NewRenderer creates a renderer with an empty scene.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{
		cfg:     cfg.withDefaults(),
		palette: NewPalette(),
		nextID:  1,
		targets: make(map[uint32]Target),
		enabled: true,
		k:       1,
	}
}

// Configure replaces the presentational parameters. They take effect on the next Build.
func (r *Renderer) Configure(cfg Config) { r.cfg = cfg.withDefaults() }

// Config returns the current parameters.
func (r *Renderer) Config() Config { return r.cfg }

// Palette returns the renderer's category palette.
func (r *Renderer) Palette() *Palette { return r.palette }

func (r *Renderer) el(tag string, attrs ...string) *Element {
	e := &Element{ID: r.nextID, Tag: tag}
	r.nextID++
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs = append(e.Attrs, Attr{Name: attrs[i], Value: attrs[i+1]})
	}
	return e
}

// Build discards the current scene and creates a new one for v. Pending
// patches for unflushed scenes are dropped and replaced by a removal of the
// root last flushed and an insertion of the new root.
func (r *Renderer) Build(v graphdata.View) {
	c := r.cfg
	radius := num(c.Radius)
	font := num(c.FontSize)

	r.nodes, r.links, r.legend = nil, nil, nil
	r.targets = make(map[uint32]Target)
	r.journal.reset()
	r.fresh = true

	r.root = r.el("svg",
		"width", num(c.Width),
		"height", num(c.Height),
		"viewBox", fmt.Sprintf("%s %s %s %s", num(-c.Width/2), num(-c.Height/2), num(c.Width), num(c.Height)),
		"opacity", r.opacityValue(),
	)
	r.targets[r.root.ID] = Target{Kind: TargetBackground}
	r.viewport = r.el("g", "class", "ngraph-viewport", "transform", r.transformValue())

	links := r.el("g", "stroke", "black", "stroke-opacity", "1", "stroke-width", "1")
	for _, l := range v.Links {
		line := r.el("line", "class", ClassLink)
		if l.Category != "" {
			line.set("data-category", l.Category)
		}
		links.append(line)
		r.links = append(r.links, linkPrim{link: l, line: line})
	}

	shapes := r.el("g", "stroke", "#fff", "stroke-width", "1.5")
	labels := r.el("g")
	for _, n := range v.Nodes {
		var shape *Element
		if n.IsRoot {
			shape = r.el("rect", "class", ClassNode+" ngraph-root",
				"width", num(2*c.Radius), "height", num(2*c.Radius))
		} else {
			shape = r.el("circle", "class", ClassNode, "r", radius)
		}
		shape.set("fill", r.palette.Color(n.Category))
		shape.set("fill-opacity", "0.3")
		shape.set("stroke-width", "0")
		shape.set("cursor", "pointer")

		label := r.el("text", "class", ClassNodeLabel,
			"font-size", font, "font-family", c.FontFamily, "fill", "black",
			"dx", num(c.Radius+2), "dy", "0.35em", "cursor", "pointer")
		label.Text = n.Label

		shapes.append(shape)
		labels.append(label)
		r.nodes = append(r.nodes, nodePrim{node: n, shape: shape, label: label})
		r.targets[shape.ID] = Target{Kind: TargetNode, Node: n}
		r.targets[label.ID] = Target{Kind: TargetNode, Node: n}
	}
	r.viewport.append(links, shapes, labels)

	legend := r.el("g", "class", "ngraph-legend")
	for i, entry := range v.Legend {
		decoration := "none"
		if entry.Hidden {
			decoration = "line-through"
		}
		x, y := r.legendPos(i)
		text := r.el("text", "class", ClassLegend,
			"x", num(x), "y", num(y),
			"font-size", font, "font-family", c.FontFamily,
			"fill", r.palette.Color(entry.Category),
			"text-decoration", decoration, "cursor", "pointer")
		text.Text = entry.Category
		legend.append(text)
		r.legend = append(r.legend, legendPrim{category: entry.Category, text: text})
		r.targets[text.ID] = Target{Kind: TargetLegend, Category: entry.Category}
	}
	r.root.append(r.viewport, legend)

	r.position()
	r.builds++

	if r.mirrored != 0 {
		r.journal.add(Patch{Op: OpRemoveNode, NodeID: r.mirrored})
	}
	r.journal.add(Patch{Op: OpInsertNode, NodeID: r.root.ID, Node: r.root})
}

// legendPos places legend entries in a row along the bottom left of the view.
func (r *Renderer) legendPos(i int) (x, y float64) {
	return -r.cfg.Width/2 + 10 + 100*float64(i), r.cfg.Height/2 - 2*r.cfg.FontSize
}

// Tick moves every primitive to its node's current position. It never adds
// or removes primitives.
func (r *Renderer) Tick() {
	if r.root == nil {
		return
	}
	r.position()
}

func (r *Renderer) position() {
	rad := r.cfg.Radius
	for _, p := range r.links {
		s, t := p.link.Source, p.link.Target
		r.set(p.line, "x1", num(s.X))
		r.set(p.line, "y1", num(s.Y))
		r.set(p.line, "x2", num(t.X))
		r.set(p.line, "y2", num(t.Y))
	}
	for _, p := range r.nodes {
		n := p.node
		if p.shape.Tag == "rect" {
			r.set(p.shape, "x", num(n.X-rad))
			r.set(p.shape, "y", num(n.Y-rad))
		} else {
			r.set(p.shape, "cx", num(n.X))
			r.set(p.shape, "cy", num(n.Y))
		}
		r.set(p.label, "x", num(n.X))
		r.set(p.label, "y", num(n.Y))
	}
}

// set writes an attribute and journals it if the value changed. Writes to an
// unflushed tree travel with its insertion instead.
func (r *Renderer) set(e *Element, name, value string) {
	if e.set(name, value) && !r.fresh {
		r.journal.setAttr(e.ID, name, value)
	}
}

// SetOpacity renders the scene at full opacity when enabled, dimmed otherwise.
// It applies immediately, without a rebuild.
func (r *Renderer) SetOpacity(enabled bool) {
	r.enabled = enabled
	if r.root != nil {
		r.set(r.root, "opacity", r.opacityValue())
	}
}

func (r *Renderer) opacityValue() string {
	if r.enabled {
		return "1"
	}
	return num(DisabledOpacity)
}

// SetTransform sets the view transform applied to the viewport group: a
// translation by (x, y) after uniform scaling by k. Node coordinates are not
// touched.
func (r *Renderer) SetTransform(x, y, k float64) {
	r.tx, r.ty, r.k = x, y, k
	if r.viewport != nil {
		r.set(r.viewport, "transform", r.transformValue())
	}
}

func (r *Renderer) transformValue() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", num(r.tx), num(r.ty), strconv.FormatFloat(r.k, 'g', 6, 64))
}

// Flush returns and clears the patches accumulated since the last flush.
// Afterwards the current root counts as mirrored by the host.
func (r *Renderer) Flush() []Patch {
	patches := r.journal.take()
	if r.root != nil {
		r.mirrored, r.fresh = r.root.ID, false
	}
	return patches
}

// Root returns the scene root, or nil before the first build.
func (r *Renderer) Root() *Element { return r.root }

// Builds returns the number of builds performed.
func (r *Renderer) Builds() int { return r.builds }

// Counts returns the number of primitives in the current scene.
func (r *Renderer) Counts() Counts {
	return Counts{Nodes: len(r.nodes), Links: len(r.links), Labels: len(r.nodes), Legend: len(r.legend)}
}

// Nodes returns the nodes that have primitives in the current scene.
func (r *Renderer) Nodes() []*graphdata.Node {
	out := make([]*graphdata.Node, len(r.nodes))
	for i, p := range r.nodes {
		out[i] = p.node
	}
	return out
}

// Links returns the links that have primitives in the current scene.
func (r *Renderer) Links() []*graphdata.Link {
	out := make([]*graphdata.Link, len(r.links))
	for i, p := range r.links {
		out[i] = p.link
	}
	return out
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
