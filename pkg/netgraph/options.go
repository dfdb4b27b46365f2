package netgraph

import (
	"math"

	"github.com/go-logr/logr"

	"github.com/recera/netgraph/pkg/force"
	"github.com/recera/netgraph/pkg/interact"
	"github.com/recera/netgraph/pkg/scene"
)

// Options configures a Component. Zero fields take their defaults.
type Options struct {
	// Layout
	Width        float64 // default 800
	Height       float64 // default 600
	NodeRadius   float64 // default 5
	Repulsion    float64 // default -850
	LinkDistance float64 // default 30

	// Simulation
	VelocityDecay   float64 // default 0.4
	AlphaMin        float64 // default 0.001
	DragAlphaTarget float64 // default 0.3
	Seed            uint64  // default 0, seeded from the clock
	// ExcludeHidden restarts the layout over the visible nodes only whenever
	// the hidden set changes. By default hidden nodes keep exerting forces.
	ExcludeHidden bool

	// View
	MinScale       float64 // default 0.5
	MaxScale       float64 // default 10
	ClickThreshold float64 // default 3
	FontSize       float64 // default 10
	FontFamily     string  // default "sans-serif"
	Disabled       bool

	Logger logr.Logger
}

func (o *Options) withDefaults() Options {
	d := Options{
		Width:           800,
		Height:          600,
		NodeRadius:      5,
		Repulsion:       force.DefaultStrength,
		LinkDistance:    force.DefaultLinkDistance,
		VelocityDecay:   force.DefaultVelocityDecay,
		AlphaMin:        force.DefaultAlphaMin,
		DragAlphaTarget: force.HotAlpha,
		MinScale:        0.5,
		MaxScale:        10,
		ClickThreshold:  3,
		FontSize:        10,
		FontFamily:      "sans-serif",
		Logger:          logr.Discard(),
	}
	if o == nil {
		return d
	}
	if o.Width != 0 {
		d.Width = math.Abs(o.Width)
	}
	if o.Height != 0 {
		d.Height = math.Abs(o.Height)
	}
	if o.NodeRadius > 0 {
		d.NodeRadius = o.NodeRadius
	}
	if o.Repulsion != 0 {
		d.Repulsion = o.Repulsion
	}
	if o.LinkDistance > 0 {
		d.LinkDistance = o.LinkDistance
	}
	if o.VelocityDecay > 0 {
		d.VelocityDecay = o.VelocityDecay
	}
	if o.AlphaMin > 0 {
		d.AlphaMin = o.AlphaMin
	}
	if o.DragAlphaTarget > 0 {
		d.DragAlphaTarget = o.DragAlphaTarget
	}
	if o.MinScale > 0 {
		d.MinScale = o.MinScale
	}
	if o.MaxScale > 0 {
		d.MaxScale = o.MaxScale
	}
	if o.ClickThreshold > 0 {
		d.ClickThreshold = o.ClickThreshold
	}
	if o.FontSize > 0 {
		d.FontSize = o.FontSize
	}
	if o.FontFamily != "" {
		d.FontFamily = o.FontFamily
	}
	if o.Logger.GetSink() != nil {
		d.Logger = o.Logger
	}
	d.Seed = o.Seed
	d.ExcludeHidden = o.ExcludeHidden
	d.Disabled = o.Disabled
	return d
}

// Defaults returns the default options.
func Defaults() Options {
	return (*Options)(nil).withDefaults()
}

func (c *Component) sceneConfig() scene.Config {
	return scene.Config{
		Width:      c.width.Get(),
		Height:     c.height.Get(),
		Radius:     c.radius.Get(),
		FontSize:   c.opts.FontSize,
		FontFamily: c.opts.FontFamily,
	}
}

func (c *Component) forceOptions() force.Options {
	return force.Options{
		Seed:          c.opts.Seed,
		Strength:      c.repulsion.Get(),
		LinkDistance:  c.opts.LinkDistance,
		AlphaMin:      c.opts.AlphaMin,
		VelocityDecay: c.opts.VelocityDecay,
		Logger:        c.log,
	}
}

func (c *Component) interactConfig() interact.Config {
	return interact.Config{
		MinScale:        c.opts.MinScale,
		MaxScale:        c.opts.MaxScale,
		ClickThreshold:  c.opts.ClickThreshold,
		DragAlphaTarget: c.opts.DragAlphaTarget,
	}
}
