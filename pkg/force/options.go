package force

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-logr/logr"
)

// Layout defaults.
const (
	DefaultStrength       = -850.0
	DefaultLinkDistance   = 30.0
	DefaultCenterStrength = 0.1
	DefaultAlphaMin       = 0.001
	DefaultVelocityDecay  = 0.4
	DefaultTheta          = 0.9
	DefaultDistanceMin    = 1.0

	// HotAlpha is the alpha target used while a node is being dragged.
	HotAlpha = 0.3
)

// DefaultAlphaDecay cools alpha from 1 to DefaultAlphaMin in about 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

// Options parameterizes a Simulation. Zero fields take the package defaults.
type Options struct {
	// Seed for the jiggle source. Zero seeds from the clock.
	Seed uint64

	// Strength of the many-body force. Negative values repel.
	Strength float64
	// LinkDistance is the rest length of link springs.
	LinkDistance float64
	// CenterStrength of the x and y forces pulling toward the origin.
	CenterStrength float64

	AlphaMin      float64
	AlphaDecay    float64
	VelocityDecay float64

	// Theta is the Barnes-Hut approximation criterion.
	Theta float64

	Logger logr.Logger
}

func (o Options) withDefaults() Options {
	if o.Strength == 0 {
		o.Strength = DefaultStrength
	}
	if o.LinkDistance <= 0 {
		o.LinkDistance = DefaultLinkDistance
	}
	if o.CenterStrength <= 0 {
		o.CenterStrength = DefaultCenterStrength
	}
	if o.AlphaMin <= 0 {
		o.AlphaMin = DefaultAlphaMin
	}
	if o.AlphaDecay <= 0 {
		o.AlphaDecay = DefaultAlphaDecay
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay > 1 {
		o.VelocityDecay = DefaultVelocityDecay
	}
	if o.Theta <= 0 {
		o.Theta = DefaultTheta
	}
	return o
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
