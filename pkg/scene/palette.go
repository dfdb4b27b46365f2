package scene

// Category10 is the ten-colour categorical scheme used for node fills.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// NeutralColor fills nodes without a category.
const NeutralColor = "#bbbbbb"

// Palette is an ordinal colour scale: each category is assigned the next colour
// the first time it is seen and keeps it for the palette's lifetime, cycling
// when the scheme is exhausted.
type Palette struct {
	scheme []string
	index  map[string]int
}

// NewPalette creates a palette over scheme, or Category10 if scheme is empty.
func NewPalette(scheme ...string) *Palette {
	if len(scheme) == 0 {
		scheme = Category10
	}
	return &Palette{scheme: scheme, index: make(map[string]int)}
}

// Color returns the colour for category.
func (p *Palette) Color(category string) string {
	if category == "" {
		return NeutralColor
	}
	i, ok := p.index[category]
	if !ok {
		i = len(p.index)
		p.index[category] = i
	}
	return p.scheme[i%len(p.scheme)]
}
