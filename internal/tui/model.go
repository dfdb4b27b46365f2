// Package tui hosts a network diagram in the terminal.
//
// The model drives the component's frame loop from bubbletea ticks, draws the
// scene into a character canvas and maps mouse input onto the component's
// pointer API. One terminal cell spans cellWidth by cellHeight view units.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/netgraph"
	"github.com/recera/netgraph/pkg/scheduler"
)

const (
	cellWidth  = 8.0
	cellHeight = 16.0
	headerRows = 1
	footerRows = 2
)

// Style definitions
var (
	primaryColor = lipgloss.Color("#3b82f6")
	mutedColor   = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)

// Messages
type frameMsg time.Time

// legendSpan is the footer column range of one legend entry.
type legendSpan struct {
	from, to int
	category string
}

// Model represents the terminal host state
type Model struct {
	comp     *netgraph.Component
	loop     *scheduler.Loop
	interval time.Duration

	keys     KeyMap
	help     help.Model
	showHelp bool

	// Canvas size in cells, and the terminal height
	cols, rows int
	height     int

	selected *graphdata.Node
	focus    int
	legend   []legendSpan
	status   string
}

// NewModel creates a model showing d. Frames tick every interval, or at the
// loop default if zero.
func NewModel(d graphdata.Data, opts netgraph.Options, interval time.Duration) (*Model, error) {
	if interval <= 0 {
		interval = scheduler.DefaultInterval
	}
	m := &Model{
		loop:     scheduler.NewLoop(0),
		interval: interval,
		keys:     DefaultKeyMap,
		help:     help.New(),
		focus:    -1,
	}
	m.comp = netgraph.New(m.loop, &opts)
	m.comp.OnSelect(func(n graphdata.Node) {
		m.selected = &n
		m.status = fmt.Sprintf("selected %s (%s)", n.Label, n.ID)
	})
	if err := m.comp.Assign(d); err != nil {
		return nil, err
	}
	return m, nil
}

// Component returns the hosted diagram.
func (m *Model) Component() *netgraph.Component { return m.comp }

// Selected returns the last node the user clicked.
func (m *Model) Selected() (graphdata.Node, bool) {
	if m.selected == nil {
		return graphdata.Node{}, false
	}
	return *m.selected, true
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame(time.Time(msg))
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.comp.Close()
			return m, tea.Quit
		}
		m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

// frame advances the layout. The terminal redraws from the scene on every
// View, so scene patches are discarded.
func (m *Model) frame(now time.Time) {
	m.loop.Drain()
	m.loop.Frame(now)
	m.comp.Flush()
}

func (m *Model) resize(width, height int) {
	m.height = height
	m.cols = width
	m.rows = height - headerRows - footerRows
	if m.showHelp {
		m.rows -= 3
	}
	if m.rows < 1 {
		m.rows = 1
	}
	m.help.Width = width
	m.comp.Configure(func(c *netgraph.Component) {
		c.SetWidth(float64(m.cols) * cellWidth)
		c.SetHeight(float64(m.rows) * cellHeight)
	})
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.ZoomIn):
		m.comp.Zoom(2)
	case key.Matches(msg, m.keys.ZoomOut):
		m.comp.Zoom(0.5)
	case key.Matches(msg, m.keys.Fit):
		m.comp.FitGraph(2 * cellHeight)
	case key.Matches(msg, m.keys.Reset):
		m.comp.ResetView()
	case key.Matches(msg, m.keys.Next):
		nodes := m.comp.Renderer().Nodes()
		if len(nodes) > 0 {
			m.focus = (m.focus + 1) % len(nodes)
			n := nodes[m.focus]
			m.comp.FocusNode(n.ID, math.Max(2, m.comp.Transform().K))
			m.status = "focused " + n.Label
		}
	case key.Matches(msg, m.keys.Toggle):
		i := int(msg.String()[0] - '1')
		if cats := m.comp.Categories(); i < len(cats) {
			m.comp.ToggleCategory(cats[i])
		}
	case key.Matches(msg, m.keys.Enable):
		m.comp.SetEnabled(!m.comp.Enabled())
	case key.Matches(msg, m.keys.Reheat):
		if sim := m.comp.Simulation(); sim != nil {
			sim.Reheat(1)
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		if m.cols > 0 {
			m.resize(m.cols, m.height)
		}
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	row := msg.Y - headerRows
	p := m.toView(msg.X, row)

	// Gestures that started on the canvas continue and end anywhere.
	switch msg.Action {
	case tea.MouseActionMotion:
		m.comp.PointerMove(0, p)
		return
	case tea.MouseActionRelease:
		m.comp.PointerUp(0, p)
		return
	}

	if row == m.rows {
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			for _, s := range m.legend {
				if msg.X >= s.from && msg.X < s.to {
					m.comp.ToggleCategory(s.category)
				}
			}
		}
		return
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.comp.Wheel(p, -100)
	case msg.Button == tea.MouseButtonWheelDown:
		m.comp.Wheel(p, 100)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.comp.PointerDownAt(0, p, cellWidth/2)
	}
}

// toView returns the view point at the centre of a canvas cell.
func (m *Model) toView(col, row int) r2.Vec {
	return r2.Vec{
		X: (float64(col)+0.5)*cellWidth - m.comp.Width()/2,
		Y: (float64(row)+0.5)*cellHeight - m.comp.Height()/2,
	}
}

// toCell returns the fractional canvas cell of a view point.
func (m *Model) toCell(p r2.Vec) (x, y float64) {
	return (p.X+m.comp.Width()/2)/cellWidth - 0.5, (p.Y+m.comp.Height()/2)/cellHeight - 0.5
}

// render draws links, then labels, then node markers on top.
func (m *Model) render() *canvas {
	c := newCanvas(m.cols, m.rows)
	t := m.comp.Transform()
	r := m.comp.Renderer()
	enabled := m.comp.Enabled()
	color := func(cat string) string {
		if !enabled {
			return string(mutedColor)
		}
		return r.Palette().Color(cat)
	}
	cell := func(n *graphdata.Node) (float64, float64) {
		return m.toCell(t.Apply(r2.Vec{X: n.X, Y: n.Y}))
	}

	for _, l := range r.Links() {
		x0, y0 := cell(l.Source)
		x1, y1 := cell(l.Target)
		if math.IsNaN(x0 + y0 + x1 + y1) {
			continue
		}
		ax, ay, bx, by, ok := clip(x0, y0, x1, y1, -1, -1, float64(m.cols), float64(m.rows))
		if ok {
			c.line(round(ax), round(ay), round(bx), round(by), '·', string(mutedColor))
		}
	}
	nodes := r.Nodes()
	for _, n := range nodes {
		x, y := cell(n)
		if !math.IsNaN(x + y) {
			c.text(round(x)+2, round(y), n.Label, "")
		}
	}
	for _, n := range nodes {
		x, y := cell(n)
		if math.IsNaN(x + y) {
			continue
		}
		glyph := '●'
		if n.IsRoot {
			glyph = '■'
		}
		if m.selected != nil && m.selected.ID == n.ID {
			glyph = '◉'
		}
		c.set(round(x), round(y), glyph, color(n.Category))
	}
	return c
}

// renderLegend draws the category legend and records where each entry sits.
func (m *Model) renderLegend() string {
	r := m.comp.Renderer()
	hidden := map[string]bool{}
	for _, h := range m.comp.Hidden() {
		hidden[h] = true
	}
	m.legend = m.legend[:0]
	var b strings.Builder
	col := 0
	for i, cat := range m.comp.Categories() {
		entry := fmt.Sprintf("[%d] %s", i+1, cat)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Palette().Color(cat)))
		if hidden[cat] {
			style = mutedStyle.Strikethrough(true)
		}
		if i > 0 {
			b.WriteString("  ")
			col += 2
		}
		b.WriteString(style.Render(entry))
		w := lipgloss.Width(entry)
		m.legend = append(m.legend, legendSpan{from: col, to: col + w, category: cat})
		col += w
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.cols == 0 {
		return "loading..."
	}
	counts := m.comp.Renderer().Counts()
	header := titleStyle.Render("netgraph") + mutedStyle.Render(fmt.Sprintf("  %d nodes  %d links  %.0f%%",
		counts.Nodes, counts.Links, m.comp.Transform().K*100))
	if m.status != "" {
		header += "  " + selectedStyle.Render(m.status)
	}

	parts := []string{header, m.render().String(), m.renderLegend(), m.help.View(m.keys)}
	return strings.Join(parts, "\n")
}

func round(v float64) int { return int(math.Round(v)) }
