package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/demo"
	"github.com/san-kum/rigidsync/internal/metrics"
	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const (
	maxEvents  = 6
	maxHistory = 240
	maxSpeed   = 8
)

type Options struct {
	// Scene starts the view directly; empty opens the scene menu.
	Scene    string
	Build    demo.Options
	Dt       float64
	Duration float64
}

type state int

const (
	stateMenu state = iota
	stateSim
)

type model struct {
	opts   Options
	state  state
	scenes []string
	cursor int

	scene  *demo.Scene
	driver *sim.Driver
	bounds [2]mgl64.Vec3

	paused    bool
	speed     int
	energy    []float64
	events    []string
	lastFrame time.Time
	fps       float64
	err       error

	width  int
	height int
}

func newModel(opts Options) model {
	if opts.Dt <= 0 {
		opts.Dt = 1.0 / 60.0
	}
	m := model{
		opts:   opts,
		scenes: demo.Names(),
		speed:  1,
		width:  80,
		height: 30,
	}
	if opts.Scene != "" {
		m.start(opts.Scene)
	}
	return m
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

func (m *model) start(name string) {
	s, err := demo.Build(name, m.opts.Build)
	if err != nil {
		m.err = err
		m.state = stateMenu
		return
	}
	m.scene = s
	m.driver = s.Driver()
	m.bounds = sceneBounds(s)
	m.energy = m.energy[:0]
	m.events = m.events[:0]
	m.paused = false
	m.err = nil
	m.state = stateSim
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
				m.fps = 1.0 / dt
			}
		}
		m.lastFrame = now
		if !m.paused && !m.finished() {
			for i := 0; i < m.speed; i++ {
				m.advance()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) advance() {
	f := m.driver.Advance(m.opts.Dt)
	for _, k := range f.Onsets {
		m.events = append(m.events, fmt.Sprintf("%6.2fs  %s", f.Time, k))
	}
	if n := len(m.events); n > maxEvents {
		m.events = m.events[n-maxEvents:]
	}
	m.energy = append(m.energy, metrics.TotalKineticEnergy(m.scene.World))
	if n := len(m.energy); n > maxHistory {
		m.energy = m.energy[n-maxHistory:]
	}
}

func (m model) finished() bool {
	return m.opts.Duration > 0 && m.driver.Time() >= m.opts.Duration-1e-9
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.state == stateMenu {
		return m.menuKey(msg)
	}
	return m.simKey(msg)
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenes)-1 {
			m.cursor++
		}
	case "enter":
		m.start(m.scenes[m.cursor])
		if m.state == stateSim {
			return m, tea.Batch(tea.ClearScreen, tick())
		}
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "+", "=":
		if m.speed < maxSpeed {
			m.speed++
		}
	case "-":
		if m.speed > 1 {
			m.speed--
		}
	case "a":
		tr := m.scene.World.Tracker()
		for _, k := range tr.Fired() {
			tr.Acknowledge(k)
		}
	case "r":
		m.start(m.scene.Name)
		return m, tea.ClearScreen
	case "esc":
		m.state = stateMenu
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m model) View() string {
	if m.state == stateSim {
		return m.viewSim()
	}
	return m.viewMenu()
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("         " + cyan.Render("r i g i d s y n c") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.scenes {
		desc := demo.Description(name)
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 6
	ch := m.height - 16
	if cw < 40 {
		cw = 40
	}
	if ch < 10 {
		ch = 10
	}
	c := newCanvas(cw, ch)
	m.draw(c)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.finished():
		statusIcon = dim.Render("■")
		statusText = dim.Render("done")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.scene.Name), statusText, dim.Render(fmt.Sprintf("x%d", m.speed))))
	b.WriteString(fmt.Sprintf("   %s  %s\n\n",
		dim.Render(fmt.Sprintf("t=%.2fs", m.driver.Time())), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	for _, row := range c.rows() {
		b.WriteString("   " + row + "\n")
	}

	if len(m.energy) > 1 {
		b.WriteString(fmt.Sprintf("\n   %s %s %s\n", dim.Render("KE"),
			cyan.Render(sparkline(m.energy, 40)), white.Render(fmt.Sprintf("%.2f", m.energy[len(m.energy)-1]))))
	}

	fired := m.scene.World.Tracker().Fired()
	names := make([]string, len(fired))
	for i, k := range fired {
		names[i] = k.String()
	}
	b.WriteString("   " + dim.Render("flags ") + magenta.Render(strings.Join(names, " ")) + "\n")
	for _, e := range m.events {
		b.WriteString("   " + dimmer.Render(e) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  a acknowledge  r reset  esc scenes  q quit") + "\n")

	return b.String()
}

// sceneBounds frames the initial x/y extent of the scene with a margin.
func sceneBounds(s *demo.Scene) [2]mgl64.Vec3 {
	lo := mgl64.Vec3{math.Inf(1), 0, 0}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), 0}
	for _, p := range s.Graph.Proxies() {
		pos := p.Position()
		lo[0] = math.Min(lo[0], pos.X())
		lo[1] = math.Min(lo[1], pos.Y())
		hi[0] = math.Max(hi[0], pos.X())
		hi[1] = math.Max(hi[1], pos.Y())
	}
	if math.IsInf(lo[0], 0) {
		return [2]mgl64.Vec3{{-5, 0, 0}, {5, 5, 0}}
	}
	lo = lo.Sub(mgl64.Vec3{2, 0.5, 0})
	hi = hi.Add(mgl64.Vec3{2, 1, 0})
	return [2]mgl64.Vec3{lo, hi}
}

func (m model) project(c *canvas, p mgl64.Vec3) (int, int) {
	lo, hi := m.bounds[0], m.bounds[1]
	x := (p.X() - lo.X()) / (hi.X() - lo.X()) * float64(c.w-1)
	y := (hi.Y() - p.Y()) / (hi.Y() - lo.Y()) * float64(c.h-1)
	return int(math.Round(x)), int(math.Round(y))
}

func (m model) draw(c *canvas) {
	w := m.scene.World
	for _, j := range w.Joints() {
		a := j.BodyA().WorldTransform().Origin
		if b := j.BodyB(); b != nil {
			x1, y1 := m.project(c, a)
			x2, y2 := m.project(c, b.WorldTransform().Origin)
			c.line(x1, y1, x2, y2, '·')
		}
	}
	for _, h := range w.Handles() {
		p := h.Proxy()
		if p.Name() == "floor" {
			_, y := m.project(c, mgl64.Vec3{0, 0, 0})
			for x := 0; x < c.w; x++ {
				c.set(x, y, '▔')
			}
			continue
		}
		x, y := m.project(c, p.Position())
		c.set(x, y, glyph(h))
	}
}

func glyph(h *physics.Handle) rune {
	switch h.Motion().Kind {
	case physics.Static:
		return '#'
	case physics.Kinematic:
		return '='
	}
	if !h.Body().IsActive() {
		return 'o'
	}
	return '●'
}

// Run opens the live view and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
