// Package tui renders the arena live in the terminal and drives the
// simulator's control surface from the keyboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/crowdsim/internal/sim"
)

const (
	canvasWidth  = 78
	canvasHeight = 24
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	wallStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	destStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type tickMsg time.Time

type model struct {
	sim *sim.Simulator
	fps int
}

// Run starts the live view. It blocks until the user quits.
func Run(s *sim.Simulator, fps int) error {
	if fps < 1 {
		fps = 20
	}
	p := tea.NewProgram(model{sim: s, fps: fps}, tea.WithAltScreen())
	_, err := p.Run()
	s.Stop()
	return err
}

func (m model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	m.sim.Start()
	return m.frame()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, m.frame()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.sim.Running() {
				m.sim.Stop()
			} else {
				m.sim.Start()
			}
		case "r":
			m.sim.Reset(m.sim.Config())
			m.sim.Start()
		}
	}
	return m, nil
}

func (m model) View() string {
	snap := m.sim.GetState()

	canvas := make([][]rune, canvasHeight)
	for i := range canvas {
		canvas[i] = make([]rune, canvasWidth)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// world to cell mapping; snapshot walls carry the bounds
	minX, minY, maxX, maxY := worldExtent(snap)
	sx := float64(canvasWidth-1) / (maxX - minX)
	sy := float64(canvasHeight-1) / (maxY - minY)
	cell := func(p sim.Point) (int, int) {
		return int((p.X - minX) * sx), canvasHeight - 1 - int((p.Y-minY)*sy)
	}

	set := func(x, y int, c rune) {
		if x >= 0 && x < canvasWidth && y >= 0 && y < canvasHeight {
			canvas[y][x] = c
		}
	}

	for _, w := range snap.Environment.Walls {
		drawLine(set, cell, w.Start, w.End)
	}

	for _, o := range snap.Environment.Obstacles {
		drawObstacle(canvas, cell, o, sx, sy)
	}

	for _, d := range snap.Destinations {
		x, y := cell(d)
		set(x, y, '+')
	}

	for _, a := range snap.Agents {
		x, y := cell(a.Position)
		set(x, y, '@')
	}

	var b strings.Builder
	for _, row := range canvas {
		b.WriteString(styleRow(string(row)))
		b.WriteByte('\n')
	}

	status := "stopped"
	if snap.Running {
		status = "running"
	}
	header := headerStyle.Render("crowdsim") + "  " +
		statusStyle.Render(fmt.Sprintf("t=%.1fs  agents=%d  %s", snap.Time, len(snap.Agents), status))
	help := helpStyle.Render("space start/stop · r reset · q quit")

	return header + "\n" + b.String() + help
}

func worldExtent(snap sim.Snapshot) (minX, minY, maxX, maxY float64) {
	if len(snap.Environment.Walls) == 0 {
		return 0, 0, 1, 1
	}
	w0 := snap.Environment.Walls[0]
	minX, minY, maxX, maxY = w0.Start.X, w0.Start.Y, w0.Start.X, w0.Start.Y
	for _, w := range snap.Environment.Walls {
		for _, p := range []sim.Point{w.Start, w.End} {
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	return minX, minY, maxX, maxY
}

func drawLine(set func(int, int, rune), cell func(sim.Point) (int, int), a, b sim.Point) {
	x1, y1 := cell(a)
	x2, y2 := cell(b)
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(x1, y1, '#')
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawObstacle(canvas [][]rune, cell func(sim.Point) (int, int), o sim.ObstacleState, sx, sy float64) {
	var hw, hh float64
	switch o.Type {
	case "circle":
		hw, hh = o.Radius, o.Radius
	case "rectangle":
		hw, hh = o.Width/2, o.Height/2
	default:
		return
	}

	cx, cy := cell(o.Center)
	rx := int(hw*sx) + 1
	ry := int(hh*sy) + 1
	for y := cy - ry; y <= cy+ry; y++ {
		for x := cx - rx; x <= cx+rx; x++ {
			if y < 0 || y >= len(canvas) || x < 0 || x >= len(canvas[y]) {
				continue
			}
			if o.Type == "circle" {
				fx := float64(x-cx) / sx
				fy := float64(y-cy) / sy
				if fx*fx+fy*fy > hw*hw {
					continue
				}
			}
			canvas[y][x] = '▒'
		}
	}
}

// styleRow colors the structural runes of one canvas row.
func styleRow(row string) string {
	var b strings.Builder
	for _, r := range row {
		switch r {
		case '#', '▒':
			b.WriteString(wallStyle.Render(string(r)))
		case '@':
			b.WriteString(agentStyle.Render(string(r)))
		case '+':
			b.WriteString(destStyle.Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
