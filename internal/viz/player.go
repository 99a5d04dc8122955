package viz

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

type tickMsg time.Time

// Player is the interactive trajectory animation: it plays a recorded run
// frame by frame on a braille canvas with a rotatable 3D camera. It consumes
// (particle count, trajectory, times) and returns nothing to the core.
type Player struct {
	particles int
	states    [][]float64
	times     []float64
	fps       int
	trail     int

	frame   int
	playing bool
	canvas  *Canvas
	cam     *Camera
	width   int
	height  int

	center [3]float64
	radius float64
}

func NewPlayer(particles int, states [][]float64, times []float64, fps int) *Player {
	if fps <= 0 {
		fps = 30
	}
	p := &Player{
		particles: particles,
		states:    states,
		times:     times,
		fps:       fps,
		trail:     40,
		playing:   true,
		cam:       NewCamera(),
		width:     80,
		height:    24,
	}
	p.fitBounds()
	return p
}

// fitBounds centers and scales the whole trajectory into the unit cube so
// the camera never needs per-frame rescaling.
func (p *Player) fitBounds() {
	var lo, hi [3]float64
	for a := 0; a < 3; a++ {
		lo[a] = math.Inf(1)
		hi[a] = math.Inf(-1)
	}
	for _, st := range p.states {
		for i := 0; i < p.particles; i++ {
			for a := 0; a < 3; a++ {
				v := st[3*i+a]
				lo[a] = math.Min(lo[a], v)
				hi[a] = math.Max(hi[a], v)
			}
		}
	}
	p.radius = 0
	for a := 0; a < 3; a++ {
		p.center[a] = (lo[a] + hi[a]) / 2
		p.radius = math.Max(p.radius, (hi[a]-lo[a])/2)
	}
	if p.radius == 0 {
		p.radius = 1
	}
}

func (p *Player) world(frame, particle, axis int) float64 {
	return (p.states[frame][3*particle+axis] - p.center[axis]) / p.radius
}

func (p *Player) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(p.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (p *Player) Init() tea.Cmd {
	return p.tick()
}

func (p *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.canvas = nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return p, tea.Quit
		case " ":
			p.playing = !p.playing
		case "left":
			p.playing = false
			p.frame = (p.frame - 1 + len(p.states)) % len(p.states)
		case "right":
			p.playing = false
			p.frame = (p.frame + 1) % len(p.states)
		case "up":
			p.cam.RotateX(0.1)
		case "down":
			p.cam.RotateX(-0.1)
		case "h":
			p.cam.RotateY(-0.1)
		case "l":
			p.cam.RotateY(0.1)
		case "+", "=":
			p.cam.ZoomIn()
		case "-":
			p.cam.ZoomOut()
		case "r":
			p.cam.Reset()
			p.frame = 0
		}

	case tickMsg:
		if p.playing {
			p.frame = (p.frame + 1) % len(p.states)
		}
		return p, p.tick()
	}

	return p, nil
}

func (p *Player) View() string {
	ch := p.height - 3
	if ch < 4 {
		ch = 4
	}
	cw := p.width
	if cw < 10 {
		cw = 10
	}
	if p.canvas == nil || p.canvas.Width != cw || p.canvas.Height != ch {
		p.canvas = NewCanvas(cw, ch)
	}
	p.canvas.Clear()

	sw, sh := cw*2, ch*4

	start := p.frame - p.trail
	if start < 0 {
		start = 0
	}
	for i := 0; i < p.particles; i++ {
		prevOK := false
		var px, py int
		for f := start; f <= p.frame; f++ {
			x, y, ok := p.cam.Project(p.world(f, i, 0), p.world(f, i, 1), p.world(f, i, 2), sw, sh)
			if ok && prevOK {
				p.canvas.DrawLine(px, py, x, y)
			} else if ok {
				p.canvas.Set(x, y)
			}
			px, py, prevOK = x, y, ok
		}
	}

	state := "playing"
	style := titleStyle
	if !p.playing {
		state = "paused"
		style = pausedStyle
	}

	header := style.Render(fmt.Sprintf("partsim  t=%.4g  frame %d/%d  [%s]",
		p.times[p.frame], p.frame+1, len(p.states), state))
	help := statusStyle.Render("space pause  ←/→ step  ↑/↓ h/l rotate  +/- zoom  r reset  q quit")

	return header + "\n" + p.canvas.String() + help
}

// Run blocks until the user quits the animation.
func (p *Player) Run() error {
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
