// Package ebitenhost runs an arbor root inside an ebiten window. The game's
// Update polls the mouse into the root's event manager and steps a
// ManualHost one frame; Draw paints the wireframe captured on the last
// rendered frame.
package ebitenhost

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/phanxgames/arbor"
)

// Options configures a Game.
type Options struct {
	Title   string
	ShowFPS bool
	// Input samples the pointer; MouseInput when nil.
	Input Input
	// TickInterval is the host time added per Update; 1/60 s when zero.
	TickInterval time.Duration
	// Background fills the screen before the wireframe is drawn.
	Background color.RGBA
	// OnUpdate runs after the host frame of every Update.
	OnUpdate func() error
}

// Game implements ebiten.Game for one root.
type Game struct {
	store  *arbor.Store
	host   *arbor.ManualHost
	script *arbor.ScriptRunner
	opts   Options

	now      time.Duration
	pointer  pointerState
	captured map[int]bool

	segments []Segment
	renders  int

	removeEffect func()
}

// New creates a game driving store, whose loop must run on host. The
// wireframe is captured after every tick in which a root rendered.
func New(store *arbor.Store, host *arbor.ManualHost, opts Options) *Game {
	if opts.Input == nil {
		opts.Input = MouseInput
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	g := &Game{
		store:    store,
		host:     host,
		opts:     opts,
		now:      host.Now(),
		captured: make(map[int]bool),
	}
	g.removeEffect = store.Loop().AddAfterEffect(func(time.Duration) { g.capture() })
	return g
}

// NewScriptGame plays runner in a window. The runner must have been created
// on host.
func NewScriptGame(runner *arbor.ScriptRunner, host *arbor.ManualHost, opts Options) *Game {
	g := New(runner.Store(), host, opts)
	g.script = runner
	return g
}

// Store returns the root the game drives.
func (g *Game) Store() *arbor.Store { return g.store }

// Segments returns the wireframe captured on the last rendered tick.
func (g *Game) Segments() []Segment { return g.segments }

// Renders returns the number of ticks captured.
func (g *Game) Renders() int { return g.renders }

// Close stops capturing frames.
func (g *Game) Close() {
	if g.removeEffect != nil {
		g.removeEffect()
		g.removeEffect = nil
	}
}

func (g *Game) capture() {
	st := g.store.Get()
	g.segments = Wireframe(st.Scene, st.Camera, st.Size.Width, st.Size.Height)
	g.renders++
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.processPointer(g.opts.Input())

	g.now += g.opts.TickInterval
	g.host.Frame(g.now)

	if g.script != nil && !g.script.Done() {
		if _, err := g.script.Tick(); err != nil {
			return err
		}
	}
	if g.opts.OnUpdate != nil {
		return g.opts.OnUpdate()
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.opts.Background)
	for _, s := range g.segments {
		vector.StrokeLine(screen, s.X0, s.Y0, s.X1, s.Y1, 1, s.Color, true)
	}
	if g.opts.ShowFPS {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nRenders: %d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), g.renders), 4, 4)
	}
}

// Layout implements ebiten.Game. The root follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := arbor.Size{Width: float64(outsideWidth), Height: float64(outsideHeight)}
	if size.Width > 0 && size.Height > 0 && size != g.store.Get().Size {
		g.store.SetSize(size)
	}
	return outsideWidth, outsideHeight
}

// Run opens a resizable window sized to the root and runs g until the window
// is closed.
func Run(g *Game) error {
	size := g.store.Get().Size
	title := g.opts.Title
	if title == "" {
		title = "arbor"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(int(size.Width), int(size.Height))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	defer g.Close()
	return ebiten.RunGame(g)
}
