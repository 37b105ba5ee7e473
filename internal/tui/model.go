// Package tui is a terminal consumer of analysis frames.
package tui

import (
	"fmt"
	"strings"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
	"audioviz/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})

	vizStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E05252"))
)

const (
	springFrequency = 12.0
	springDamping   = 0.8

	defaultWidth  = 80
	defaultHeight = 24
	chromeLines   = 6 // Title, status, blank lines and help.
)

// Controller is the part of the session the UI drives.
type Controller interface {
	Snapshot() session.State
	TogglePlayPause() error
	Stop() error
	ToggleSyntheticMode() error
}

var _ Controller = (*session.Session)(nil)

type keyMap struct {
	PlayPause key.Binding
	Stop      key.Binding
	Synthetic key.Binding
	View      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Stop, k.Synthetic, k.View, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		PlayPause: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Synthetic: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "demo")),
		View:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type tickMsg time.Time

// Model polls the controller once per refresh interval and renders the
// current frame. Smoothing only affects what is drawn.
type Model struct {
	ctrl     Controller
	interval time.Duration
	view     View
	keys     keyMap
	help     help.Model

	state     session.State
	spring    harmonica.Spring
	levels    [analysis.BandCount]float64
	velocity  [analysis.BandCount]float64
	amplitude float64
	ampVel    float64

	width  int
	height int
	err    error
}

// New builds a model. An unknown view name is an error.
func New(ctrl Controller, refresh time.Duration, viewName string) (Model, error) {
	if ctrl == nil {
		return Model{}, fmt.Errorf("tui: controller cannot be nil")
	}
	view, err := ParseView(viewName)
	if err != nil {
		return Model{}, fmt.Errorf("tui: %w", err)
	}
	if refresh <= 0 {
		refresh = 33 * time.Millisecond
	}

	fps := max(int(time.Second/refresh), 1)
	return Model{
		ctrl:     ctrl,
		interval: refresh,
		view:     view,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spring:   harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping),
		width:    defaultWidth,
		height:   defaultHeight,
	}, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, resizes and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.state = m.ctrl.Snapshot()
		m.animate()
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.PlayPause):
			m.err = m.ctrl.TogglePlayPause()
		case key.Matches(msg, m.keys.Stop):
			m.err = m.ctrl.Stop()
		case key.Matches(msg, m.keys.Synthetic):
			m.err = m.ctrl.ToggleSyntheticMode()
		case key.Matches(msg, m.keys.View):
			m.view = nextView(m.view)
		}
		if m.err != nil {
			applog.Warnf("tui: %v", m.err)
		}
		m.state = m.ctrl.Snapshot()
	}
	return m, nil
}

// animate moves the displayed levels toward the latest frame.
func (m *Model) animate() {
	f := &m.state.Frame
	for i, target := range f.Bands {
		m.levels[i], m.velocity[i] = m.spring.Update(m.levels[i], m.velocity[i], target)
	}
	m.amplitude, m.ampVel = m.spring.Update(m.amplitude, m.ampVel, f.Amplitude)
}

// View renders the UI
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("audioviz"))
	sb.WriteString("  ")
	sb.WriteString(statusStyle.Render(m.statusLine()))
	sb.WriteString("\n\n")

	height := max(m.height-chromeLines, 1)
	sb.WriteString(vizStyle.Render(render(m.view, m.levels[:], m.amplitude, m.width, height)))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(errStyle.Render(m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) statusLine() string {
	st := &m.state
	name := st.TrackName
	if name == "" {
		name = "no source"
	}

	parts := []string{st.Status.String(), name}
	if st.Duration > 0 {
		parts = append(parts, formatClock(st.Elapsed)+" / "+formatClock(st.Duration))
	}
	if st.PeakHz > 0 {
		parts = append(parts, "peak "+formatHz(st.PeakHz))
	}
	parts = append(parts, m.view.String())
	return strings.Join(parts, " • ")
}

func formatClock(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.1f kHz", hz/1000)
	}
	return fmt.Sprintf("%.0f Hz", hz)
}

// Run blocks until the user quits.
func Run(ctrl Controller, refresh time.Duration, viewName string) error {
	m, err := New(ctrl, refresh, viewName)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
