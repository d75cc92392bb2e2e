// Package ui is the live terminal dashboard behind `protozoactl watch`.
//
// The model is driven by the bubbletea event loop and owns its runner; do
// not touch either from another goroutine while the program runs.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"protozoa/internal/agent"
	"protozoa/internal/platform"
)

const (
	minInterval = time.Millisecond
	maxInterval = 2 * time.Second
)

type tickMsg time.Time

type Model struct {
	runner   *platform.Runner
	interval time.Duration
	energy   progress.Model
	snap     agent.Snapshot

	width    int
	height   int
	dishCols int
	dishRows int

	paused   bool
	finished bool
	quitting bool
}

func NewModel(runner *platform.Runner, interval time.Duration) Model {
	return Model{
		runner:   runner,
		interval: clampInterval(interval),
		energy:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),
		snap:     runner.Snapshot(),
		dishCols: 50,
		dishRows: 12,
	}
}

func clampInterval(d time.Duration) time.Duration {
	return min(max(d, minInterval), maxInterval)
}

func (m Model) Snapshot() agent.Snapshot { return m.snap }

func (m Model) Paused() bool { return m.paused }

func (m Model) Finished() bool { return m.finished }

func (m Model) Interval() time.Duration { return m.interval }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.dishCols = min(max(msg.Width/2-4, 20), 100)
		m.dishRows = max(m.dishCols/4, 5)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "n":
			if m.paused {
				m.step()
			}
		case "+", "=":
			m.interval = clampInterval(m.interval / 2)
		case "-":
			m.interval = clampInterval(m.interval * 2)
		}

	case tickMsg:
		if m.finished {
			return m, nil
		}
		if !m.paused {
			m.step()
		}
		if m.finished {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.runner.Done() {
		m.finished = true
		return
	}
	m.snap = m.runner.Step()
	if m.runner.Done() {
		m.finished = true
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return fmt.Sprintf("Stopped at tick %d, energy %.2f.\n", m.snap.Tick, m.snap.Energy)
	}

	s := m.snap
	dish := m.runner.Dish()
	cfg := m.runner.Config()

	status := "running"
	switch {
	case m.finished:
		status = "finished"
	case m.paused:
		status = "paused"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("protozoa"),
		"  ",
		modeStyle(s.Mode).Render(strings.ToUpper(s.Mode.String())),
		"  E ",
		m.energy.ViewAs(s.Energy),
		statsStyle.Render(fmt.Sprintf("  tick %d/%d  seed %d  %s  %s", s.Tick, cfg.Ticks, cfg.Seed, m.interval, status)),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panel("Petri Dish", DishLines(dish, m.dishCols, m.dishRows, s.X, s.Y)),
		panel("Spatial Memory", GridLines(s, cfg.Width, cfg.Height)),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		panel("State", MetricsLines(s)),
		panel("Planning", PlanLines(s)),
		panel("Landmarks", LandmarkLines(s)),
		panel("Morphology", MorphologyLines(s)),
	)
	help := helpStyle.Render("space pause · n step · +/- speed · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, top, bottom, help) + "\n"
}

func panel(title string, lines []string) string {
	body := panelTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return panelStyle.Render(body)
}

// Run shows the dashboard until the user quits, the run finishes and the user
// quits, or ctx is canceled. It returns the last snapshot shown.
func Run(ctx context.Context, runner *platform.Runner, interval time.Duration, opts ...tea.ProgramOption) (agent.Snapshot, error) {
	options := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(NewModel(runner, interval), options...).Run()
	if err != nil {
		return runner.Snapshot(), err
	}
	fm, ok := final.(Model)
	if !ok {
		return runner.Snapshot(), fmt.Errorf("unexpected model type from bubbletea: %T", final)
	}
	return fm.snap, nil
}
