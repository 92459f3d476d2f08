package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/qomsim/internal/sweep"
)

type TickMsg time.Time

// ProgressMsg reports how many grid points have finished.
type ProgressMsg struct{ Done, Total int }

// DoneMsg ends the sweep, successfully or not.
type DoneMsg struct {
	Grid *sweep.Grid
	Err  error
}

// ProgressModel is a Bubble Tea view of a running sweep. Pressing q or
// ctrl+c calls cancel and waits for the sweep to return.
type ProgressModel struct {
	title       string
	done, total int
	frame       int
	started     time.Time
	cancel      context.CancelFunc
	canceled    bool

	Grid *sweep.Grid
	Err  error
}

func NewProgressModel(title string, total int, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{title: title, total: total, cancel: cancel, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd { return tick() }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil && !m.canceled {
				m.cancel()
				m.canceled = true
			}
		}
	case ProgressMsg:
		m.done, m.total = msg.Done, msg.Total
	case DoneMsg:
		m.Grid, m.Err = msg.Grid, msg.Err
		if m.Grid != nil {
			m.done = len(m.Grid.Results)
		}
		return m, tea.Quit
	case TickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) fraction() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m ProgressModel) View() string {
	var b strings.Builder
	status := Spinner(m.frame)
	if m.canceled {
		status = StatusWarn.Render("canceling")
	}
	fmt.Fprintf(&b, "%s %s\n\n", Title.Render(m.title), status)
	fmt.Fprintf(&b, "%s %d/%d\n", ProgressBar(m.fraction(), 40), m.done, m.total)
	elapsed := time.Since(m.started).Round(time.Second)
	eta := "-"
	if m.done > 0 && m.done < m.total {
		rem := time.Duration(float64(time.Since(m.started)) * float64(m.total-m.done) / float64(m.done))
		eta = rem.Round(time.Second).String()
	}
	fmt.Fprintf(&b, "%s\n", Subtle.Render(fmt.Sprintf("elapsed %s  eta %s  q to cancel", elapsed, eta)))
	return b.String()
}

// RunWithProgress calls run under a Bubble Tea progress view. run gets a
// context that the keyboard can cancel and a progress callback.
func RunWithProgress(ctx context.Context, title string, total int,
	run func(ctx context.Context, progress func(done, total int)) (*sweep.Grid, error),
	opts ...tea.ProgramOption) (*sweep.Grid, error) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, total, cancel), opts...)
	go func() {
		grid, err := run(ctx, func(done, total int) { p.Send(ProgressMsg{Done: done, Total: total}) })
		p.Send(DoneMsg{Grid: grid, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(ProgressModel)
	return m.Grid, m.Err
}
