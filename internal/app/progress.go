package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spacefreq/ificsync/internal/catalog"
	"github.com/spacefreq/ificsync/internal/downloader"
)

// archiveProgressMsg carries one scheduler progress event into the UI loop.
type archiveProgressMsg struct {
	p downloader.Progress
}

// downloadsDoneMsg signals that every download reached a terminal state.
type downloadsDoneMsg struct{}

type fileLine struct {
	name   string
	status string
	bytes  int64
	errMsg string
	start  time.Time
}

type progressModel struct {
	spinner spinner.Model
	bar     progress.Model

	total     int
	completed int
	files     map[string]*fileLine
	order     []string

	termWidth  int
	termHeight int
	quitting   bool
}

func newProgressModel(total int) *progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &progressModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		total:   total,
		files:   make(map[string]*fileLine),
	}
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Transfers run to completion; quitting only drops the view.
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.bar.Width = max(0, m.termWidth-8)
	case archiveProgressMsg:
		fl, exists := m.files[msg.p.Name]
		if !exists {
			fl = &fileLine{name: msg.p.Name, status: "Queued", start: time.Now()}
			m.files[msg.p.Name] = fl
			m.order = append(m.order, msg.p.Name)
		}
		if !msg.p.Terminal {
			fl.status = "Downloading"
		} else {
			m.completed++
			fl.bytes = msg.p.Bytes
			if msg.p.Status == downloader.StatusSuccess {
				fl.status = "Complete"
			} else {
				fl.status = "Error"
				if msg.p.Err != nil {
					fl.errMsg = msg.p.Err.Error()
				}
			}
		}
		var percent float64
		if m.total > 0 {
			percent = float64(m.completed) / float64(m.total)
		}
		cmds = append(cmds, m.bar.SetPercent(percent))
	case downloadsDoneMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		if newBar, ok := barModel.(progress.Model); ok {
			m.bar = newBar
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *progressModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Downloading archives (%d/%d)\n", m.spinner.View(), m.completed, m.total))
	b.WriteString(progressBarStyle.Render(m.bar.View()))
	b.WriteString("\n\n")

	maxLines := m.termHeight - 8
	if maxLines < 1 {
		maxLines = 1
	}
	startIdx := 0
	if len(m.order) > maxLines {
		startIdx = len(m.order) - maxLines
	}

	if len(m.order) > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-45s | %-12s | %s", "Archive", "Status", "Bytes")))
		b.WriteString("\n")
		for i := startIdx; i < len(m.order); i++ {
			fl := m.files[m.order[i]]
			if fl == nil {
				continue
			}
			style, ok := statusStyles[fl.status]
			if !ok {
				style = infoStyle
			}
			bytesStr := ""
			if fl.bytes > 0 {
				bytesStr = fmt.Sprintf("%d", fl.bytes)
			}
			b.WriteString(fmt.Sprintf("%-45s | %-12s | %s\n", truncate(fl.name, 45), style.Render(fl.status), bytesStr))
			if fl.errMsg != "" {
				b.WriteString(errorStyle.Render("  -> " + truncate(fl.errMsg, max(20, m.termWidth-6))))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render("Downloads running... 'q' hides this view (transfers continue)."))
	return b.String()
}

// FetchWithProgress runs the scheduler under a live progress view and
// returns its outcomes once every record is terminal. The UI is purely
// observational; closing it never interrupts a transfer.
func FetchWithProgress(ctx context.Context, sched *downloader.Scheduler, records []catalog.Record) ([]downloader.Outcome, error) {
	model := newProgressModel(len(records))
	p := tea.NewProgram(model)

	sched.OnProgress = func(pr downloader.Progress) {
		p.Send(archiveProgressMsg{p: pr})
	}

	var outcomes []downloader.Outcome
	done := make(chan struct{})
	go func() {
		defer close(done)
		outcomes = sched.Fetch(ctx, records)
		p.Send(downloadsDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		<-done
		return outcomes, fmt.Errorf("progress view: %w", err)
	}
	// Dismissing the view early leaves the pool running; wait for every
	// record to reach a terminal state before returning.
	<-done
	return outcomes, nil
}

// TUIFetcher adapts FetchWithProgress to the pipeline's download stage.
type TUIFetcher struct {
	Scheduler *downloader.Scheduler
	Logger    *slog.Logger
}

func (f *TUIFetcher) Fetch(ctx context.Context, records []catalog.Record) []downloader.Outcome {
	outcomes, err := FetchWithProgress(ctx, f.Scheduler, records)
	if err != nil {
		// The pool already finished; only the view failed.
		f.Logger.Warn("Progress view unavailable.", "error", err)
	}
	return outcomes
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
