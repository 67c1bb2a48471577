// Package app provides the interactive surfaces of the tool: the download
// confirmation prompt and the live download progress view. Both are plain
// bubbletea programs so the pipeline itself stays free of any terminal
// dependency.
package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spacefreq/ificsync/internal/catalog"
)

const maxPreviewRows = 20

type confirmModel struct {
	records  []catalog.Record
	approved bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			m.approved = true
			m.done = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.approved = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d archive(s) need downloading:", len(m.records))))
	b.WriteString("\n\n")

	shown := m.records
	if len(shown) > maxPreviewRows {
		shown = shown[:maxPreviewRows]
	}
	for _, rec := range shown {
		b.WriteString(listItemStyle.Render(fmt.Sprintf("%s  %s", rec.Date.Format("02.01.2006"), rec.Name)))
		b.WriteString("\n")
	}
	if len(m.records) > maxPreviewRows {
		b.WriteString(listItemStyle.Render(infoStyle.Render(fmt.Sprintf("… and %d more", len(m.records)-maxPreviewRows))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptStyle.Render("Proceed with download? (y/n)"))
	b.WriteString("\n")
	return b.String()
}

// Confirm shows the pending archives and blocks until the user answers. It
// satisfies the pipeline's confirmation gate signature.
func Confirm(records []catalog.Record) (bool, error) {
	p := tea.NewProgram(confirmModel{records: records})
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("confirmation prompt returned unexpected model %T", final)
	}
	return m.approved, nil
}
