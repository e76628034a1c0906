package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/K2/matrix.svg/pkg/rain"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// PresetListModel is the bubbletea model for interactive preset selection.
type PresetListModel struct {
	Names    []string
	Cursor   int
	Selected string
}

// NewPresetListModel creates a preset list model over all known presets.
func NewPresetListModel() PresetListModel {
	return PresetListModel{Names: rain.PresetNames()}
}

func (m PresetListModel) Init() tea.Cmd {
	return nil
}

func (m PresetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Names)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Names[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m PresetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Preset"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := [][]string{}
	for i, name := range m.Names {
		cfg, err := rain.Preset(name)
		if err != nil {
			continue
		}

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		lightning := "✓"
		if !cfg.IncludeLightning {
			lightning = "—"
		}

		rows = append(rows, []string{
			cursor,
			name,
			strconv.Itoa(cfg.TotalColumns()),
			fmt.Sprintf("%d-%d", cfg.GlyphsMin, cfg.GlyphsMax),
			lightning,
			strconv.Itoa(cfg.NiceLevel),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Preset", "Columns", "Glyphs", "Lightning", "Nice").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Names))))

	return b.String()
}

// pickPreset runs the interactive preset picker and returns the chosen
// configuration. The second return is false when the user quit without
// selecting.
func pickPreset() (rain.Config, bool, error) {
	final, err := tea.NewProgram(NewPresetListModel()).Run()
	if err != nil {
		return rain.Config{}, false, err
	}
	m, ok := final.(PresetListModel)
	if !ok || m.Selected == "" {
		return rain.Config{}, false, nil
	}
	cfg, err := rain.Preset(m.Selected)
	if err != nil {
		return rain.Config{}, false, err
	}
	return cfg, true, nil
}
