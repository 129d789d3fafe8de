package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/jsonops/pkg/compare"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	detailPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// typeFilters is the cycle of type filters; "" shows every record.
var typeFilters = []compare.Type{
	"",
	compare.ValueDifference,
	compare.ArrayDifference,
	compare.MissingInFirst,
	compare.MissingInSecond,
}

// =============================================================================
// DiffBrowserModel - Interactive difference browser
// =============================================================================

// DiffBrowserModel is the bubbletea model for browsing difference records.
type DiffBrowserModel struct {
	Diffs   []compare.Difference
	First   string // label of the first document
	Second  string // label of the second document
	Cursor  int
	Offset  int
	Height  int
	Detail  bool // show the selected record's values in full
	Filter  int  // index into typeFilters
	visible []int
}

// newDiffBrowserModel creates a browser over diffs.
func newDiffBrowserModel(diffs []compare.Difference, first, second string) DiffBrowserModel {
	m := DiffBrowserModel{
		Diffs:  diffs,
		First:  first,
		Second: second,
		Height: 15,
	}
	m.applyFilter()
	return m
}

// applyFilter recomputes the visible records and clamps the cursor.
func (m *DiffBrowserModel) applyFilter() {
	want := typeFilters[m.Filter]
	visible := make([]int, 0, len(m.Diffs))
	for i, d := range m.Diffs {
		if want == "" || d.Type == want {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor = min(m.Cursor, max(len(m.visible)-1, 0))
	m.Offset = min(m.Offset, m.Cursor)
}

// Selected returns the record under the cursor.
func (m DiffBrowserModel) Selected() (compare.Difference, bool) {
	if len(m.visible) == 0 {
		return compare.Difference{}, false
	}
	return m.Diffs[m.visible[m.Cursor]], true
}

func (m DiffBrowserModel) Init() tea.Cmd {
	return nil
}

func (m DiffBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Detail = !m.Detail
		case "t":
			m.Filter = (m.Filter + 1) % len(typeFilters)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		if m.Detail {
			m.Height = max(m.Height/2, 3)
		}
	}
	return m, nil
}

func (m DiffBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s %s %s", m.First, iconArrow, m.Second)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  t filter  q quit"))
	if f := typeFilters[m.Filter]; f != "" {
		b.WriteString(listDimStyle.Render("  [" + string(f) + "]"))
	}
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Diffs[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.Property, string(d.Type), cell(d.Value1), cell(d.Value2)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Property", "Type", "First", "Second").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.visible) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 2 {
				base = typeStyle(m.Diffs[m.visible[idx]].Type)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if d, ok := m.Selected(); ok && m.Detail {
		b.WriteString(detailPaneStyle.Render(detailView(d)))
		b.WriteString("\n")
	}

	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.visible)), len(m.visible))))
	return b.String()
}

// detailView shows a record with both values pretty-printed.
func detailView(d compare.Difference) string {
	var b strings.Builder
	b.WriteString(detailKeyStyle.Render("property ") + d.Property + "\n")
	b.WriteString(detailKeyStyle.Render("type     ") + typeStyle(d.Type).Render(string(d.Type)) + "\n")
	b.WriteString(detailKeyStyle.Render("first") + "\n" + prettyValue(d.Value1) + "\n")
	b.WriteString(detailKeyStyle.Render("second") + "\n" + prettyValue(d.Value2))
	return b.String()
}

func prettyValue(v jsonvalue.Value) string {
	if v.IsUndefined() {
		return listDimStyle.Render("(absent)")
	}
	data, err := jsonvalue.Indent(v, "", "  ")
	if err != nil {
		return v.String()
	}
	return string(data)
}
