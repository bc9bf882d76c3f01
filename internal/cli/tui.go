package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gpuviz/pkg/core/assemble"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/core/layout"
	"github.com/matzehuels/gpuviz/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ExploreModel - Interactive collapse tree
// =============================================================================

// treeLine is one visible row of the hierarchy tree.
type treeLine struct {
	ID          string
	Name        string
	Kind        hierarchy.Kind
	Depth       int
	Collapsible bool
	Collapsed   bool
	Allocated   float64
	Used        float64
}

// diagramStats summarizes the diagram for the current collapse state.
type diagramStats struct {
	Nodes       int
	Edges       int
	Groups      int
	Borrowing   int
	Diagnostics int
	Width       float64
}

// ExploreModel is the bubbletea model for toggling collapse state
// interactively. Every toggle recomputes the diagram so the footer always
// reflects what 'render --collapse' would produce.
type ExploreModel struct {
	Cluster  *hierarchy.Cluster
	State    hierarchy.Collapse
	Geometry layout.Config
	Cursor   int
	Height   int
	Offset   int
	Done     bool // set when the user confirmed with q

	lines []treeLine
	stats diagramStats
}

// NewExploreModel creates an explore model starting from state.
func NewExploreModel(c *hierarchy.Cluster, state hierarchy.Collapse, geometry layout.Config) ExploreModel {
	m := ExploreModel{
		Cluster:  c,
		State:    state.Clone(),
		Geometry: geometry,
		Height:   20,
	}
	m.refresh()
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			m.Done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.lines)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "enter":
			m.toggle()
		case "e":
			m.State = hierarchy.Collapse{}
			m.refresh()
		case "c":
			state := hierarchy.Collapse{}
			for _, org := range m.Cluster.Organizations {
				if org.HasChildren() {
					state[org.ID] = true
				}
			}
			m.State = state
			m.refresh()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Cluster.Name))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s GPU", formatGPU(m.Cluster.TotalGPU))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  e expand all  c collapse all  q done"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.lines) {
		end = len(m.lines)
	}
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderLine(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d nodes · %d edges · %d groups · %d borrowing · width %.0fpx",
		m.stats.Nodes, m.stats.Edges, m.stats.Groups, m.stats.Borrowing, m.stats.Width)))
	if m.stats.Diagnostics > 0 {
		b.WriteString("  ")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d warning(s)", m.stats.Diagnostics)))
	}
	b.WriteString("\n")
	if ids := m.State.IDs(); len(ids) > 0 {
		b.WriteString(listDimStyle.Render("  collapsed: " + strings.Join(ids, ",")))
		b.WriteString("\n")
	}

	return b.String()
}

func (m ExploreModel) renderLine(i int) string {
	l := m.lines[i]

	cursor := "  "
	if i == m.Cursor {
		cursor = "▸ "
	}
	marker := "  "
	if l.Collapsible {
		marker = "▾ "
		if l.Collapsed {
			marker = "▸ "
		}
	}

	indent := strings.Repeat("  ", l.Depth)
	figures := fmt.Sprintf("%s / %s GPU", formatGPU(l.Used), formatGPU(l.Allocated))
	line := fmt.Sprintf("%s%s%s%-28s %s", cursor, indent, marker, l.Name, listDimStyle.Render(figures))

	switch {
	case i == m.Cursor:
		return listSelectedStyle.Render(line)
	case l.Collapsed:
		return StyleHighlight.Render(line)
	case l.Kind == hierarchy.KindProject:
		return listNormalStyle.Render(line)
	default:
		return line
	}
}

// toggle flips the collapse state of the line under the cursor.
func (m *ExploreModel) toggle() {
	if m.Cursor >= len(m.lines) {
		return
	}
	l := m.lines[m.Cursor]
	if !l.Collapsible {
		return
	}
	m.State = m.State.Toggle(l.ID)
	m.refresh()
}

// refresh rebuilds the visible tree and the diagram statistics.
func (m *ExploreModel) refresh() {
	m.lines = treeLines(m.Cluster, m.State)
	if m.Cursor >= len(m.lines) {
		m.Cursor = max(len(m.lines)-1, 0)
	}
	m.Offset = min(m.Offset, m.Cursor)

	d := assemble.Build(m.Cluster, m.State, layout.WithConfig(m.Geometry))
	m.stats = diagramStats{
		Nodes:       len(d.Nodes),
		Edges:       len(d.Edges),
		Groups:      len(d.NodesOfType(graph.NodeTypeGroup)),
		Borrowing:   len(d.EdgesOfType(graph.EdgeTypeBorrowing)),
		Diagnostics: len(d.Diagnostics),
		Width:       d.Width,
	}
}

// treeLines flattens the hierarchy into the rows visible under state.
// Children of collapsed nodes are omitted.
func treeLines(c *hierarchy.Cluster, state hierarchy.Collapse) []treeLine {
	if c == nil {
		return nil
	}
	lines := []treeLine{{
		ID: c.ID, Name: c.Name, Kind: hierarchy.KindCluster,
		Allocated: c.TotalGPU, Used: c.Usage(),
	}}
	project := func(p *hierarchy.Project, depth int) treeLine {
		return treeLine{
			ID: p.ID, Name: p.Name, Kind: hierarchy.KindProject, Depth: depth,
			Allocated: p.AllocatedGPU, Used: p.CurrentUsage,
		}
	}
	for _, org := range c.Organizations {
		var used float64
		for _, p := range org.AllProjects() {
			used += p.CurrentUsage
		}
		orgLine := treeLine{
			ID: org.ID, Name: org.Name, Kind: hierarchy.KindOrganization, Depth: 1,
			Collapsible: org.HasChildren(), Collapsed: org.HasChildren() && state.IsCollapsed(org.ID),
			Allocated: org.AllocatedGPU, Used: used,
		}
		lines = append(lines, orgLine)
		if orgLine.Collapsed {
			continue
		}
		for _, bu := range org.BusinessUnits {
			buLine := treeLine{
				ID: bu.ID, Name: bu.Name, Kind: hierarchy.KindBusinessUnit, Depth: 2,
				Collapsible: len(bu.Projects) > 0, Collapsed: len(bu.Projects) > 0 && state.IsCollapsed(bu.ID),
				Allocated: bu.AllocatedGPU, Used: bu.Usage(),
			}
			lines = append(lines, buLine)
			if buLine.Collapsed {
				continue
			}
			for _, p := range bu.Projects {
				lines = append(lines, project(p, 3))
			}
		}
		for _, p := range org.Projects {
			lines = append(lines, project(p, 2))
		}
	}
	return lines
}
