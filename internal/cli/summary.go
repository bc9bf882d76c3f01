package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gpuviz/pkg/core/aggregate"
	"github.com/matzehuels/gpuviz/pkg/core/borrow"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/graph"
	gvio "github.com/matzehuels/gpuviz/pkg/io"
)

// summaryCommand creates the summary command, which prints per-row and
// per-organization GPU totals without computing a layout.
func (c *CLI) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [hierarchy.json|hierarchy.toml]",
		Short: "Print GPU totals per hierarchy level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSummary(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runSummary(ctx context.Context, input string) error {
	cluster, err := gvio.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load hierarchy %s: %w", input, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	loans, diags := borrow.Resolve(cluster)
	rows := aggregate.Summarize(cluster, loans)
	c.Logger.Debug("summarized hierarchy", "cluster", cluster.ID, "projects", rows.Projects.Count)

	fmt.Println(StyleTitle.Render(cluster.Name) + " " + StyleDim.Render(cluster.ID))
	fmt.Println(renderTable([]string{"Level", "Count", "Allocated", "Used", "Util", "Borrowed"}, levelRows(rows)))
	if len(cluster.Organizations) > 0 {
		fmt.Println(renderTable([]string{"Organization", "Allocated", "Share", "Used", "Projects"}, organizationRows(cluster)))
	}
	printDiagnostics(diags)
	return nil
}

// levelRows formats the four band rows of a cluster.
func levelRows(r aggregate.Rows) [][]string {
	level := func(name string, s aggregate.Summary) []string {
		return []string{
			name,
			fmt.Sprintf("%d", s.Count),
			formatGPU(s.TotalGPU),
			formatGPU(s.UsedGPU),
			formatRatio(s.UsedGPU, s.TotalGPU),
			formatBorrowed(s.BorrowedGPU),
		}
	}
	return [][]string{
		level("Cluster", r.Root),
		level("Organizations", r.Organizations),
		level("Business units", r.BusinessUnits),
		level("Projects", r.Projects),
	}
}

// organizationRows lists each organization with its share of the cluster.
func organizationRows(c *hierarchy.Cluster) [][]string {
	rows := make([][]string, 0, len(c.Organizations))
	for _, org := range c.Organizations {
		s := aggregate.Projects(org.AllProjects(), nil)
		rows = append(rows, []string{
			org.Name,
			formatGPU(org.AllocatedGPU),
			formatRatio(org.AllocatedGPU, c.TotalGPU),
			formatGPU(s.UsedGPU),
			fmt.Sprintf("%d", s.Count),
		})
	}
	return rows
}

func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col == 0 {
				return cellStyle.Foreground(colorWhite)
			}
			return cellStyle.Foreground(colorCyan)
		})
	return t.Render()
}

// =============================================================================
// Number Formatting
// =============================================================================

func formatGPU(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// formatRatio renders part/whole as a percentage, or the undefined marker
// when whole is not positive.
func formatRatio(part, whole float64) string {
	if whole <= 0 {
		return graph.PercentUndefined
	}
	return fmt.Sprintf("%.1f%%", part/whole*100)
}

// formatBorrowed hides immaterial borrowed amounts.
func formatBorrowed(v float64) string {
	if !borrow.Material(v) {
		return graph.PercentUndefined
	}
	return formatGPU(v)
}
