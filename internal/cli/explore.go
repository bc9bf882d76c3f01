package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/core/layout"
	gvio "github.com/matzehuels/gpuviz/pkg/io"
)

// exploreCommand creates the explore command, an interactive tree for
// choosing which organizations and business units to collapse.
func (c *CLI) exploreCommand() *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   "explore [hierarchy.json|hierarchy.toml]",
		Short: "Interactively collapse and expand the hierarchy",
		Long: `Interactively collapse and expand the hierarchy.

Move with the arrow keys and press space to toggle the node under the cursor.
The footer shows the size of the resulting diagram. Press q to finish; the
chosen collapse set is printed as a ready-to-run render command, and --save
writes a copy of the hierarchy with the collapse flags stored in it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0], save)
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "write the hierarchy with the chosen collapse flags to this file")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input, save string) error {
	cluster, err := gvio.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load hierarchy %s: %w", input, err)
	}

	m := NewExploreModel(cluster, hierarchy.InitialCollapse(cluster), layout.DefaultConfig())
	p := tea.NewProgram(m, tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	fm, ok := finalModel.(ExploreModel)
	if !ok || !fm.Done {
		printDetail("Nothing changed")
		return nil
	}

	ids := fm.State.IDs()
	c.Logger.Debug("explore finished", "collapsed", len(ids))

	if save != "" {
		applyCollapse(cluster, fm.State)
		if err := gvio.ExportFile(cluster, save); err != nil {
			return fmt.Errorf("write %s: %w", save, err)
		}
		printSuccess("Saved collapse state")
		printFile(save)
	}

	render := appName + " render -f svg " + input
	if len(ids) > 0 {
		render += " --collapse " + strings.Join(ids, ",")
	}
	printNextStep("Render", render)
	return nil
}

// applyCollapse stores state in the hierarchy's own collapse flags so that
// it is picked up again by InitialCollapse.
func applyCollapse(c *hierarchy.Cluster, state hierarchy.Collapse) {
	for _, org := range c.Organizations {
		org.Collapsed = state.IsCollapsed(org.ID)
		for _, bu := range org.BusinessUnits {
			bu.Collapsed = state.IsCollapsed(bu.ID)
		}
	}
}
