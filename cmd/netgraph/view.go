package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/recera/netgraph/internal/tui"
	"github.com/recera/netgraph/pkg/graphdata"
)

func newViewCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "view DATA",
		Short: "Explore a diagram in the terminal",
		Long: `Opens a full-screen terminal view of the data file. Drag nodes and the
background with the mouse, click a node to select it, click a legend entry or
press 1-9 to hide a category. Press ? for all keys.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			interval, err := cfg.Serve.FrameInterval()
			if err != nil {
				return err
			}
			d, err := graphdata.Load(args[0])
			if err != nil {
				return err
			}
			// Log lines would tear the full-screen view.
			opts := cfg.Options()
			opts.Logger = logr.Discard()
			m, err := tui.NewModel(d, opts, interval)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
			if err != nil {
				return err
			}
			if n, ok := m.Selected(); ok {
				brand.Fprint(cmd.OutOrStdout(), "selected ")
				subtle.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", n.Label, n.ID)
			}
			return nil
		},
	}
}
