package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recera/netgraph/internal/config"
	"github.com/recera/netgraph/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	verbose    int
}

// load reads the config file and applies log verbosity. The --verbose flag
// wins over the file.
func (g *globals) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	v := cfg.Log.Verbosity
	if cmd.Flags().Changed("verbose") {
		v = g.verbose
	}
	logging.Init(v)
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "netgraph",
		Short: "netgraph - force-directed network diagrams",
		Long: `netgraph lays out node/link data sets with a force simulation and renders
them as SVG, Graphviz DOT or JSON, in the browser, or in the terminal.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (.yaml, .toml or .json)")
	rootCmd.PersistentFlags().IntVarP(&g.verbose, "verbose", "v", 0, "Log verbosity")

	rootCmd.AddCommand(newRenderCommand(g))
	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newViewCommand(g))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			brand.Fprint(out, "netgraph ")
			fmt.Fprint(out, version)
			subtle.Fprintf(out, " (commit: %s, built: %s)\n", commit, date)
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		warn.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
