package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recera/netgraph/internal/cache"
	"github.com/recera/netgraph/internal/logging"
	"github.com/recera/netgraph/pkg/export"
	"github.com/recera/netgraph/pkg/graphdata"
	"github.com/recera/netgraph/pkg/netgraph"
	"github.com/recera/netgraph/pkg/scheduler"
)

const defaultTicks = 1000

type renderOptions struct {
	output string
	format string
	ticks  int
	seed   uint64
	hide   []string
	fit    bool
	name   string
	cache  string
}

func newRenderCommand(g *globals) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render DATA",
		Short: "Lay out a data file and write SVG, DOT or JSON",
		Long: `Loads a JSON or YAML data file, runs the force simulation until it cools,
and writes the result. The format is taken from --format, else from the output
file's extension, else SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			opts := cfg.Options()
			if cmd.Flags().Changed("seed") {
				opts.Seed = o.seed
			}
			return runRender(cmd, args[0], opts, o)
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "Output format: svg, dot or json")
	cmd.Flags().IntVar(&o.ticks, "ticks", defaultTicks, "Maximum simulation ticks")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "Random seed for a reproducible layout")
	cmd.Flags().StringSliceVar(&o.hide, "hide", nil, "Categories to hide")
	cmd.Flags().BoolVar(&o.fit, "fit", false, "Fit the view to the graph (SVG)")
	cmd.Flags().StringVar(&o.name, "name", "netgraph", "Graph name (DOT)")
	cmd.Flags().StringVar(&o.cache, "cache", "", "Layout cache directory; reuses settled layouts of unchanged inputs")
	return cmd
}

func outputFormat(format, output string) (string, error) {
	if format == "" {
		switch ext := strings.ToLower(filepath.Ext(output)); ext {
		case "", ".svg":
			format = "svg"
		case ".dot", ".gv":
			format = "dot"
		case ".json":
			format = "json"
		default:
			return "", fmt.Errorf("cannot infer output format from %q, use --format", ext)
		}
	}
	switch format {
	case "svg", "dot", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// layoutInputs lists everything besides the data that changes node positions.
func layoutInputs(opts netgraph.Options, o *renderOptions) []string {
	return []string{
		fmt.Sprintf("size=%gx%g radius=%g", opts.Width, opts.Height, opts.NodeRadius),
		fmt.Sprintf("repulsion=%g distance=%g decay=%g alphaMin=%g", opts.Repulsion, opts.LinkDistance, opts.VelocityDecay, opts.AlphaMin),
		fmt.Sprintf("seed=%d ticks=%d", opts.Seed, o.ticks),
		fmt.Sprintf("exclude=%t hide=%s", opts.ExcludeHidden, strings.Join(o.hide, ",")),
	}
}

func runRender(cmd *cobra.Command, path string, opts netgraph.Options, o *renderOptions) error {
	format, err := outputFormat(o.format, o.output)
	if err != nil {
		return err
	}
	slices.Sort(o.hide)
	o.hide = slices.Compact(o.hide)
	d, err := graphdata.Load(path)
	if err != nil {
		return err
	}

	log := logging.Log()
	var lc *cache.Cache
	var key string
	if o.cache != "" {
		if lc, err = cache.New(cache.Config{Dir: o.cache, Logger: log}); err != nil {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key = cache.Key(raw, layoutInputs(opts, o)...)
		if cached, ok := lc.Get(key); ok {
			log.V(1).Info("layout cache hit", "key", key[:12])
			d, o.ticks = cached, 0
		}
	}

	opts.Logger = log
	c := netgraph.New(scheduler.NewLoop(0), &opts)
	defer c.Close()
	if err := c.Assign(d); err != nil {
		return err
	}
	for _, cat := range o.hide {
		if !c.IsHidden(cat) {
			c.ToggleCategory(cat)
		}
	}
	ticks := c.Settle(o.ticks)
	if lc != nil && ticks > 0 {
		if err := lc.Put(key, export.FromComponent(c).Data()); err != nil {
			log.Error(err, "failed to cache layout")
		}
	}
	if o.fit {
		c.FitGraph(2 * c.NodeRadius())
	}

	var buf bytes.Buffer
	switch format {
	case "svg":
		err = c.WriteSVG(&buf)
	case "dot":
		var b []byte
		if b, err = export.DOT(export.FromComponent(c), o.name); err == nil {
			buf.Write(b)
		}
	case "json":
		err = export.JSON(&buf, export.FromComponent(c))
	}
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if o.output != "" {
		if err := os.WriteFile(o.output, buf.Bytes(), 0o644); err != nil {
			return err
		}
		counts := c.Renderer().Counts()
		w := cmd.ErrOrStderr()
		brand.Fprint(w, "rendered ")
		fmt.Fprintf(w, "%s ", o.output)
		subtle.Fprintf(w, "(%s, %d nodes, %d links, %d ticks)\n", format, counts.Nodes, counts.Links, ticks)
		return nil
	}
	_, err = out.Write(buf.Bytes())
	return err
}
