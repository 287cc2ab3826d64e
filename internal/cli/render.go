package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/render/nodelink"
)

const (
	formatSVG = "svg"
	formatDOT = "dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file; the extension picks the format unless --format is set
	format   string // svg or dot
	detailed bool   // show control values on nodes
	pick     bool
}

// renderCommand creates the render command for drawing a graph.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a graph to SVG or DOT",
		Long: `Render a graph to SVG or DOT.

Nodes are drawn as records with their input and output ports; connections
run from output port to input port. SVG output goes through graphviz.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, _, err := fileArg(ctx, args, opts.pick, false)
			if err != nil {
				return err
			}
			format, err := resolveFormat(opts.format, opts.output)
			if err != nil {
				return err
			}
			if opts.output == "" {
				opts.output = outputPath(path, "."+format)
			}
			return c.runRender(ctx, path, format, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show control values on nodes")
	addPickFlag(cmd, &opts.pick)
	return cmd
}

// resolveFormat picks the output format from the flag, then the output
// extension, then svg.
func resolveFormat(flag, output string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch f {
	case "", formatSVG:
		return formatSVG, nil
	case formatDOT, "gv":
		return formatDOT, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported render format %q (want svg or dot)", f)
}

func (c *CLI) runRender(ctx context.Context, path, format string, opts renderOpts) error {
	s, err := c.openSession(ctx, path, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	dot := nodelink.ToDOT(s.ed.Snapshot(), nodelink.Options{Detailed: opts.detailed})
	data := []byte(dot)
	if format == formatSVG {
		spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
		data, err = nodelink.RenderSVG(ctx, dot)
		if err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
		spinner.Stop()
	}

	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", opts.output)
	}
	printSuccess("Rendered %s", strings.ToUpper(format))
	printFile(opts.output)
	return nil
}
