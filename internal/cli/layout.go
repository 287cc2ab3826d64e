package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewire/pkg/layout"
)

// layoutCommand creates the layout command, which computes node positions
// and stores them in the document.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		engine string
		pick   bool
	)

	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Compute node positions and store them in the document",
		Long: `Compute node positions and store them in the document.

The graphviz engine lays nodes out left to right along their connections.
The grid engine places nodes in columns by connection depth and needs no
graphviz. Results are cached by graph structure, so re-running on an
unchanged graph is instant.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, _, err := fileArg(ctx, args, pick, false)
			if err != nil {
				return err
			}
			return c.runLayout(ctx, path, engine)
		},
	}

	cmd.Flags().StringVarP(&engine, "engine", "e", "", "layout engine: graphviz, grid (default from config)")
	addPickFlag(cmd, &pick)
	return cmd
}

// runLayout opens the document, runs one layout pass and writes it back.
func (c *CLI) runLayout(ctx context.Context, path, engine string) error {
	if engine == "" {
		engine = c.cfg.Layout.Engine
	}
	if _, err := layout.New(engine); err != nil {
		return err
	}
	s, err := c.openSession(ctx, path, sessionOptions{engine: engine})
	if err != nil {
		return err
	}
	defer s.Close()

	p := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Computing "+engine+" layout...")
	spinner.Start()
	if err := s.ed.Layout(ctx); err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	p.done("Layout computed")

	if err := s.save(ctx); err != nil {
		return err
	}
	v := s.ed.Snapshot()
	printSuccess("Layout complete")
	printFile(path)
	printStats(len(v.Nodes), len(v.Connections))
	printNewline()
	printNextStep("Render", "nodewire render "+path)
	return nil
}
