package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewire/pkg/storage"
)

// pushCommand creates the "push" command, which uploads a document to a
// document store.
func (c *CLI) pushCommand() *cobra.Command {
	var (
		backend string
		id      string
		pick    bool
	)
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Upload a graph to a document store",
		Long: `Upload a graph to a document store.

The document is validated by loading it before upload. Without --id a new
id is generated and printed; pass it to 'nodewire pull' to fetch the graph
again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, _, err := fileArg(ctx, args, pick, false)
			if err != nil {
				return err
			}
			return c.runPush(ctx, path, backend, id)
		},
	}
	cmd.Flags().StringVarP(&backend, "store", "s", "", "document store: file, redis, mongo (default from config)")
	cmd.Flags().StringVar(&id, "id", "", "document id (default: new uuid)")
	addPickFlag(cmd, &pick)
	return cmd
}

func (c *CLI) runPush(ctx context.Context, path, backend, id string) error {
	s, err := c.openSession(ctx, path, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	store, err := c.openStore(ctx, backend)
	if err != nil {
		return err
	}
	defer store.Close()

	if id == "" {
		id = storage.NewID()
	}
	loc := storage.At(store, id)
	if err := s.ed.Save(ctx, loc); err != nil {
		return err
	}
	v := s.ed.Snapshot()
	printSuccess("Pushed %s", path)
	printKeyValue("Store", store.Backend())
	printKeyValue("ID", id)
	printStats(len(v.Nodes), len(v.Connections))
	printNewline()
	printNextStep("Fetch it again", "nodewire pull "+id)
	return nil
}

// pullCommand creates the "pull" command, which downloads a document from a
// document store, or lists the stored ids.
func (c *CLI) pullCommand() *cobra.Command {
	var (
		backend string
		output  string
		list    bool
		pick    bool
	)
	cmd := &cobra.Command{
		Use:   "pull ID",
		Short: "Download a graph from a document store",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx, backend)
			if err != nil {
				return err
			}
			defer store.Close()

			if list {
				return listStore(ctx, store)
			}
			id := args[0]
			if pick {
				f, err := storage.SaveDialog(ctx, "Save pulled graph", id+".json")
				if err != nil {
					return err
				}
				output = f.Path
			}
			if output == "" {
				output = id + ".json"
			}
			return c.runPull(ctx, store, id, output)
		},
	}
	cmd.Flags().StringVarP(&backend, "store", "s", "", "document store: file, redis, mongo (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <id>.json)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list stored document ids instead")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose the output file with a dialog")
	return cmd
}

func (c *CLI) runPull(ctx context.Context, store storage.Store, id, output string) error {
	ed, closer, err := c.newEditor("")
	if err != nil {
		return err
	}
	defer closer()

	if _, err := ed.Open(ctx, storage.At(store, id)); err != nil {
		return err
	}
	if err := ed.Save(ctx, storage.NewFile(output)); err != nil {
		return err
	}
	v := ed.Snapshot()
	printSuccess("Pulled %s from %s", id, store.Backend())
	printFile(output)
	printStats(len(v.Nodes), len(v.Connections))
	return nil
}

func listStore(ctx context.Context, store storage.Store) error {
	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		printInfo("No documents in %s store", store.Backend())
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	printDetail("%d document(s) in %s store", len(ids), store.Backend())
	return nil
}
