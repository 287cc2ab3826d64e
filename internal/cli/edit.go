package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/storage"
)

// =============================================================================
// File arguments
// =============================================================================

// fileArg returns the document path from args, or asks for one with a native
// dialog when pick is set.
func fileArg(ctx context.Context, args []string, pick, forSave bool) (string, []string, error) {
	if !pick {
		if len(args) == 0 {
			return "", nil, errors.New(errors.ErrCodeInvalidInput, "missing document path (or use --pick)")
		}
		return args[0], args[1:], nil
	}
	var (
		f   *storage.File
		err error
	)
	if forSave {
		f, err = storage.SaveDialog(ctx, "Save graph", "graph.json")
	} else {
		f, err = storage.OpenDialog(ctx, "Open graph")
	}
	if err != nil {
		return "", nil, err
	}
	return f.Path, args, nil
}

func addPickFlag(cmd *cobra.Command, pick *bool) {
	cmd.Flags().BoolVar(pick, "pick", false, "choose the document with a file dialog")
}

// editCommand wraps the open, mutate, save cycle shared by the editing
// commands. minArgs and maxArgs count the arguments after the document path.
func (c *CLI) editCommand(use, short string, minArgs, maxArgs int, fn func(ctx context.Context, s *session, args []string) error) *cobra.Command {
	var pick bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, rest, err := fileArg(ctx, args, pick, false)
			if err != nil {
				return err
			}
			if len(rest) < minArgs || len(rest) > maxArgs {
				return errors.New(errors.ErrCodeInvalidInput, "usage: nodewire %s", use)
			}
			s, err := c.openSession(ctx, path, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()
			if err := fn(ctx, s, rest); err != nil {
				return err
			}
			return s.save(ctx)
		},
	}
	addPickFlag(cmd, &pick)
	return cmd
}

// =============================================================================
// Commands
// =============================================================================

// newCommand creates the "new" command, which writes an empty document.
func (c *CLI) newCommand() *cobra.Command {
	var pick bool
	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Create an empty graph document",
		Long: `Create an empty graph document.

The codec follows the file extension: .msgpack or .mpk write msgpack,
anything else writes JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, _, err := fileArg(ctx, args, pick, true)
			if err != nil {
				return err
			}
			s, err := c.openSession(ctx, path, sessionOptions{create: true})
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.save(ctx); err != nil {
				return err
			}
			printSuccess("Created empty graph")
			printFile(path)
			printNewline()
			printNextStep("Add a node", "nodewire add "+path)
			return nil
		},
	}
	addPickFlag(cmd, &pick)
	return cmd
}

// addCommand creates the "add" command. Without a kind it opens the
// interactive picker.
func (c *CLI) addCommand() *cobra.Command {
	var sets []string
	cmd := c.editCommand("add FILE [KIND]", "Add a node", 0, 1, func(ctx context.Context, s *session, args []string) error {
		defs := s.ed.Definitions()
		var kindName string
		if len(args) == 1 {
			kindName = args[0]
		} else {
			picked, err := pickKind(defs)
			if err != nil {
				return err
			}
			kindName = picked
		}
		def, ok := defs.Lookup(kindName)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown node kind %q (see nodewire kinds)", kindName)
		}
		values, err := parseAssignments(def, sets)
		if err != nil {
			return err
		}
		id, err := s.ed.AddNode(ctx, kindName, values)
		if err != nil {
			return err
		}
		printSuccess("Added %s %s", StyleValue.Render(kindName), StyleNumber.Render("#"+id.String()))
		return nil
	})
	cmd.Flags().StringArrayVar(&sets, "set", nil, "initial control value as name=value (repeatable)")
	return cmd
}

// rmCommand creates the "rm" command.
func (c *CLI) rmCommand() *cobra.Command {
	return c.editCommand("rm FILE ID", "Remove a node and its connections", 1, 1, func(ctx context.Context, s *session, args []string) error {
		id, err := graph.ParseNodeID(args[0])
		if err != nil {
			return err
		}
		before := len(s.ed.Snapshot().Connections)
		if err := s.ed.RemoveNode(ctx, id); err != nil {
			return err
		}
		printSuccess("Removed node #%s", id)
		if dropped := before - len(s.ed.Snapshot().Connections); dropped > 0 {
			printDetail("%d connection(s) removed with it", dropped)
		}
		printDetail("Nodes after #%s move down one id", id)
		return nil
	})
}

// connectCommand creates the "connect" command.
func (c *CLI) connectCommand() *cobra.Command {
	return c.editCommand("connect FILE SRC:OUTPUT DST:INPUT", "Connect an output to an input", 2, 2, func(ctx context.Context, s *session, args []string) error {
		conn, err := parseConnection(args[0], args[1])
		if err != nil {
			return err
		}
		if err := s.ed.Connect(ctx, conn); err != nil {
			return err
		}
		printSuccess("Connected %s", conn)
		return nil
	})
}

// disconnectCommand creates the "disconnect" command.
func (c *CLI) disconnectCommand() *cobra.Command {
	return c.editCommand("disconnect FILE SRC:OUTPUT DST:INPUT", "Remove a connection", 2, 2, func(ctx context.Context, s *session, args []string) error {
		conn, err := parseConnection(args[0], args[1])
		if err != nil {
			return err
		}
		removed, err := s.ed.Disconnect(ctx, conn)
		if err != nil {
			return err
		}
		if !removed {
			printWarning("No connection %s", conn)
			return nil
		}
		printSuccess("Disconnected %s", conn)
		return nil
	})
}

// setCommand creates the "set" command.
func (c *CLI) setCommand() *cobra.Command {
	return c.editCommand("set FILE ID NAME VALUE", "Set a control value", 3, 3, func(ctx context.Context, s *session, args []string) error {
		id, err := graph.ParseNodeID(args[0])
		if err != nil {
			return err
		}
		n, _ := s.ed.Node(id)
		def, _ := s.ed.Definitions().Lookup(n.Kind)
		value, err := parseValue(def, args[1], args[2])
		if err != nil {
			return err
		}
		if err := s.ed.SetControl(ctx, id, args[1], value); err != nil {
			return err
		}
		printSuccess("Set #%s %s = %v", id, args[1], value)
		return nil
	})
}

// =============================================================================
// Argument parsing
// =============================================================================

func parseConnection(src, dst string) (graph.Connection, error) {
	srcID, out, err := graph.ParseEndpoint(src)
	if err != nil {
		return graph.Connection{}, err
	}
	dstID, in, err := graph.ParseEndpoint(dst)
	if err != nil {
		return graph.Connection{}, err
	}
	return graph.Connection{Source: srcID, SourceOutput: out, Target: dstID, TargetInput: in}, nil
}

// parseAssignments turns name=value pairs into control values for def.
func parseAssignments(def kind.Definition, sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(sets))
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--set %q must be name=value", s)
		}
		v, err := parseValue(def, name, raw)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

// parseValue converts a command-line string to the type of the named
// control. Names the kind does not declare pass through as strings so the
// editor reports them.
func parseValue(def kind.Definition, name, raw string) (any, error) {
	spec, ok := def.Control(name)
	if !ok || spec.Type != kind.ControlNumber {
		return raw, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a number", name, raw)
	}
	return f, nil
}

// outputPath derives an output file from the input by swapping the extension.
func outputPath(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

func describe(n graph.Node) string {
	return fmt.Sprintf("%s #%s", n.Kind, n.ID)
}
