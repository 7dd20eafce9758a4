package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/diskview/pkg/config"
	"github.com/matzehuels/diskview/pkg/fstree"
	"github.com/matzehuels/diskview/pkg/render"
	"github.com/matzehuels/diskview/pkg/snapshot"
)

// layoutCommand creates the layout command for computing treemap layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		configPath string
		expand     []string
		flags      pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <snapshot.json | dir>",
		Short: "Compute a treemap layout from a snapshot or directory",
		Long: `Compute a treemap layout from a snapshot or directory.

The layout command takes a snapshot file (produced by 'scan') or a directory
to scan on the fly, computes the treemap layout for the requested viewport,
and writes the resulting frame as JSON. The frame lists every rectangle with
its path, size, and stable ID, ready for an external renderer.

Folders passed via --expand are opened one level; repeat a path to open it
deeper. Output goes to stdout with -o -.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, configPath, expand, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.frame.json, '-' for stdout)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().StringArrayVar(&expand, "expand", nil, "folder to expand (repeatable; repeat a path to deepen)")
	cmd.Flags().Float64Var(&flags.width, "width", 0, "frame width")
	cmd.Flags().Float64Var(&flags.height, "height", 0, "frame height")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 0, "expansion recursion limit")
	cmd.Flags().StringArrayVarP(&flags.excludes, "exclude", "e", nil, "additional exclusion pattern (live scans only)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "scan concurrency (live scans only)")

	return cmd
}

// runLayout loads or scans the input, builds the render tree, and writes the
// frame.
func (c *CLI) runLayout(ctx context.Context, input, output, configPath string, expand []string, flags pipelineFlags) error {
	cfg, err := c.loadConfig(configPath)
	if err != nil {
		return err
	}

	tree, root, err := c.loadInput(ctx, input, cfg, flags)
	if err != nil {
		return err
	}

	opts := optionsFromConfig(root, cfg)
	flags.apply(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	state := render.NewExpansionState()
	for _, path := range expand {
		state.Deepen(path)
	}

	p := newProgress(c.Logger)
	viewport := opts.Viewport()
	nodes := render.Build(tree, tree.Root(), viewport, state, opts.MaxDepth)
	frame := snapshot.NewFrame(root, viewport, nodes)
	p.done(fmt.Sprintf("Laid out %d rectangles", countFrameNodes(frame.Nodes)))

	if output == "-" {
		return snapshot.WriteFrame(frame, os.Stdout)
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		base = strings.TrimSuffix(base, ".snapshot")
		outputPath = base + ".frame.json"
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}
	defer f.Close()
	if err := snapshot.WriteFrame(frame, f); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printNewline()
	printNextStep("Browse", appName+" view "+root)

	return nil
}

// loadInput materializes a size model from a snapshot file, or from a live
// scan when input is a directory.
func (c *CLI) loadInput(ctx context.Context, input string, cfg *config.Config, flags pipelineFlags) (*fstree.Tree, string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", input, err)
	}

	if !info.IsDir() {
		snap, err := snapshot.ReadFile(input)
		if err != nil {
			return nil, "", fmt.Errorf("load snapshot %s: %w", input, err)
		}
		c.Logger.Debug("loaded snapshot", "root", snap.Root, "entries", len(snap.Entries))
		return snap.ToTree(), snap.Root, nil
	}

	root, err := filepath.Abs(input)
	if err != nil {
		return nil, "", err
	}

	opts := optionsFromConfig(root, cfg)
	flags.apply(&opts)
	opts.Logger = c.Logger

	result, err := c.newRunner().Execute(withLogger(ctx, c.Logger), opts)
	if err != nil {
		return nil, "", err
	}
	return result.Tree, root, nil
}

func countFrameNodes(nodes []snapshot.FrameNode) int {
	count := len(nodes)
	for _, n := range nodes {
		count += countFrameNodes(n.Children)
	}
	return count
}
