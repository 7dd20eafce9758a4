package cli

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// viewCommand creates the view command for interactive browsing.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		configPath string
		flags      pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "view <dir>",
		Short: "Browse a directory's disk usage interactively",
		Long: `Browse a directory's disk usage interactively.

The view command scans the directory in the background and shows the result
as a treemap in the terminal. Rectangles are proportional to size; folders
can be opened in place to drill down without losing the overview.

Keys:
  arrows/hjkl  move selection
  enter        expand the selected folder
  d            expand one level deeper
  backspace    collapse the selected folder
  c            collapse everything
  r            rescan
  q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd, args[0], configPath, flags)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().StringArrayVarP(&flags.excludes, "exclude", "e", nil, "additional exclusion pattern (repeatable)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "scan concurrency (default: one per CPU)")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 0, "expansion recursion limit")

	return cmd
}

// runView starts the interactive treemap.
func (c *CLI) runView(cmd *cobra.Command, dir, configPath string, flags pipelineFlags) error {
	cfg, err := c.loadConfig(configPath)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	opts := optionsFromConfig(root, cfg)
	flags.apply(&opts)
	opts.Logger = c.Logger

	m := newTreemapModel(c.newRunner(), opts)
	p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(treemapModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
