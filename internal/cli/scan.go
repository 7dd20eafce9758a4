package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/diskview/pkg/config"
	"github.com/matzehuels/diskview/pkg/pipeline"
	"github.com/matzehuels/diskview/pkg/scanner"
	"github.com/matzehuels/diskview/pkg/snapshot"
)

// largestEntryCount is how many of the biggest files the scan summary lists.
const largestEntryCount = 10

// scanCommand creates the scan command for walking a directory tree.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		output     string
		configPath string
		excludes   []string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory and save the result as a snapshot",
		Long: `Scan a directory and save the result as a snapshot.

The scan command walks the directory tree, records every file and folder
with its size, and writes the result as a snapshot JSON file. Snapshots can
be laid out with 'layout' or browsed with 'view' without rescanning.

Exclusion patterns from the config file apply; --exclude adds more.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd.Context(), args[0], output, configPath, excludes, workers)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <dir-name>.snapshot.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "e", nil, "additional exclusion pattern (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", 0, "scan concurrency (default: one per CPU)")

	return cmd
}

// runScan walks the tree and writes the snapshot.
func (c *CLI) runScan(ctx context.Context, dir, output, configPath string, excludes []string, workers int) error {
	cfg, err := c.loadConfig(configPath)
	if err != nil {
		return err
	}
	if workers == 0 {
		workers = cfg.Scan.Workers
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	p := newProgress(c.Logger)
	s := scanner.New(root, scanner.Options{
		Excludes: append(cfg.Scan.Excludes, excludes...),
		Workers:  workers,
		OnProgress: func(pr scanner.Progress) {
			c.Logger.Debug("scanning", "files", pr.Files, "dirs", pr.Dirs, "size", formatSize(pr.TotalSize))
		},
	})

	records, stats, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}
	p.done(fmt.Sprintf("Scanned %d entries", stats.Files+stats.Dirs))

	outputPath := output
	if outputPath == "" {
		outputPath = filepath.Base(root) + ".snapshot.json"
	}

	if err := snapshot.WriteFile(snapshot.FromScan(records, stats), outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Scan complete")
	printFile(outputPath)
	printStats(stats.Files, stats.Dirs, stats.TotalSize)
	if summary := largestEntriesTable(root, records, largestEntryCount); summary != "" {
		printNewline()
		fmt.Println(summary)
	}
	printNewline()
	printNextStep("Layout", appName+" layout "+outputPath)

	return nil
}

// largestEntriesTable renders the biggest files from a scan as a table,
// largest first, with paths shown relative to the scan root. Returns "" when
// the scan found no files.
func largestEntriesTable(root string, records []scanner.Record, limit int) string {
	files := make([]scanner.Record, 0, len(records))
	for _, r := range records {
		if !r.IsDir {
			files = append(files, r)
		}
	}
	if len(files) == 0 {
		return ""
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	if len(files) > limit {
		files = files[:limit]
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		path := f.Path
		if rel, err := filepath.Rel(root, f.Path); err == nil {
			path = rel
		}
		rows = append(rows, []string{formatSize(f.Size), path})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Size", "Path").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleValue
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// optionsFromConfig builds pipeline options from the loaded config.
func optionsFromConfig(root string, cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Root:     root,
		Excludes: cfg.Scan.Excludes,
		Workers:  cfg.Scan.Workers,
		Width:    cfg.View.Width,
		Height:   cfg.View.Height,
		MaxDepth: cfg.View.MaxDepth,
	}
}

// pipelineFlags carries viewport and scan settings shared by layout and view.
type pipelineFlags struct {
	width    float64
	height   float64
	maxDepth int
	excludes []string
	workers  int
}

func (f *pipelineFlags) apply(opts *pipeline.Options) {
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.height > 0 {
		opts.Height = f.height
	}
	if f.maxDepth > 0 {
		opts.MaxDepth = f.maxDepth
	}
	if len(f.excludes) > 0 {
		opts.Excludes = append(opts.Excludes, f.excludes...)
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}
}
