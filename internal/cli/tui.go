package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/diskview/pkg/pipeline"
	"github.com/matzehuels/diskview/pkg/render"
	"github.com/matzehuels/diskview/pkg/scanner"
)

// A terminal cell is roughly half as wide as it is tall, and the layout
// constants (header strip, insets) are sized in pixel-like units. Builds run
// at cell*pixel resolution and the resulting rectangles are mapped back to
// cells, so a 16-unit folder header lands on exactly one text row.
const (
	cellPxW = 8.0
	cellPxH = 16.0
)

// Treemap styles
var (
	styleDirBlock  = lipgloss.NewStyle().Background(lipgloss.Color("24")).Foreground(lipgloss.Color("117"))
	styleFileBlock = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252"))
	styleAggBlock  = lipgloss.NewStyle().Background(lipgloss.Color("238")).Foreground(lipgloss.Color("245"))
	styleSelected  = lipgloss.NewStyle().Background(colorCyan).Foreground(lipgloss.Color("231")).Bold(true)
	styleStatusBar = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Messages
// =============================================================================

// scanDoneMsg reports a finished background scan.
type scanDoneMsg struct {
	result *pipeline.Result
	err    error
}

// scanTickMsg refreshes the progress display while scanning.
type scanTickMsg struct{}

// =============================================================================
// treemapModel - Interactive treemap browser
// =============================================================================

// scanState is shared between the scan goroutine and the model. The scanner
// updates it from its progress callback; the model reads it on each tick.
type scanState struct {
	mu       sync.Mutex
	progress scanner.Progress
}

func (s *scanState) set(p scanner.Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

func (s *scanState) get() scanner.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// block is one node's rectangle mapped to terminal cells.
type block struct {
	node          *render.Node
	x, y          int
	width, height int
}

// treemapModel is the bubbletea model for the view command.
type treemapModel struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	scan   *scanState

	result   *pipeline.Result
	blocks   []block
	selected string // path of the selected node
	err      error

	width    int
	height   int
	scanning bool
}

// newTreemapModel creates the model; the scan starts from Init.
func newTreemapModel(runner *pipeline.Runner, opts pipeline.Options) treemapModel {
	return treemapModel{
		runner:   runner,
		opts:     opts,
		scan:     &scanState{},
		scanning: true,
	}
}

func (m treemapModel) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(), scanTick())
}

// scanCmd runs the pipeline in the background.
func (m treemapModel) scanCmd() tea.Cmd {
	opts := m.opts
	opts.OnProgress = m.scan.set
	return func() tea.Msg {
		result, err := m.runner.Execute(context.Background(), opts)
		return scanDoneMsg{result: result, err: err}
	}
}

func scanTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return scanTickMsg{}
	})
}

func (m treemapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuild()

	case scanTickMsg:
		if m.scanning {
			return m, scanTick()
		}

	case scanDoneMsg:
		m.scanning = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.result = msg.result
		m.rebuild()
		if len(m.blocks) > 0 {
			m.selected = m.blocks[0].node.Path
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.moveSelection(-1, 0)
		case "right", "l":
			m.moveSelection(1, 0)
		case "up", "k":
			m.moveSelection(0, -1)
		case "down", "j":
			m.moveSelection(0, 1)
		case "enter":
			if b := m.selectedBlock(); b != nil && b.node.IsDir {
				m.result.Expansion.Expand(b.node.Path)
				m.rebuild()
			}
		case "d":
			if b := m.selectedBlock(); b != nil && b.node.IsDir {
				m.result.Expansion.Deepen(b.node.Path)
				m.rebuild()
			}
		case "backspace":
			if b := m.selectedBlock(); b != nil && b.node.IsDir {
				m.result.Expansion.CollapseRecursive(b.node.Path)
				m.rebuild()
			}
		case "c":
			if m.result != nil {
				m.result.Expansion.CollapseAll()
				m.rebuild()
			}
		case "r":
			if !m.scanning {
				m.scanning = true
				m.result = nil
				m.blocks = nil
				return m, tea.Batch(m.scanCmd(), scanTick())
			}
		}
	}
	return m, nil
}

// rebuild recomputes the render tree for the current terminal size and
// flattens it into cell blocks.
func (m *treemapModel) rebuild() {
	if m.result == nil || m.width < 4 || m.height < 4 {
		return
	}

	gridW, gridH := m.gridSize()
	m.result.SetViewport(float64(gridW)*cellPxW, float64(gridH)*cellPxH)
	if err := m.runner.Rebuild(context.Background(), m.result); err != nil {
		m.err = err
		return
	}

	m.blocks = nil
	m.flatten(m.result.Nodes)

	if m.selectedBlock() == nil && len(m.blocks) > 0 {
		m.selected = m.blocks[0].node.Path
	}
}

// gridSize returns the drawable area in cells, reserving one row for the
// title and one for the status bar.
func (m treemapModel) gridSize() (int, int) {
	return m.width, m.height - 2
}

// flatten maps render nodes to cell blocks in paint order: parents first, so
// children drawn later overwrite their interior.
func (m *treemapModel) flatten(nodes []*render.Node) {
	for _, n := range nodes {
		b := block{
			node:   n,
			x:      int(n.OuterRect.X / cellPxW),
			y:      int(n.OuterRect.Y / cellPxH),
			width:  int(n.OuterRect.Width/cellPxW + 0.5),
			height: int(n.OuterRect.Height/cellPxH + 0.5),
		}
		if b.width < 1 {
			b.width = 1
		}
		if b.height < 1 {
			b.height = 1
		}
		m.blocks = append(m.blocks, b)
		m.flatten(n.Children)
	}
}

func (m treemapModel) selectedBlock() *block {
	for i := range m.blocks {
		if m.blocks[i].node.Path == m.selected {
			return &m.blocks[i]
		}
	}
	return nil
}

// moveSelection picks the nearest block whose center lies in the requested
// direction from the current block's center.
func (m *treemapModel) moveSelection(dx, dy int) {
	cur := m.selectedBlock()
	if cur == nil {
		if len(m.blocks) > 0 {
			m.selected = m.blocks[0].node.Path
		}
		return
	}

	cx := cur.x + cur.width/2
	cy := cur.y + cur.height/2

	var best *block
	bestDist := -1
	for i := range m.blocks {
		b := &m.blocks[i]
		if b.node.Path == m.selected {
			continue
		}
		bx := b.x + b.width/2
		by := b.y + b.height/2

		if dx > 0 && bx <= cx {
			continue
		}
		if dx < 0 && bx >= cx {
			continue
		}
		if dy > 0 && by <= cy {
			continue
		}
		if dy < 0 && by >= cy {
			continue
		}

		dist := abs(bx-cx) + abs(by-cy)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = b
		}
	}

	if best != nil {
		m.selected = best.node.Path
	}
}

// =============================================================================
// Rendering
// =============================================================================

func (m treemapModel) View() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n"
	}
	if m.scanning {
		p := m.scan.get()
		return fmt.Sprintf("%s\n\n  %s\n",
			StyleTitle.Render("diskview "+m.opts.Root),
			StyleDim.Render(fmt.Sprintf("scanning… %d files, %d dirs, %s",
				p.Files, p.Dirs, formatSize(p.TotalSize))))
	}
	if m.result == nil || m.width < 4 || m.height < 4 {
		return ""
	}

	gridW, gridH := m.gridSize()
	grid := make([][]rune, gridH)
	styles := make([][]lipgloss.Style, gridH)
	for y := range grid {
		grid[y] = make([]rune, gridW)
		styles[y] = make([]lipgloss.Style, gridW)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	for _, b := range m.blocks {
		m.drawBlock(grid, styles, b, gridW, gridH)
	}

	var sb strings.Builder
	sb.WriteString(m.titleLine())
	sb.WriteString("\n")
	for y := 0; y < gridH; y++ {
		for x := 0; x < gridW; x++ {
			sb.WriteString(styles[y][x].Render(string(grid[y][x])))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m treemapModel) titleLine() string {
	total := uint64(0)
	if m.result != nil {
		total = m.result.Tree.TotalSize()
	}
	return StyleTitle.Render("diskview "+m.opts.Root) +
		StyleDim.Render("  "+formatSize(total))
}

func (m treemapModel) statusLine() string {
	sel := m.selectedBlock()
	if sel == nil {
		return styleStatusBar.Render("  arrows move · enter expand · q quit")
	}
	return styleStatusBar.Render(fmt.Sprintf("  %s · %s · enter expand · backspace collapse · q quit",
		sel.node.Path, formatSize(sel.node.Size)))
}

// drawBlock paints one block onto the grid: fill, border when it has room,
// and the node's label in the top-left corner.
func (m treemapModel) drawBlock(grid [][]rune, styles [][]lipgloss.Style, b block, gridW, gridH int) {
	style := styleFileBlock
	switch {
	case b.node.IsAggregate:
		style = styleAggBlock
	case b.node.IsDir:
		style = styleDirBlock
	}
	if b.node.Path == m.selected {
		style = styleSelected
	}

	for y := b.y; y < b.y+b.height && y < gridH; y++ {
		for x := b.x; x < b.x+b.width && x < gridW; x++ {
			if y >= 0 && x >= 0 {
				grid[y][x] = ' '
				styles[y][x] = style
			}
		}
	}

	if b.width >= 2 && b.height >= 2 {
		for x := b.x; x < b.x+b.width && x < gridW; x++ {
			if x < 0 {
				continue
			}
			if b.y >= 0 && b.y < gridH {
				grid[b.y][x] = '─'
			}
			if y := b.y + b.height - 1; y >= 0 && y < gridH {
				grid[y][x] = '─'
			}
		}
		for y := b.y; y < b.y+b.height && y < gridH; y++ {
			if y < 0 {
				continue
			}
			if b.x >= 0 && b.x < gridW {
				grid[y][b.x] = '│'
			}
			if x := b.x + b.width - 1; x >= 0 && x < gridW {
				grid[y][x] = '│'
			}
		}
	}

	if b.width > 4 && b.height >= 1 {
		// Work in runes: file names are UTF-8 and the grid is one rune per
		// cell, so byte lengths would both miscount and split characters.
		label := []rune(b.node.Name)
		if b.width > len(label)+8 {
			label = append(label, []rune(" "+formatSize(b.node.Size))...)
		}
		maxLen := b.width - 3
		if len(label) > maxLen {
			label = label[:maxLen]
		}
		y := b.y
		if y >= 0 && y < gridH {
			for i, ch := range label {
				x := b.x + 1 + i
				if x >= 0 && x < gridW && x < b.x+b.width-1 {
					grid[y][x] = ch
				}
			}
		}
	}
}

// abs returns the absolute value of x.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
