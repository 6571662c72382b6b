package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"opcount/internal/analysis"
	"opcount/internal/disasm"
	"opcount/internal/opcount/styles"
	"opcount/internal/ui/colorize"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewFunctions
	viewListing
)

type functionItem struct {
	label      string
	demangled  string
	address    uint64
	count      int
	filterTerm string
}

func (i functionItem) Title() string       { return fmt.Sprintf("%x  %s", i.address, i.demangled) }
func (i functionItem) Description() string { return "" }
func (i functionItem) FilterValue() string { return i.filterTerm }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(functionItem)
	if !ok {
		return
	}

	indicator := " "
	addrStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	if index == m.Index() {
		indicator = ">"
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
		nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	}
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("81"))

	fmt.Fprintf(w, " %s  %s  %s  %s",
		indicator,
		addrStyle.Render(fmt.Sprintf("%8x", i.address)),
		countStyle.Render(fmt.Sprintf("%5d", i.count)),
		nameStyle.Render(i.demangled))
}

type model struct {
	viewport    viewport.Model
	functions   list.Model
	listingView viewport.Model
	spinner     spinner.Model
	mode        viewMode
	filepath    string
	analyzer    *analysis.Analyzer
	initial     string
	idx         *disasm.Index
	result      *analysis.Result
	err         error
	loading     bool
	width       int
	height      int
}

type parsedMsg struct {
	idx *disasm.Index
	err error
}

func parseDumpCmd(filepath string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(filepath)
		if err != nil {
			return parsedMsg{err: err}
		}
		defer f.Close()
		idx, err := disasm.Parse(f)
		return parsedMsg{idx: idx, err: err}
	}
}

// NewModel returns the interactive browser for the dump at filepath. When
// initialFunction is set it is analyzed as soon as the dump is parsed.
func NewModel(filepath, initialFunction string, a *analysis.Analyzer) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	functions := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	functions.SetShowStatusBar(false)
	functions.SetFilteringEnabled(true)
	functions.Title = "Functions"
	functions.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	functions.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	lvp := viewport.New()
	lvp.SetWidth(80)
	lvp.SetHeight(24)

	m := model{
		viewport:    vp,
		functions:   functions,
		listingView: lvp,
		spinner:     s,
		mode:        viewSummary,
		filepath:    filepath,
		analyzer:    a,
		initial:     initialFunction,
		loading:     true,
		width:       80,
		height:      24,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		parseDumpCmd(m.filepath),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case parsedMsg:
		m.loading = false
		m.idx, m.err = msg.idx, msg.err
		if m.err == nil {
			m.updateFunctionList()
			if m.initial != "" {
				m.analyze(m.initial, m.analyzer)
			}
		}
		m.updateContent()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.updateContent()
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.functions.SetWidth(msg.Width)
			m.functions.SetHeight(msg.Height - 2)
			m.listingView.SetWidth(msg.Width)
			m.listingView.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		if m.mode == viewFunctions && m.functions.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.mode = viewSummary
			return m, nil
		case "f":
			if m.idx.Len() > 0 {
				m.mode = viewFunctions
			}
			return m, nil
		case "l":
			if m.result.Found() {
				m.mode = viewListing
			}
			return m, nil
		case "enter":
			if m.mode == viewFunctions {
				if item, ok := m.functions.SelectedItem().(functionItem); ok {
					// The list shows exact labels, so a prefix match could pick another one.
					exact := analysis.Analyzer{Matchers: []analysis.Matcher{analysis.ExactMatcher{}}}
					if m.analyzer != nil {
						exact.Filters, exact.Logger = m.analyzer.Filters, m.analyzer.Logger
					}
					m.analyze(item.label, &exact)
					m.updateContent()
				}
			}
			return m, nil
		case "tab":
			m.mode = m.nextMode(1)
			return m, nil
		case "shift+tab":
			m.mode = m.nextMode(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewFunctions:
		m.functions, cmd = m.functions.Update(msg)
	case viewListing:
		m.listingView, cmd = m.listingView.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// nextMode cycles through the views that have content.
func (m model) nextMode(step int) viewMode {
	modes := []viewMode{viewSummary}
	if m.idx.Len() > 0 {
		modes = append(modes, viewFunctions)
	}
	if m.result.Found() {
		modes = append(modes, viewListing)
	}
	for i, mode := range modes {
		if mode == m.mode {
			return modes[(i+step+len(modes))%len(modes)]
		}
	}
	return viewSummary
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewFunctions:
		content = m.functions.View()
	case viewListing:
		content = m.listingView.View()
	default:
		content = m.viewport.View()
	}

	var menu string
	switch m.mode {
	case viewFunctions:
		menu = " Enter: inline and count • /: filter • R: summary • Tab: cycle • Q: quit "
	case viewListing:
		menu = " R: summary • F: functions • Tab: cycle • Q: quit "
	default:
		if m.idx.Len() > 0 {
			menu = " F: functions • Tab: cycle • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

// analyze runs a over the parsed dump and switches to the listing when the
// function was found.
func (m *model) analyze(function string, a *analysis.Analyzer) {
	res, err := a.RunIndex(m.idx, function)
	if err != nil {
		slog.Error("Analysis failed", "function", function, "error", err)
		m.err = err
		return
	}
	m.result = res
	m.err = nil
	if !res.Found() {
		m.mode = viewSummary
		return
	}
	m.listingView.SetContent(strings.Join(colorize.ColorizeListing(res.Expansion.Lines), "\n"))
	m.listingView.GotoTop()
	m.mode = viewListing
}

func (m *model) updateContent() {
	relPath := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			relPath = rel
		}
	}

	var markdown string
	switch {
	case m.result != nil:
		markdown = summaryMarkdown(relPath, m.result)
	default:
		lines := []string{fmt.Sprintf("; %s", relPath)}
		if m.idx != nil {
			lines = append(lines, fmt.Sprintf("; %d functions in dump", m.idx.Len()))
		}
		markdown = fmt.Sprintf("# opcount\n\n```\n%s\n```", strings.Join(lines, "\n"))
	}
	if m.err != nil {
		markdown += fmt.Sprintf("\n\n**Error:** %v", m.err)
	}
	if m.loading {
		markdown += fmt.Sprintf("\n\n%s Parsing dump...", m.spinner.View())
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	m.viewport.SetContent(strings.TrimSuffix(styles.Render(markdown, width-2), "\n"))
}

func (m *model) updateFunctionList() {
	blocks := m.idx.Blocks()
	items := make([]list.Item, 0, len(blocks))
	for _, b := range blocks {
		demangled := analysis.CachedDemangle(b.Label)
		items = append(items, functionItem{
			label:      b.Label,
			demangled:  demangled,
			address:    b.Addr,
			count:      b.Instructions(),
			filterTerm: fmt.Sprintf("%x %s %s", b.Addr, b.Label, demangled),
		})
	}
	m.functions.SetItems(items)
	m.functions.Title = fmt.Sprintf("Functions (%d total)", len(items))
}
