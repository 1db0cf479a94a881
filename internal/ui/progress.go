package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"flowscope/internal/driver"
)

// stages in pipeline order; a running file counts as partially done by the
// position of its current stage.
var stages = []driver.Stage{driver.StageLoad, driver.StageDecode, driver.StageTranslate, driver.StageAnalyze}

const labelWidth = 22

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	cleanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	cachedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// progressModel shows one row per tree document: its stage while it runs,
// its findings once it is finished.
type progressModel struct {
	dir     string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []fileRow
	byPath  map[string]int
	width   int
	closed  bool
}

type fileRow struct {
	path     string
	status   driver.Status
	stage    driver.Stage
	failure  error
	errors   int
	warnings int
	elapsed  time.Duration
}

type eventMsg driver.Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model following the analysis of the
// files of dir.
func NewProgressModel(dir string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		dir:     dir,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]fileRow, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = fileRow{path: file, status: driver.StatusQueued}
		m.byPath[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(driver.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// apply records ev on its row. Events for files outside the listing are
// ignored.
func (m *progressModel) apply(ev driver.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	row := &m.rows[i]
	row.status = ev.Status
	if ev.Stage != "" {
		row.stage = ev.Stage
	}
	if ev.Finished() {
		row.failure = ev.Err
		row.errors = ev.Errors
		row.warnings = ev.Warnings
		row.elapsed = ev.Elapsed
	}
	return m.bar.SetPercent(m.fraction())
}

func (m *progressModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range m.rows {
		total += row.fraction()
	}
	return total / float64(len(m.rows))
}

func (r fileRow) finished() bool {
	return driver.Event{Status: r.status}.Finished()
}

func (r fileRow) fraction() float64 {
	if r.finished() {
		return 1
	}
	if r.status != driver.StatusWorking {
		return 0
	}
	for i, s := range stages {
		if s == r.stage {
			return float64(i+1) / float64(len(stages)+1)
		}
	}
	return 0
}

// label is the status column of the row.
func (r fileRow) label() (string, lipgloss.Style) {
	switch {
	case r.status == driver.StatusQueued:
		return "queued", queuedStyle
	case r.status == driver.StatusWorking:
		return stageVerb(r.stage), workingStyle
	case r.failure != nil:
		return "failed", errorStyle
	}
	counts := findings(r.errors, r.warnings)
	style := cleanStyle
	switch {
	case r.errors > 0:
		style = errorStyle
	case r.warnings > 0:
		style = warnStyle
	case r.status == driver.StatusCached:
		style = cachedStyle
	}
	if r.status == driver.StatusCached {
		if counts == "" {
			return "cached", style
		}
		return counts + " (cached)", style
	}
	if counts == "" {
		return "clean", style
	}
	return counts, style
}

func stageVerb(stage driver.Stage) string {
	switch stage {
	case driver.StageLoad:
		return "loading"
	case driver.StageDecode:
		return "decoding"
	case driver.StageTranslate:
		return "lowering"
	case driver.StageAnalyze:
		return "analyzing"
	}
	return "starting"
}

// findings renders diagnostic counts, empty when there are none.
func findings(errs, warns int) string {
	var parts []string
	if errs > 0 {
		parts = append(parts, plural(errs, "error"))
	}
	if warns > 0 {
		parts = append(parts, plural(warns, "warning"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	if m.closed {
		b.WriteString(titleStyle.Render("analyzed " + m.dir))
	} else {
		b.WriteString(m.spinner.View() + " " + titleStyle.Render("analyzing "+m.dir))
	}
	b.WriteString("\n\n")

	nameWidth := max(m.width-labelWidth-14, 20)
	for _, row := range m.rows {
		label, style := row.label()
		line := fmt.Sprintf("  %s %s", style.Render(fmt.Sprintf("%*s", labelWidth, truncate(label, labelWidth))), truncate(row.path, nameWidth))
		if row.finished() && row.elapsed > 0 {
			line += queuedStyle.Render(" " + row.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	b.WriteString(m.totals())
	b.WriteString("\n")
	return b.String()
}

// totals summarizes the finished files.
func (m *progressModel) totals() string {
	var done, cached, errs, warns int
	for _, row := range m.rows {
		if !row.finished() {
			continue
		}
		done++
		if row.status == driver.StatusCached {
			cached++
		}
		errs += row.errors
		warns += row.warnings
	}
	line := fmt.Sprintf("%d/%d files", done, len(m.rows))
	if cached > 0 {
		line += fmt.Sprintf(", %d cached", cached)
	}
	if counts := findings(errs, warns); counts != "" {
		line += ", " + counts
	}
	return line
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
