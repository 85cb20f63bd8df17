package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/slx/internal/flow"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// Runner executes a full pipeline run. Implemented by [flow.Engine].
type Runner interface {
	Run(ctx context.Context, progress chan<- flow.ProgressUpdate) (*flow.RunResult, error)
}

// phases lists pipeline stages in execution order for the checklist view.
var phases = []flow.Phase{
	flow.Authorize,
	flow.FetchLibrary,
	flow.EnrichTracks,
	flow.EnrichArtists,
	flow.EnrichAlbums,
	flow.FetchAudioFeatures,
	flow.Merge,
	flow.Compact,
	flow.WriteOutput,
	flow.StoreDatabase,
}

func phaseLabel(p flow.Phase) string {
	switch p {
	case flow.Authorize:
		return "Authorize"
	case flow.FetchLibrary:
		return "Fetch liked songs"
	case flow.EnrichTracks:
		return "Enrich tracks"
	case flow.EnrichArtists:
		return "Enrich artists"
	case flow.EnrichAlbums:
		return "Enrich albums"
	case flow.FetchAudioFeatures:
		return "Fetch audio features"
	case flow.Merge:
		return "Merge details"
	case flow.Compact:
		return "Compact records"
	case flow.WriteOutput:
		return "Write output files"
	case flow.StoreDatabase:
		return "Store database"
	default:
		return "Processing"
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	runner       Runner
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan flow.ProgressUpdate
	progress     flow.ProgressUpdate
	started      bool
	result       *flow.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided pipeline runner.
func NewModel(ctx context.Context, runner Runner) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    RunView,
		runner:  runner,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner and kicks off the pipeline run.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.restart) && m.view == ResultView:
			m.view = RunView
			m.result = nil
			m.err = nil
			m.progress = flow.ProgressUpdate{}
			m.started = false
			return m, m.startRun()
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = flow.ProgressUpdate(msg)
		m.started = true
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan flow.ProgressUpdate, 50)

	go func() {
		result, err := m.runner.Run(m.ctx, m.progressChan)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Exporting Liked Songs"))
	b.WriteString("\n\n")

	for _, phase := range phases {
		switch {
		case !m.started || phase > m.progress.Phase:
			b.WriteString(fmt.Sprintf("  %s\n", styles.help.Render(phaseLabel(phase))))
		case phase < m.progress.Phase:
			b.WriteString(fmt.Sprintf("%s %s\n", styles.ok.Render("✓"), phaseLabel(phase)))
		default:
			b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), phaseLabel(phase)))
		}
	}

	if m.started && m.progress.Total > 1 {
		pct := float64(m.progress.Step) / float64(m.progress.Total)
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(pct))
		b.WriteString("\n")
	}

	if m.progress.Message != "" {
		b.WriteString("\n")
		b.WriteString(m.progress.Message)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Run failed: %v", m.err)),
			helpView,
		)
	}

	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf(
		"\nExported: %d tracks\nEnriched: %d tracks\nCompacted: %d tracks",
		len(m.result.Exported),
		len(m.result.Enriched),
		len(m.result.Compacted),
	)

	var skipped string
	if n := len(m.result.Skipped); n > 0 {
		skipped = fmt.Sprintf("\n%s", styles.warn.Render(fmt.Sprintf("Skipped %d lookups, see the skip ledger", n)))
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, skipped, helpView)
}
