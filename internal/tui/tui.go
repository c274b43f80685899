// Package tui provides a Bubble Tea terminal user interface for an archive
// run.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/handiism/problem-archiver/internal/app"
	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/config"
	"github.com/handiism/problem-archiver/internal/credential"
	"github.com/handiism/problem-archiver/internal/download"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxLogs is how many status lines stay on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateRunning
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logger    *zap.Logger
	logs      []LogEntry
	summary   download.Summary
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc
	events chan download.ProgressEvent

	runner  *app.Runner
	manager *download.Manager
	cred    credential.Credential

	processed int
	queued    int

	// Options
	templates bool
	community bool
	official  bool
	verbose   bool

	width  int
	height int
}

// NewModel creates a new TUI model. Toggles start from settings.
func NewModel(settings *config.Settings, logger *zap.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "all items"
	ti.Focus()
	ti.CharLimit = 8
	ti.Width = 20
	if settings.ItemID != 0 {
		ti.SetValue(strconv.Itoa(settings.ItemID))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8B500"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan download.ProgressEvent, 64),
		templates: settings.FetchTemplates,
		community: settings.FetchCommunityAnswers,
		official:  settings.FetchOfficialAnswer,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one event emitted by the manager.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// InitDoneMsg is sent when the credential is acquired and the manager
	// is built.
	InitDoneMsg struct {
		Runner  *app.Runner
		Manager *download.Manager
		Cred    credential.Credential
		Err     error
	}

	// RunDoneMsg is sent when the run finishes.
	RunDoneMsg struct {
		Summary download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateRunning || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = errors.New("cancelled by user")
			}

		case "enter":
			if m.state == StateInput {
				id, err := parseItemID(m.textInput.Value())
				if err != nil {
					m.err = err
					return m, nil
				}
				m.err = nil
				m.state = StateInitializing
				return m, tea.Batch(m.initializeRun(m.runSettings(id)), m.spinner.Tick)
			}

		case "t", "c", "o", "v":
			if m.state == StateInput {
				m.toggle(msg.String())
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for another run
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.summary = download.Summary{}
				m.processed = 0
				m.queued = 0
				m.runner = nil
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.events = make(chan download.ProgressEvent, 64)
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, waitForEvent(m.events))
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			return m, tea.Batch(cmds...)
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.runner = msg.Runner
			m.manager = msg.Manager
			m.cred = msg.Cred
			m.state = StateRunning
			cmds = append(cmds, m.startRun(), m.tickProgress(), waitForEvent(m.events))
		}

	case RunDoneMsg:
		m.summary = msg.Summary
		if m.manager != nil {
			m.processed, m.queued = m.manager.Progress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errors.New("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateRunning {
			m.processed, m.queued = m.manager.Progress()
			var percent float64
			if m.queued > 0 {
				percent = float64(m.processed) / float64(m.queued)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) toggle(key string) {
	switch key {
	case "t":
		m.templates = !m.templates
	case "c":
		m.community = !m.community
	case "o":
		m.official = !m.official
	case "v":
		m.verbose = !m.verbose
	}
}

// parseItemID accepts an empty value (every item) or a positive id.
func parseItemID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("item id must be a positive number, got %q", s)
	}
	return id, nil
}

// runSettings copies the base settings with the screen's choices applied.
func (m Model) runSettings(itemID int) *config.Settings {
	s := *m.settings
	s.ItemID = itemID
	s.FetchTemplates = m.templates
	s.FetchCommunityAnswers = m.community
	s.FetchOfficialAnswer = m.official
	return &s
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent delivers the next manager event to the program. It yields
// nothing once the run closed the channel.
func waitForEvent(events <-chan download.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Problem Archiver"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Archive problems, templates and answers"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateRunning:
		b.WriteString(m.viewRunning())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Item id (empty for all):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(infoStyle.Render("Fetch:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Code templates (t)\n", checkbox(m.templates))
	fmt.Fprintf(&b, "  %s Community answers (c)\n", checkbox(m.community))
	fmt.Fprintf(&b, "  %s Official answer (o)\n", checkbox(m.official))
	fmt.Fprintf(&b, "  %s Verbose output (v)\n", checkbox(m.verbose))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Output: " + m.settings.OutputDir))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Signing in..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewRunning() string {
	var b strings.Builder

	var percent float64
	if m.queued > 0 {
		percent = float64(m.processed) / float64(m.queued)
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Items: %d/%d", m.processed, m.queued)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	s := m.summary
	body := fmt.Sprintf(
		"Archive complete\n\n"+
			"Total: %d\n"+
			"Succeeded: %d\n"+
			"Already done: %d\n"+
			"Failed: %d\n"+
			"Skipped: %d",
		s.Total, s.Succeeded, s.AlreadyDone, s.Failed, s.Skipped,
	)
	if s.Failed > 0 && s.ProgressFile != "" {
		body += "\n\nFailure details: " + s.ProgressFile
	}
	return boxStyle.Render(body) + "\n\n" + m.renderLogs()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString("  " + m.err.Error())
		b.WriteString("\n")
		if catalog.IsFatal(m.err) {
			b.WriteString("\n")
			b.WriteString(warningStyle.Render("The session was rejected. Sign in again and export a fresh token."))
			b.WriteString("\n")
		}
	}
	if m.summary.Total > 0 {
		fmt.Fprintf(&b, "\n  %d succeeded, %d failed, %d not started\n",
			m.summary.Succeeded, m.summary.Failed, m.summary.NotStarted)
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		switch log.Level {
		case download.LevelError:
			style = errorStyle
		case download.LevelWarning:
			style = warningStyle
		case download.LevelSuccess:
			style = successStyle
		case download.LevelInfo:
			style = infoStyle
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • t/c/o: toggle fetches • v: verbose • esc: quit"
	case StateInitializing, StateRunning:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new run • q: quit"
	}
	return ""
}

// initializeRun acquires the credential and builds the manager.
func (m Model) initializeRun(settings *config.Settings) tea.Cmd {
	ctx, events := m.ctx, m.events
	logger := m.logger
	return func() tea.Msg {
		runner := app.New(settings, logger)
		manager, cred, err := runner.Prepare(ctx, func(event download.ProgressEvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return InitDoneMsg{Err: err}
		}
		return InitDoneMsg{Runner: runner, Manager: manager, Cred: cred}
	}
}

// startRun executes the run in the background.
func (m Model) startRun() tea.Cmd {
	ctx, runner, manager, cred, events := m.ctx, m.runner, m.manager, m.cred, m.events
	return func() tea.Msg {
		defer close(events)
		if manager == nil {
			return RunDoneMsg{Err: errors.New("no manager")}
		}
		summary, err := runner.Execute(ctx, manager, cred)
		return RunDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(settings, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
