package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"pdbench/internal/domain"
	"pdbench/internal/logging"
	"pdbench/internal/services"
	"pdbench/internal/theme"
)

type uiState int

const (
	stateList uiState = iota
	stateConfirmingDelete
	stateSavingFavorite
	stateHelp
)

const defaultErrorClearDelay = 8 * time.Second

// Model is the root Bubble Tea model for the session browser.
type Model struct {
	confirmDelete  *huh.Form
	deleteApproved bool
	deleteTarget   DeleteSessionMsg
	errorManager   *ErrorManager
	favoriteForm   *FavoriteForm
	height         int
	keys           KeyMap
	logPanel       *LogPanel
	previewService *services.PreviewService
	running        bool
	runService     *services.RunService
	sessionList    *SessionList
	sessionService *services.SessionService
	spinner        spinner.Model
	state          uiState
	version        string
	width          int
}

// NewModel wires the browser to the services.
func NewModel(
	sessionService *services.SessionService,
	runService *services.RunService,
	previewService *services.PreviewService,
	logPanel *LogPanel,
) *Model {
	keys := NewKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.SpinnerStyle

	return &Model{
		errorManager:   NewErrorManager(defaultErrorClearDelay),
		keys:           keys,
		logPanel:       logPanel,
		previewService: previewService,
		runService:     runService,
		sessionList:    NewSessionList(sessionService, previewService, keys),
		sessionService: sessionService,
		spinner:        sp,
		state:          stateList,
		version:        versionInfo.Version,
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case logReceivedMsg:
		if !msg.OK {
			return m, nil
		}
		return m, m.logPanel.Append(msg.Message)
	case clearErrorMsg:
		m.errorManager.ClearError()
		return m, nil
	}

	switch m.state {
	case stateList:
		return m.updateList(msg)
	case stateConfirmingDelete:
		return m.updateConfirmingDelete(msg)
	case stateSavingFavorite:
		return m.updateSavingFavorite(msg)
	case stateHelp:
		return m.updateHelp(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case QuitMsg:
		return m, tea.Quit

	case ShowHelpMsg:
		m.state = stateHelp
		return m, nil

	case SelectSessionMsg:
		if _, err := m.sessionService.LoadSession(context.Background(), msg.SessionID); err != nil {
			return m, m.fail(err)
		}
		m.sessionList.Refresh()
		return m, nil

	case NewSessionMsg:
		if _, err := m.sessionService.CreateSession(context.Background(), ""); err != nil {
			return m, m.fail(err)
		}
		m.sessionList.Refresh()
		return m, nil

	case DeleteSessionMsg:
		m.deleteTarget = msg
		m.deleteApproved = false
		m.confirmDelete = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete session '%s'?", msg.Name)).
					Description("All images, runs and previews in it are removed.").
					Affirmative("Delete").
					Negative("Keep").
					Value(&m.deleteApproved),
			),
		)
		m.state = stateConfirmingDelete
		return m, m.confirmDelete.Init()

	case SaveFavoriteMsg:
		sess, ok := m.sessionService.CurrentSession()
		if !ok {
			return m, m.fail(domain.ErrNoCurrentSession)
		}
		m.favoriteForm = NewFavoriteForm(m.sessionService, sess.Name)
		m.state = stateSavingFavorite
		return m, m.favoriteForm.Init()

	case ToggleLogsMsg:
		if m.logPanel.IsOpen() {
			m.logPanel.Close()
			m.recalculateLayout()
			return m, nil
		}
		m.recalculateLayout()
		return m, m.logPanel.Open()

	case previewReadyMsg:
		m.sessionList.Refresh()
		return m, nil

	case runFinishedMsg:
		m.running = false
		m.sessionList.Refresh()
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		logging.Logger.Info("Analysis finished", "run_id", msg.Run.ID, "duration_ms", msg.Run.Response.DurationMs)
		return m, nil

	case errMsg:
		return m, m.fail(msg.Err)

	case tea.KeyMsg:
		if !m.sessionList.list.SettingFilter() {
			switch {
			case key.Matches(msg, m.keys.Preview):
				return m, m.previewCmd()
			case key.Matches(msg, m.keys.Analyze):
				return m, m.analyzeCmd()
			}
		}
	case spinner.TickMsg:
		if m.running {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	cmd, action := m.sessionList.Update(msg)
	if action != nil {
		return m.updateList(action)
	}
	if m.logPanel.IsOpen() {
		return m, tea.Batch(cmd, m.logPanel.Update(msg))
	}
	return m, cmd
}

func (m *Model) updateConfirmingDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.state = stateList
		return m, nil
	}

	form, cmd := m.confirmDelete.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirmDelete = f
	}

	if m.confirmDelete.State == huh.StateCompleted {
		m.state = stateList
		if m.deleteApproved {
			if err := m.sessionService.DeleteSession(context.Background(), m.deleteTarget.SessionID); err != nil {
				return m, m.fail(err)
			}
		}
		m.sessionList.Refresh()
		return m, nil
	}
	return m, cmd
}

func (m *Model) updateSavingFavorite(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.favoriteForm.Update(msg)
	if ff, ok := form.(*FavoriteForm); ok {
		m.favoriteForm = ff
	}

	if m.favoriteForm.Completed {
		m.state = stateList
		result := m.favoriteForm.Result()
		if result.Error != nil {
			return m, m.fail(result.Error)
		}
		return m, nil
	}
	return m, cmd
}

func (m *Model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		m.state = stateList
	}
	return m, nil
}

// previewCmd generates (or reuses) the current session's preview off the
// update loop.
func (m *Model) previewCmd() tea.Cmd {
	sess, ok := m.sessionService.CurrentSession()
	if !ok {
		return m.fail(domain.ErrNoCurrentSession)
	}
	return func() tea.Msg {
		preview, err := m.previewService.Preview(context.Background(), sess.ID)
		if err != nil {
			return errMsg{Err: err}
		}
		return previewReadyMsg{Preview: preview}
	}
}

// analyzeCmd starts a phase search with the default flags.
func (m *Model) analyzeCmd() tea.Cmd {
	if m.running {
		return m.fail(domain.ErrAnalysisInFlight)
	}
	m.running = true
	run := func() tea.Msg {
		res, err := m.runService.RunAnalysis(context.Background(), domain.DefaultSearchFlags(), nil)
		return runFinishedMsg{Run: res, Err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) fail(err error) tea.Cmd {
	logging.Logger.Error("UI operation failed", "error", err)
	m.errorManager.SetError(err)
	return m.errorManager.ClearAfterDelay()
}

func (m *Model) recalculateLayout() {
	listHeight := m.height - 6
	if m.logPanel.IsOpen() {
		panelHeight := m.height / 3
		m.logPanel.SetSize(m.width, panelHeight)
		listHeight -= panelHeight + 2
	}
	if listHeight < 4 {
		listHeight = 4
	}
	m.sessionList.SetSize(m.width, listHeight)
}

func (m *Model) View() string {
	switch m.state {
	case stateConfirmingDelete:
		return m.confirmDelete.View()
	case stateSavingFavorite:
		return m.favoriteForm.View()
	case stateHelp:
		return m.helpView()
	}

	var b strings.Builder
	title := theme.TitleStyle.Render("pdbench") + " " +
		lipgloss.NewStyle().Foreground(theme.ColorVersion).Render(m.version)
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.sessionList.View())
	b.WriteString("\n")

	if m.logPanel.IsOpen() {
		b.WriteString(m.logPanel.View())
		b.WriteString("\n")
	}

	footer := m.sessionList.helpLine()
	if badge := m.logPanel.Badge(); badge != "" {
		footer = badge + " " + footer
	}
	if m.running {
		footer = m.spinner.View() + " analyzing... " + footer
	}
	b.WriteString(footer)

	if m.errorManager.HasError() {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(formatErrorForDisplay(m.errorManager.GetError(), m.width)))
	}
	return b.String()
}

func (m *Model) helpView() string {
	rows := []struct{ key, desc string }{
		{"↑/k, ↓/j", "move between sessions"},
		{"enter", "make the selected session current"},
		{"n", "create a new session"},
		{"x", "delete the selected session"},
		{"f", "save the current config as a favorite"},
		{"v", "generate a pupil/illumination preview"},
		{"r", "run a phase diversity analysis"},
		{"g", "toggle the live solver log panel"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	keyStyle := lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true).Width(14)
	for _, row := range rows {
		b.WriteString(keyStyle.Render(row.key))
		b.WriteString(theme.SubtleStyle.Render(row.desc))
		b.WriteString("\n")
	}
	b.WriteString(theme.HelpStyle.Render("press any key to return"))
	return b.String()
}
