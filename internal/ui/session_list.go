package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdbench/internal/services"
	"pdbench/internal/theme"
)

// SessionItem implements list.Item and list.DefaultItem
type SessionItem struct {
	ID         string
	Name       string
	Current    bool
	ImageCount int
	RunCount   int
	Stale      bool
	UpdatedAt  string
}

// FilterValue implements list.Item
func (i SessionItem) FilterValue() string {
	return i.Name
}

// Title implements list.DefaultItem
func (i SessionItem) Title() string {
	return i.Name
}

// Description implements list.DefaultItem
func (i SessionItem) Description() string {
	return fmt.Sprintf("%d images, %d runs", i.ImageCount, i.RunCount)
}

// sessionDelegate renders one session per pair of lines: marker + name,
// then counts and preview freshness.
type sessionDelegate struct{}

// Height implements list.ItemDelegate
func (d sessionDelegate) Height() int {
	return 2
}

// Spacing implements list.ItemDelegate
func (d sessionDelegate) Spacing() int {
	return 0
}

// Update implements list.ItemDelegate
func (d sessionDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render implements list.ItemDelegate
func (d sessionDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(SessionItem)
	if !ok {
		return
	}

	cursor := " "
	if index == m.Index() {
		cursor = ">"
	}

	marker := " "
	if item.Current {
		marker = theme.CurrentIconStyle.Render("*")
	}

	nameStyle := theme.NormalStyle
	if item.ImageCount == 0 {
		nameStyle = theme.EmptyIconStyle
	}

	detail := fmt.Sprintf("%d images, %d runs, updated %s", item.ImageCount, item.RunCount, item.UpdatedAt)
	if item.Stale {
		detail += " " + theme.StaleStyle.Render("(preview stale)")
	}

	line1 := fmt.Sprintf("%s %s %s", cursor, marker, nameStyle.Render(item.Name))
	line2 := "    " + theme.SubtleStyle.Render(detail)
	fmt.Fprintf(w, "%s\n%s", line1, line2)
}

// SessionList is the session browser component.
type SessionList struct {
	list           list.Model
	keys           KeyMap
	sessionService *services.SessionService
	previewService *services.PreviewService
}

// NewSessionList creates the session list and fills it from the repository.
func NewSessionList(sessionService *services.SessionService, previewService *services.PreviewService, keys KeyMap) *SessionList {
	l := list.New(nil, sessionDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "Filter: "

	s := &SessionList{
		list:           l,
		keys:           keys,
		sessionService: sessionService,
		previewService: previewService,
	}
	s.Refresh()
	return s
}

// Refresh rebuilds the visible items from repository state.
func (s *SessionList) Refresh() {
	sessions := s.sessionService.Sessions().List()
	currentID := s.sessionService.Sessions().CurrentID()

	items := make([]list.Item, 0, len(sessions))
	for _, sess := range sessions {
		imageCount := 0
		if sess.Images != nil {
			imageCount = sess.Images.Count()
		}
		items = append(items, SessionItem{
			ID:         sess.ID,
			Name:       sess.Name,
			Current:    sess.ID == currentID,
			ImageCount: imageCount,
			RunCount:   len(sess.Runs),
			Stale:      s.previewService.IsStale(sess),
			UpdatedAt:  sess.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	s.list.SetItems(items)
}

// Selected returns the item under the cursor.
func (s *SessionList) Selected() (SessionItem, bool) {
	item, ok := s.list.SelectedItem().(SessionItem)
	return item, ok
}

// SetSize resizes the underlying list.
func (s *SessionList) SetSize(width, height int) {
	s.list.SetSize(width, height)
}

// Update handles key presses, emitting action messages for the Model.
func (s *SessionList) Update(msg tea.Msg) (tea.Cmd, tea.Msg) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !s.list.SettingFilter() {
		switch {
		case key.Matches(keyMsg, s.keys.Select):
			if item, ok := s.Selected(); ok {
				return nil, SelectSessionMsg{SessionID: item.ID}
			}
			return nil, nil
		case key.Matches(keyMsg, s.keys.New):
			return nil, NewSessionMsg{}
		case key.Matches(keyMsg, s.keys.Delete):
			if item, ok := s.Selected(); ok {
				return nil, DeleteSessionMsg{SessionID: item.ID, Name: item.Name}
			}
			return nil, nil
		case key.Matches(keyMsg, s.keys.Favorite):
			return nil, SaveFavoriteMsg{}
		case key.Matches(keyMsg, s.keys.Logs):
			return nil, ToggleLogsMsg{}
		case key.Matches(keyMsg, s.keys.Help):
			return nil, ShowHelpMsg{}
		case key.Matches(keyMsg, s.keys.Quit):
			return nil, QuitMsg{}
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return cmd, nil
}

// View renders the list with an empty-state hint.
func (s *SessionList) View() string {
	if len(s.list.Items()) == 0 {
		hint := theme.SubtleStyle.Render("No sessions. Press n to create one.")
		return lipgloss.NewStyle().Padding(1, 2).Render(hint)
	}
	return s.list.View()
}

// helpLine renders the one-line footer help.
func (s *SessionList) helpLine() string {
	entries := []string{
		"enter select", "n new", "x delete", "f favorite",
		"v preview", "r analyze", "g logs", "h help", "q quit",
	}
	return theme.HelpStyle.Render(strings.Join(entries, " · "))
}
