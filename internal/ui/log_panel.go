package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pdbench/internal/adapters/logstream"
	"pdbench/internal/theme"
)

const maxLogLines = 500

// LogPanel shows live solver output in a scrollable viewport. Opening the
// panel marks the stream as viewed, which resets the unread counter.
type LogPanel struct {
	viewport viewport.Model
	channel  *logstream.Channel
	lines    []string
	open     bool
}

// NewLogPanel creates the panel wired to a log channel.
func NewLogPanel(channel *logstream.Channel) *LogPanel {
	return &LogPanel{
		viewport: viewport.New(0, 0),
		channel:  channel,
	}
}

// waitForLog blocks on the channel and delivers the next frame as a message.
func (p *LogPanel) waitForLog() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.channel.Messages()
		return logReceivedMsg{Message: msg, OK: ok}
	}
}

// Open starts receiving and resets the unread counter.
func (p *LogPanel) Open() tea.Cmd {
	p.open = true
	p.channel.SetViewOpen(true)
	p.channel.Start()
	return p.waitForLog()
}

// Close hides the panel; the channel keeps receiving and counts unread.
func (p *LogPanel) Close() {
	p.open = false
	p.channel.SetViewOpen(false)
}

// IsOpen reports panel visibility.
func (p *LogPanel) IsOpen() bool {
	return p.open
}

// Append adds a frame and follows the tail.
func (p *LogPanel) Append(msg logstream.Message) tea.Cmd {
	line := theme.LogTimestampStyle.Render(msg.Timestamp.Format("15:04:05")) + " " + msg.Text
	p.lines = append(p.lines, line)
	if len(p.lines) > maxLogLines {
		p.lines = p.lines[len(p.lines)-maxLogLines:]
	}
	p.viewport.SetContent(strings.Join(p.lines, "\n"))
	p.viewport.GotoBottom()
	return p.waitForLog()
}

// SetSize resizes the viewport.
func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}

// Update scrolls the viewport.
func (p *LogPanel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the panel with a status header.
func (p *LogPanel) View() string {
	var status string
	switch p.channel.State() {
	case logstream.StateOpen:
		status = "connected"
	case logstream.StateConnecting:
		status = "connecting..."
	default:
		status = "disconnected"
	}
	header := theme.TitleStyle.Render(fmt.Sprintf("Solver logs (%s)", status))
	return header + "\n" + p.viewport.View()
}

// Badge renders the unread counter for the footer, empty when nothing is
// unread or the panel is open.
func (p *LogPanel) Badge() string {
	if p.open {
		return ""
	}
	unread := p.channel.UnreadCount()
	if unread == 0 {
		return ""
	}
	return theme.BadgeStyle.Render(fmt.Sprintf("[%d new log lines]", unread))
}
