package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/irdumbs/jamcord/internal/session"
)

// syncMsg tells the view the room changed behind its back.
type syncMsg struct{}

// Model is the terminal view over one jam room.
type Model struct {
	local  *Local
	roomID string
	emblem string

	room  viewport.Model
	input textarea.Model

	// lastPosted is the local user's most recent submission, the target of
	// the emblem toggle.
	lastPosted string
	status     string

	width  int
	height int
	ready  bool
}

// NewModel creates the room view. emblem is the confirm emblem the toggle
// key raises.
func NewModel(local *Local, roomID, emblem string) Model {
	input := textarea.New()
	input.Placeholder = "`code` or ```code block``` — enter sends, ctrl+j confirms"
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	return Model{
		local:  local,
		roomID: roomID,
		emblem: emblem,
		input:  input,
		status: "waiting for the session",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		roomHeight := m.height - m.input.Height() - 6
		if roomHeight < 3 {
			roomHeight = 3
		}
		if !m.ready {
			m.room = viewport.New(m.width-4, roomHeight)
			m.ready = true
		} else {
			m.room.Width = m.width - 4
			m.room.Height = roomHeight
		}
		m.input.SetWidth(m.width - 4)
		m.room.SetContent(m.renderRoom())
		m.room.GotoBottom()
		return m, nil

	case syncMsg:
		if m.ready {
			m.room.SetContent(m.renderRoom())
			m.room.GotoBottom()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.post()
		case "ctrl+j":
			return m.toggle()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.room, cmd = m.room.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// post sends the input box content into the room as the local user.
func (m Model) post() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	posted := m.local.Post(m.roomID, content)
	if strings.HasPrefix(content, "`") {
		m.lastPosted = posted.ID
		m.status = fmt.Sprintf("submission posted — ctrl+j raises %s to run it", m.emblem)
	} else {
		m.status = "posted"
	}
	m.input.Reset()
	if m.ready {
		m.room.SetContent(m.renderRoom())
		m.room.GotoBottom()
	}
	return m, nil
}

// toggle raises or withdraws the confirm emblem on the user's latest
// submission.
func (m Model) toggle() (tea.Model, tea.Cmd) {
	if m.lastPosted == "" {
		m.status = "nothing to confirm yet"
		return m, nil
	}
	raised, err := m.local.ToggleEmblem(m.lastPosted, m.emblem)
	switch {
	case err != nil:
		m.status = errorStyle.Render(fmt.Sprintf("confirm failed: %v", err))
	case raised:
		m.status = fmt.Sprintf("%s raised", m.emblem)
	default:
		m.status = fmt.Sprintf("%s withdrawn", m.emblem)
	}
	return m, nil
}

// renderRoom renders the room's messages, newest last.
func (m Model) renderRoom() string {
	msgs := m.local.Messages(m.roomID)
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		content := msg.Content
		if strings.HasPrefix(content, session.Marker) {
			content = strings.TrimPrefix(content, session.Marker)
			if strings.HasPrefix(content, "```") {
				// The console surface gets its own block.
				lines = append(lines, consoleStyle.Render(stripFence(content)))
				continue
			}
			lines = append(lines, engineStyle.Render(content))
			continue
		}

		line := authorStyle.Render(msg.AuthorName) + ": " + content
		if emblems := m.renderEmblems(msg.ID); emblems != "" {
			line += " " + emblemStyle.Render(emblems)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderEmblems summarizes the reactions on a message, e.g. "[☑×2]".
func (m Model) renderEmblems(messageID string) string {
	counts := m.local.Emblems(messageID)
	if len(counts) == 0 {
		return ""
	}
	emblems := make([]string, 0, len(counts))
	for emblem := range counts {
		emblems = append(emblems, emblem)
	}
	sort.Strings(emblems)

	parts := make([]string, 0, len(emblems))
	for _, emblem := range emblems {
		if n := counts[emblem]; n > 1 {
			parts = append(parts, fmt.Sprintf("%s×%d", emblem, n))
		} else {
			parts = append(parts, emblem)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// stripFence removes the surrounding code fence from a console page so the
// terminal shows the raw text.
func stripFence(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	// first line is the opening fence, last line holds ```N/M
	marker := strings.TrimPrefix(lines[len(lines)-1], "```")
	body := strings.Join(lines[1:len(lines)-1], "\n")
	if marker != "" {
		body += "\n" + statusStyle.Render("page "+marker)
	}
	return body
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	title := titleStyle.Render("jamcord") + statusStyle.Render("  room "+m.roomID)
	help := helpStyle.Render("enter: post · ctrl+j: toggle confirm · pgup/pgdn: scroll · esc: leave")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		roomBox.Render(m.room.View()),
		inputBox.Render(m.input.View()),
		statusStyle.Render(m.status),
		help,
	)
}

// Run drives the room view until the user leaves or ctx is canceled.
func Run(ctx context.Context, local *Local, roomID, emblem string) error {
	p := tea.NewProgram(NewModel(local, roomID, emblem),
		tea.WithAltScreen(), tea.WithContext(ctx))
	local.SetNotify(func() { p.Send(syncMsg{}) })
	defer local.SetNotify(nil)

	_, err := p.Run()
	return err
}
