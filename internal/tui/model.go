// Package tui is the interactive direct-message screen: a chat list with user
// search on the left and the open conversation on the right.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"animehub-client/internal/models"
	"animehub-client/internal/render"
	"animehub-client/internal/search"
)

// Conversation is the chat controller as seen by the screen.
type Conversation interface {
	Send(ctx context.Context, text string, image *models.Attachment) error
	Render() render.Pane
}

type Inbox interface {
	Load(ctx context.Context) ([]render.ChatEntry, error)
	Start(ctx context.Context, user models.User) error
	OpenEntry(ctx context.Context, entry render.ChatEntry) error
}

// Searcher is fed every query edit from the event loop, so its result
// delivery must not block on the program.
type Searcher interface {
	Input(query string)
}

// PaneMsg carries a fresh message pane from the controller's view hook.
type PaneMsg render.Pane

// SearchMsg carries a settled user search.
type SearchMsg search.Result

type entriesMsg struct {
	entries []render.ChatEntry
	err     error
}

type statusMsg struct {
	err error
}

type focus int

const (
	focusList focus = iota
	focusInput
	focusSearch
)

const imageCommand = "/image "

const helpText = "tab: switch pane  enter: open/send  /image <path> [caption]  ctrl+r: reload  ctrl+c: quit"

// Model is the bubbletea model for the dm screen.
type Model struct {
	ctx    context.Context
	chat   Conversation
	inbox  Inbox
	search Searcher
	styles Styles

	focus   focus
	entries []render.ChatEntry
	cursor  int
	results []models.User
	picked  int
	pane    render.Pane
	status  string

	input    textinput.Model
	query    textinput.Model
	viewport viewport.Model
	width    int
	height   int
}

// New builds the screen. ctx bounds every request started from it.
func New(ctx context.Context, chat Conversation, inbox Inbox, searcher Searcher) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 2000

	query := textinput.New()
	query.Placeholder = "Search users..."
	query.CharLimit = 64

	m := Model{
		ctx:      ctx,
		chat:     chat,
		inbox:    inbox,
		search:   searcher,
		styles:   DefaultStyles(),
		pane:     chat.Render(),
		input:    input,
		query:    query,
		viewport: viewport.New(60, 20),
		width:    100,
		height:   30,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadEntries()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case PaneMsg:
		m.pane = render.Pane(msg)
		m.refreshViewport()
		return m, nil

	case SearchMsg:
		if msg.Query != strings.TrimSpace(m.query.Value()) {
			return m, nil
		}
		m.results = msg.Users
		m.picked = 0
		if msg.Err != nil {
			m.status = "Search failed: " + msg.Err.Error()
		}
		return m, nil

	case entriesMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.entries = msg.entries
		if m.cursor >= len(m.entries) {
			m.cursor = 0
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.setFocus((m.focus + 1) % 3)
	case "shift+tab":
		return m.setFocus((m.focus + 2) % 3)
	case "ctrl+r":
		return m, m.loadEntries()
	}

	switch m.focus {
	case focusList:
		return m.handleListKey(msg)
	case focusSearch:
		return m.handleSearchKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.entries) == 0 {
			return m, nil
		}
		entry := m.entries[m.cursor]
		next, focusCmd := m.setFocus(focusInput)
		return next, tea.Batch(focusCmd, m.openEntry(entry))
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.query.Reset()
		m.results = nil
		m.search.Input("")
		return m.setFocus(focusList)
	case "up":
		if m.picked > 0 {
			m.picked--
		}
		return m, nil
	case "down":
		if m.picked < len(m.results)-1 {
			m.picked++
		}
		return m, nil
	case "enter":
		if len(m.results) == 0 {
			return m, nil
		}
		user := m.results[m.picked]
		m.query.Reset()
		m.results = nil
		next, focusCmd := m.setFocus(focusInput)
		return next, tea.Batch(focusCmd, m.startChat(user))
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != before {
		m.search.Input(m.query.Value())
	}
	return m, cmd
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.setFocus(focusList)
	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.send(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) setFocus(f focus) (Model, tea.Cmd) {
	m.focus = f
	m.input.Blur()
	m.query.Blur()
	switch f {
	case focusInput:
		return m, m.input.Focus()
	case focusSearch:
		return m, m.query.Focus()
	}
	return m, nil
}

func (m Model) loadEntries() tea.Cmd {
	ctx, inbox := m.ctx, m.inbox
	return func() tea.Msg {
		entries, err := inbox.Load(ctx)
		return entriesMsg{entries: entries, err: err}
	}
}

// Open failures are already on the pane as its error banner.
func (m Model) openEntry(entry render.ChatEntry) tea.Cmd {
	ctx, inbox := m.ctx, m.inbox
	return func() tea.Msg {
		_ = inbox.OpenEntry(ctx, entry)
		return statusMsg{}
	}
}

func (m Model) startChat(user models.User) tea.Cmd {
	ctx, inbox := m.ctx, m.inbox
	return tea.Sequence(
		func() tea.Msg {
			if err := inbox.Start(ctx, user); err != nil {
				return statusMsg{err: err}
			}
			return statusMsg{}
		},
		m.loadEntries(),
	)
}

func (m Model) send(text string) tea.Cmd {
	ctx, chat := m.ctx, m.chat
	return func() tea.Msg {
		content, image, err := parseDraft(text)
		if err != nil {
			return statusMsg{err: err}
		}
		if err := chat.Send(ctx, content, image); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{}
	}
}

// parseDraft splits "/image <path> [caption]" into an attachment and its
// caption. Anything else is plain text.
func parseDraft(text string) (string, *models.Attachment, error) {
	if !strings.HasPrefix(text, imageCommand) {
		return text, nil, nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, imageCommand))
	path, caption, _ := strings.Cut(rest, " ")
	if path == "" {
		return "", nil, fmt.Errorf("usage: %s<path> [caption]", imageCommand)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	return caption, &models.Attachment{Filename: filepath.Base(path), Data: data}, nil
}

func (m *Model) resize() {
	left := m.leftWidth()
	m.viewport.Width = max(m.width-left-6, 20)
	m.viewport.Height = max(m.height-8, 5)
	m.input.Width = m.viewport.Width - 2
	m.query.Width = left - 4
	m.refreshViewport()
}

func (m Model) leftWidth() int {
	return max(m.width/3, 24)
}

func (m *Model) refreshViewport() {
	var sb strings.Builder
	switch {
	case m.pane.Loading:
		sb.WriteString(m.styles.Muted.Render("Loading messages..."))
	case m.pane.Empty != "":
		sb.WriteString(m.styles.Muted.Render(m.pane.Empty))
	}
	for _, b := range m.pane.Bubbles {
		name := m.styles.OtherName.Render(b.Author)
		if b.Self {
			name = m.styles.SelfName.Render(b.Author)
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		if b.Text != "" {
			sb.WriteString(b.Text)
		}
		if b.ImageURL != "" {
			if b.Text != "" {
				sb.WriteString(" ")
			}
			sb.WriteString(m.styles.Muted.Render("[image] " + b.ImageURL))
		}
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	left := m.leftView()
	right := m.rightView()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	footer := m.styles.Help.Render(helpText)
	if m.status != "" {
		footer = m.styles.Error.Render(m.status) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m Model) leftView() string {
	var sb strings.Builder
	sb.WriteString(m.query.View())
	sb.WriteString("\n\n")

	if len(m.results) > 0 {
		for i, u := range m.results {
			line := u.DisplayName()
			if i == m.picked {
				line = m.styles.Selected.Render("> " + line)
			} else {
				line = "  " + line
			}
			sb.WriteString(line + "\n")
		}
	} else if len(m.entries) == 0 {
		sb.WriteString(m.styles.Muted.Render(render.NoChatsText))
	} else {
		for i, e := range m.entries {
			name := e.Name
			if i == m.cursor {
				name = m.styles.Selected.Render("> " + name)
			} else {
				name = "  " + name
			}
			sb.WriteString(name + "\n")
			sb.WriteString("    " + m.styles.Muted.Render(e.Preview) + "\n")
		}
	}

	style := m.styles.Pane
	if m.focus != focusInput {
		style = m.styles.Focused
	}
	return style.Width(m.leftWidth()).Height(max(m.height-4, 5)).Render(sb.String())
}

func (m Model) rightView() string {
	title := m.pane.Title
	if title == "" {
		title = "AnimeHub"
	}

	parts := []string{m.styles.Title.Render(title)}
	if m.pane.Error != "" {
		parts = append(parts, m.styles.Error.Render(m.pane.Error))
	}
	parts = append(parts, m.viewport.View())
	if m.pane.Sending {
		parts = append(parts, m.styles.Muted.Render("Sending..."))
	}
	parts = append(parts, m.input.View())

	style := m.styles.Pane
	if m.focus == focusInput {
		style = m.styles.Focused
	}
	return style.Width(m.viewport.Width + 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
