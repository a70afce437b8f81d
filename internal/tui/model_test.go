package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animehub-client/internal/models"
	"animehub-client/internal/render"
	"animehub-client/internal/search"
)

type fakeConversation struct {
	mu    sync.Mutex
	sent  []string
	image *models.Attachment
	err   error
}

func (f *fakeConversation) Send(_ context.Context, text string, image *models.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	f.image = image
	return f.err
}

func (f *fakeConversation) Render() render.Pane {
	return render.Pane{Empty: render.NoChatText}
}

type fakeInbox struct {
	mu      sync.Mutex
	entries []render.ChatEntry
	opened  []models.ID
	started []models.ID
	loads   int
}

func (f *fakeInbox) Load(context.Context) ([]render.ChatEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.entries, nil
}

func (f *fakeInbox) Start(_ context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, user.ID)
	return nil
}

func (f *fakeInbox) OpenEntry(_ context.Context, entry render.ChatEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, entry.Chat.ID)
	return nil
}

type fakeSearcher struct {
	queries []string
}

func (f *fakeSearcher) Input(q string) {
	f.queries = append(f.queries, q)
}

// drain runs cmd and every command it fans out into, returning the leaf
// messages in order.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	v := reflect.ValueOf(msg)
	if v.Kind() == reflect.Slice {
		var out []tea.Msg
		for i := 0; i < v.Len(); i++ {
			if c, ok := v.Index(i).Interface().(tea.Cmd); ok {
				out = append(out, drain(c)...)
			}
		}
		return out
	}
	return []tea.Msg{msg}
}

func apply(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

func fixture() (Model, *fakeConversation, *fakeInbox, *fakeSearcher) {
	chat := &fakeConversation{}
	inbox := &fakeInbox{entries: []render.ChatEntry{
		{Chat: models.Chat{ID: "C1"}, User: models.User{ID: "U2"}, Name: "bob", Preview: "hi"},
		{Chat: models.Chat{ID: "C2"}, User: models.User{ID: "U3"}, Name: "carol", Preview: render.NoPreviewText},
	}}
	searcher := &fakeSearcher{}
	return New(context.Background(), chat, inbox, searcher), chat, inbox, searcher
}

func TestInitLoadsChatList(t *testing.T) {
	m, _, inbox, _ := fixture()
	m = apply(t, m, drain(m.Init())...)

	assert.Len(t, m.entries, 2)
	assert.Equal(t, 1, inbox.loads)
	assert.Contains(t, m.View(), "bob")
	assert.Contains(t, m.View(), render.NoChatText)
}

func TestEnterOpensSelectedChat(t *testing.T) {
	m, _, inbox, _ := fixture()
	m = apply(t, m, drain(m.Init())...)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = apply(t, m, drain(cmd)...)

	assert.Equal(t, []models.ID{"C2"}, inbox.opened)
	assert.Equal(t, focusInput, m.focus)
}

func TestTypingAndSending(t *testing.T) {
	m, chat, _, _ := fixture()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusInput, m.focus)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.input.Value())
	m = apply(t, m, drain(cmd)...)

	assert.Equal(t, []string{"hello"}, chat.sent)
	assert.Empty(t, m.status)

	// Whitespace-only input never reaches the controller.
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Len(t, chat.sent, 1)
}

func TestSendFailureShowsStatus(t *testing.T) {
	m, chat, _, _ := fixture()
	chat.err = errors.New("Failed to send message. Please try again.")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = apply(t, m, drain(cmd)...)

	assert.Equal(t, chat.err.Error(), m.status)
}

func TestSearchFlow(t *testing.T) {
	m, _, inbox, searcher := fixture()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, focusSearch, m.focus)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Equal(t, []string{"d", "da"}, searcher.queries)

	// A result for a query the user has typed past is ignored.
	m = apply(t, m, SearchMsg(search.Result{Query: "d", Users: []models.User{{ID: "U9"}}}))
	assert.Empty(t, m.results)

	m = apply(t, m, SearchMsg(search.Result{Query: "da", Users: []models.User{{ID: "U4", Username: "dave"}}}))
	require.Len(t, m.results, 1)
	assert.Contains(t, m.View(), "dave")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.results)
	assert.Equal(t, focusInput, m.focus)
	m = apply(t, m, drain(cmd)...)

	assert.Equal(t, []models.ID{"U4"}, inbox.started)
	assert.Equal(t, 1, inbox.loads)
	assert.Len(t, m.entries, 2)
}

func TestSearchEscapeClearsQuery(t *testing.T) {
	m, _, _, searcher := fixture()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("na")})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, focusList, m.focus)
	assert.Empty(t, m.query.Value())
	assert.Equal(t, "", searcher.queries[len(searcher.queries)-1])
}

func TestPaneMsgRendersBubbles(t *testing.T) {
	m, _, _, _ := fixture()
	m = apply(t, m, PaneMsg(render.Pane{
		Title: "bob",
		Bubbles: []render.Bubble{
			{Self: true, Author: "You", Text: "hey"},
			{Author: "bob", ImageURL: "http://localhost:3000/uploads/a.png"},
		},
		Error: "Failed to load messages. Please try again.",
	}))

	view := m.View()
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "hey")
	assert.Contains(t, view, "[image]")
	assert.Contains(t, view, "Failed to load messages")
}

func TestParseDraft(t *testing.T) {
	text, image, err := parseDraft("plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", text)
	assert.Nil(t, image)

	path := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n0000"), 0o600))

	text, image, err = parseDraft("/image " + path + " look at this")
	require.NoError(t, err)
	assert.Equal(t, "look at this", text)
	require.NotNil(t, image)
	assert.Equal(t, "cat.png", image.Filename)
	assert.Equal(t, "image/png", image.MediaType())

	_, _, err = parseDraft("/image ")
	require.Error(t, err)
	_, _, err = parseDraft("/image /does/not/exist.png")
	require.Error(t, err)
}
