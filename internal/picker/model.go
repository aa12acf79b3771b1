// Package picker is the interactive outfit chooser. It shows one tab per
// occasion, fetches the suggestions of the active tab asynchronously and
// reports which outfit the user picked.
package picker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// pickerState represents the current state of the picker's state machine.
type pickerState int

const (
	stateIdle      pickerState = iota // Initial state before first fetch
	stateLoading                      // Fetch in progress
	stateLoaded                       // Items loaded successfully (len > 0)
	stateEmpty                        // Fetch succeeded but returned 0 items
	stateError                        // Fetch failed
	stateCancelled                    // User cancelled (Esc / q / Ctrl+C)
)

// fetchDoneMsg is sent when an async Provider.Fetch completes.
type fetchDoneMsg struct {
	requestID uint64
	items     []Item
	note      string
	err       error
}

// initMsg triggers the first fetch through Update so the state change is
// seen by the Bubble Tea runtime.
type initMsg struct{}

// Choice is the outfit the user picked.
type Choice struct {
	Tab   string
	Index int
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Tab    key.Binding
	Choose key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Tab, k.Choose, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Tab, k.Choose}, {k.Quit, k.Help}}
}

func defaultKeys() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Tab:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next occasion")),
		Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "wear")),
		Quit:   key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "quit")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// Model is the Bubble Tea model for the outfit picker.
type Model struct {
	state     pickerState
	tabs      []string
	activeTab int
	items     []Item
	note      string
	selection int // Index into items; -1 when empty
	err       error

	requestID uint64 // Monotonic counter for stale detection
	provider  Provider
	limit     int

	keys keyMap
	help help.Model

	width  int // Terminal width
	height int // Terminal height

	chosen bool
	choice Choice

	// cancelFetch cancels the in-flight Provider.Fetch context.
	cancelFetch context.CancelFunc
}

// NewModel creates a picker over tabs, starting on the first one.
func NewModel(tabs []string, provider Provider) Model {
	return Model{
		state:     stateIdle,
		tabs:      tabs,
		selection: -1,
		provider:  provider,
		limit:     4,
		keys:      defaultKeys(),
		help:      help.New(),
	}
}

// WithTab starts the picker on the named tab if it exists.
func (m Model) WithTab(tab string) Model {
	for i, t := range m.tabs {
		if t == tab {
			m.activeTab = i
		}
	}
	return m
}

// WithLimit sets how many outfits each fetch asks for.
func (m Model) WithLimit(n int) Model {
	if n > 0 {
		m.limit = n
	}
	return m
}

// Result returns the chosen outfit, or false if the user quit.
func (m Model) Result() (Choice, bool) {
	return m.choice, m.chosen
}

// IsCancelled reports whether the user quit without choosing.
func (m Model) IsCancelled() bool {
	return m.state == stateCancelled
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return initMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case fetchDoneMsg:
		return m.handleFetchDone(msg)

	case initMsg:
		return m, m.startFetch()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.state = stateCancelled
		m.cancelInflight()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Choose):
		if m.state != stateLoaded || m.selection < 0 {
			return m, nil
		}
		m.chosen = true
		m.choice = Choice{Tab: m.currentTab(), Index: m.selection}
		m.cancelInflight()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.state == stateLoaded && m.selection > 0 {
			m.selection--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.state == stateLoaded && m.selection < len(m.items)-1 {
			m.selection++
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if len(m.tabs) > 1 {
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, m.startFetch()
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	// Digits jump straight to an outfit.
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && m.state == stateLoaded {
		if n, err := strconv.Atoi(string(msg.Runes)); err == nil && n >= 1 && n <= len(m.items) {
			m.selection = n - 1
		}
	}
	return m, nil
}

func (m Model) handleFetchDone(msg fetchDoneMsg) (tea.Model, tea.Cmd) {
	// Discard stale responses.
	if msg.requestID != m.requestID {
		return m, nil
	}

	if msg.err != nil {
		m.state = stateError
		m.err = msg.err
		m.items = nil
		m.selection = -1
		return m, nil
	}

	m.items = msg.items
	m.note = msg.note
	if len(m.items) == 0 {
		m.state = stateEmpty
		m.selection = -1
	} else {
		m.state = stateLoaded
		m.selection = 0
	}
	return m, nil
}

// startFetch cancels any in-flight fetch, increments requestID, and
// returns a tea.Cmd that calls the provider.
func (m *Model) startFetch() tea.Cmd {
	m.cancelInflight()
	m.requestID++
	m.state = stateLoading

	reqID := m.requestID
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFetch = cancel

	req := Request{RequestID: reqID, Tab: m.currentTab(), Limit: m.limit}
	p := m.provider
	return func() tea.Msg {
		resp, err := p.Fetch(ctx, req)
		if err != nil {
			return fetchDoneMsg{requestID: reqID, err: err}
		}
		return fetchDoneMsg{requestID: reqID, items: resp.Items, note: resp.Note}
	}
}

// cancelInflight cancels any in-progress fetch context.
func (m *Model) cancelInflight() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
}

func (m Model) currentTab() string {
	if m.activeTab >= 0 && m.activeTab < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return ""
}

// --- View rendering ---

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	scoreStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewTabBar())
	b.WriteString("\n\n")
	b.WriteString(m.viewContent())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewTabBar() string {
	parts := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		label := " " + tab + " "
		if i == m.activeTab {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = inactiveTabStyle.Render(label)
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) viewContent() string {
	switch m.state {
	case stateIdle, stateLoading:
		return dimStyle.Render("Finding outfits...")

	case stateEmpty:
		note := m.note
		if note == "" {
			note = "No outfits"
		}
		return dimStyle.Render(note)

	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		return errorStyle.Render(msg)

	case stateCancelled:
		return dimStyle.Render("Cancelled")

	case stateLoaded:
		return m.viewList()

	default:
		return ""
	}
}

// viewList renders the outfits with a selection marker and the breakdown
// of the selected one.
func (m Model) viewList() string {
	var b strings.Builder
	for i, it := range m.items {
		title := printable(it.Title)
		if m.width > 14 {
			title = fitTitle(title, m.width-14)
		}
		score := scoreStyle.Render(fmt.Sprintf("%5.1f", it.Score))
		line := fmt.Sprintf("%d. %s  %s", i+1, score, title)
		if i == m.selection {
			b.WriteString(selectedStyle.Render("> " + line))
			if it.Detail != "" {
				detail := printable(it.Detail)
				if m.width > 6 {
					detail = runewidth.Truncate(detail, m.width-6, "…")
				}
				b.WriteString("\n      " + dimStyle.Render(detail))
			}
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		if i < len(m.items)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// pieceSep joins the item labels of an outfit title.
const pieceSep = " + "

// fitTitle fits an outfit title into width columns. Each piece is first
// cut back to its "[id] type" label so every item stays identifiable,
// then the whole title is truncated.
func fitTitle(title string, width int) string {
	if width <= 0 || runewidth.StringWidth(title) <= width {
		return title
	}
	pieces := strings.Split(title, pieceSep)
	for i, p := range pieces {
		if f := strings.Fields(p); len(f) > 2 {
			pieces[i] = f[0] + " " + f[1]
		}
	}
	return runewidth.Truncate(strings.Join(pieces, pieceSep), width, "…")
}

// printable repairs invalid UTF-8 and drops control runes so a label
// cannot break the list layout.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, "\uFFFD"))
}
