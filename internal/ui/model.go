package ui

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ovpngen/internal/domain"
	"ovpngen/internal/i18n"
	"ovpngen/internal/surface"
)

// Title is the window title before translation
const Title = "OpenVPN config generator"

// Model is the form front end of a surface
type Model struct {
	surface *surface.Surface
	lang    i18n.Lang
	styles  *Styles
	keys    keyMap
	help    help.Model

	tabs      []string
	activeTab int
	focus     int // index into the active tab's fields
	inputs    map[string]*textinput.Model

	viewer       Viewer
	artifactPath func() string

	status    string
	statusErr bool
	width     int
	height    int

	mu      sync.Mutex
	pending []error
}

// NewModel creates a model whose inputs show the surface's current values
func NewModel(s *surface.Surface, lang i18n.Lang) *Model {
	if lang == nil {
		lang = i18n.Identity{}
	}
	m := &Model{
		surface: s,
		lang:    lang,
		styles:  NewStyles(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		tabs:    domain.Tabs(s.Fields()),
		inputs:  make(map[string]*textinput.Model),
	}

	for _, f := range s.Fields() {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 128
		ti.Width = 32
		if v, ok := s.Value(f.Key); ok {
			ti.SetValue(domain.Format(v))
		}
		m.inputs[f.Key] = &ti
	}
	// The inputs were just filled from the cells
	s.TakeApplied()

	m.focusCurrent()
	return m
}

// SetViewer enables paging the generated artifact found at path()
func (m *Model) SetViewer(v Viewer, path func() string) {
	m.viewer = v
	m.artifactPath = path
}

// ReportError queues a failure for the status line. Safe to call from a bus error handler.
func (m *Model) ReportError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, err)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.SetWindowTitle(m.lang.Str(Title)))
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case RunMsg:
		msg()

	case ErrorMsg:
		m.setError(msg.Err)

	case pagerMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.refresh()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
		return nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
		return nil
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(-1)
		return nil
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(1)
		return nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Generate):
		m.generate()
		return nil
	case key.Matches(msg, m.keys.View):
		return m.showArtifact()
	}

	field, ok := m.currentField()
	if !ok {
		return nil
	}
	ti := m.inputs[field.Key]
	before := ti.Value()
	updated, cmd := ti.Update(msg)
	*ti = updated
	if ti.Value() != before {
		m.commitEdit(field, ti.Value())
	}
	return cmd
}

// commitEdit turns the text of an input into a local edit on the surface
func (m *Model) commitEdit(field domain.Field, text string) {
	val, err := domain.Parse(field.Kind, text)
	if err != nil {
		m.setError(fmt.Errorf("%s: %w", m.lang.Str(field.Label), err))
		return
	}
	if err := m.surface.Edit(field.Key, val); err != nil {
		m.setError(err)
		return
	}
	m.status = ""
	m.statusErr = false
}

func (m *Model) generate() {
	m.surface.Commit()
	if m.drainErrors() {
		return
	}
	m.status = m.lang.Str("Generated")
	m.statusErr = false
	log.Printf("UI: generate requested")
}

// refresh copies remotely applied values into their inputs and surfaces queued errors
func (m *Model) refresh() {
	for _, k := range m.surface.TakeApplied() {
		ti, ok := m.inputs[k]
		if !ok {
			continue
		}
		v, _ := m.surface.Value(k)
		if text := domain.Format(v); ti.Value() != text {
			ti.SetValue(text)
		}
	}
	m.drainErrors()
}

func (m *Model) drainErrors() bool {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	if len(pending) == 0 {
		return false
	}
	m.setError(pending[len(pending)-1])
	return true
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// tabFields returns the fields of the active tab
func (m *Model) tabFields() []domain.Field {
	if len(m.tabs) == 0 {
		return nil
	}
	tab := m.tabs[m.activeTab]
	var fields []domain.Field
	for _, f := range m.surface.Fields() {
		if f.Tab == tab {
			fields = append(fields, f)
		}
	}
	return fields
}

func (m *Model) currentField() (domain.Field, bool) {
	fields := m.tabFields()
	if m.focus < 0 || m.focus >= len(fields) {
		return domain.Field{}, false
	}
	return fields[m.focus], true
}

func (m *Model) switchTab(delta int) {
	if len(m.tabs) == 0 {
		return
	}
	m.blurCurrent()
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	m.focus = 0
	m.focusCurrent()
}

func (m *Model) moveFocus(delta int) {
	n := len(m.tabFields())
	if n == 0 {
		return
	}
	m.blurCurrent()
	m.focus = (m.focus + delta + n) % n
	m.focusCurrent()
}

func (m *Model) focusCurrent() {
	if f, ok := m.currentField(); ok {
		m.inputs[f.Key].Focus()
	}
}

func (m *Model) blurCurrent() {
	if f, ok := m.currentField(); ok {
		m.inputs[f.Key].Blur()
	}
}

// View renders the form
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.lang.Str(Title)))
	b.WriteString("\n")

	var tabs []string
	for i, name := range m.tabs {
		style := m.styles.Tab
		if i == m.activeTab {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(m.lang.Str(name)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))
	b.WriteString("\n\n")

	for i, f := range m.tabFields() {
		label := m.styles.Label
		if i == m.focus {
			label = m.styles.FocusLabel
		}
		b.WriteString(label.Render(m.lang.Str(f.Label)))
		b.WriteString(m.styles.Input.Render(m.inputs[f.Key].View()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Button.Render(m.lang.Str("Generate")))
	b.WriteString("\n")

	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.StatusError
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return m.styles.Main.Render(b.String())
}
