package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "fold")),
	Expand:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
	Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// row is a visible line of the tree.
type row struct {
	n     *node
	depth int
}

type browseModel struct {
	source    string
	roots     []*node
	collapsed map[*node]bool
	rows      []row
	cursor    int
	view      viewport.Model
	ready     bool
	styles    palette
}

// detailsHeight is the number of lines below the tree.
const detailsHeight = 4

func newBrowseModel(source string, roots []*node) *browseModel {
	m := &browseModel{
		source:    source,
		roots:     roots,
		collapsed: map[*node]bool{},
		styles:    newPalette(lipgloss.DefaultRenderer()),
	}
	m.rebuild()
	return m
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

// rebuild flattens the tree, skipping children of collapsed nodes.
func (m *browseModel) rebuild() {
	m.rows = m.rows[:0]
	for _, r := range m.roots {
		m.flatten(r, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *browseModel) flatten(n *node, depth int) {
	m.rows = append(m.rows, row{n: n, depth: depth})
	if m.collapsed[n] {
		return
	}
	for _, c := range n.Children {
		m.flatten(c, depth+1)
	}
}

func (m *browseModel) current() *node {
	if len(m.rows) == 0 {
		return nil
	}
	return m.rows[m.cursor].n
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - detailsHeight - 2
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.view = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = h
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Top):
			m.cursor = 0
		case key.Matches(msg, keys.Bottom):
			m.cursor = len(m.rows) - 1
		case key.Matches(msg, keys.Toggle):
			if n := m.current(); n != nil && len(n.Children) > 0 {
				m.collapsed[n] = !m.collapsed[n]
				m.rebuild()
			}
		case key.Matches(msg, keys.Expand):
			if n := m.current(); n != nil && m.collapsed[n] {
				delete(m.collapsed, n)
				m.rebuild()
			}
		case key.Matches(msg, keys.Collapse):
			if n := m.current(); n != nil && len(n.Children) > 0 && !m.collapsed[n] {
				m.collapsed[n] = true
				m.rebuild()
			}
		}
	}

	if m.ready {
		m.view.SetContent(m.treeView())
		m.follow()
	}
	return m, nil
}

// follow scrolls the viewport so the cursor row stays visible.
func (m *browseModel) follow() {
	switch {
	case m.cursor < m.view.YOffset:
		m.view.SetYOffset(m.cursor)
	case m.cursor >= m.view.YOffset+m.view.Height:
		m.view.SetYOffset(m.cursor - m.view.Height + 1)
	}
}

func (m *browseModel) treeView() string {
	var b strings.Builder
	for i, r := range m.rows {
		marker := "  "
		if len(r.n.Children) > 0 {
			marker = "▾ "
			if m.collapsed[r.n] {
				marker = "▸ "
			}
		}
		if i == m.cursor {
			b.WriteString(m.styles.selected.Render(marker + plainLine(r.n, r.depth)))
		} else {
			b.WriteString(marker + m.styles.formatLine(r.n, r.depth))
		}
		if i < len(m.rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// plainLine is formatLine without colors, for the highlighted row.
func plainLine(n *node, depth int) string {
	s := fmt.Sprintf("%08x  %s", n.Offset, strings.Repeat("  ", depth))
	if n.Label != "" {
		s += n.Label + ": "
	}
	s += n.Code + " " + n.Category + " " + n.Type
	if n.Value != "" {
		s += " " + n.Value
	}
	if n.Error != "" {
		s += " ! " + n.Error
	}
	return s
}

func (m *browseModel) details() string {
	n := m.current()
	if n == nil {
		return m.styles.help.Render("no values")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  offset %d  size %d  %s\n",
		m.styles.typ.Render(n.Type), m.styles.code.Render(n.Code), n.Offset, n.Size, m.styles.category.Render(n.Category))
	if n.Value != "" {
		b.WriteString(m.styles.value.Render(n.Value))
	}
	b.WriteString("\n")
	if n.Error != "" {
		b.WriteString(m.styles.err.Render("Error: " + n.Error))
	}
	return b.String()
}

func (m *browseModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.styles.title.Render("amqpdump"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n\n")
	b.WriteString(m.details())
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("↑/↓ move • enter fold • ←/→ collapse/expand • g/G top/bottom • q quit"))
	return b.String()
}

func runInteractive(source string, roots []*node) error {
	p := tea.NewProgram(newBrowseModel(source, roots), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
