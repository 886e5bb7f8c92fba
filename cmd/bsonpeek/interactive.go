package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wirebind/bsonic/wire"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	scalarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// node is one row of the browsable tree.
type node struct {
	key      string
	value    wire.Value
	depth    int
	children []*node
	expanded bool
}

func buildTree(key string, v wire.Value, depth int) *node {
	n := &node{key: key, value: v, depth: depth}
	if doc, ok := v.DocumentOK(); ok {
		for _, el := range doc {
			n.children = append(n.children, buildTree(el.Key, el.Value, depth+1))
		}
	} else if arr, ok := v.ArrayOK(); ok {
		for i, item := range arr {
			n.children = append(n.children, buildTree(fmt.Sprintf("[%d]", i), item, depth+1))
		}
	}
	return n
}

type browserModel struct {
	filename string
	root     *node
	rows     []*node
	cursor   int
	vp       viewport.Model
	ready    bool
}

func newBrowserModel(filename string, root wire.Value) *browserModel {
	rn := buildTree("", root, 0)
	rn.expanded = true
	m := &browserModel{filename: filename, root: rn}
	m.rebuild()
	return m
}

// rebuild flattens the expanded portion of the tree into visible rows.
func (m *browserModel) rebuild() {
	m.rows = m.rows[:0]
	var walk func(n *node)
	walk = func(n *node) {
		m.rows = append(m.rows, n)
		if n.expanded {
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(m.root)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - 4
		}
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "enter", " ":
			n := m.rows[m.cursor]
			if len(n.children) > 0 {
				n.expanded = !n.expanded
				m.rebuild()
			}
		case "e":
			m.setExpanded(m.root, true)
			m.rebuild()
		case "c":
			m.setExpanded(m.root, false)
			m.root.expanded = true
			m.rebuild()
			m.cursor = 0
		}
		m.refresh()
	}
	return m, nil
}

func (m *browserModel) setExpanded(n *node, expanded bool) {
	n.expanded = expanded
	for _, c := range n.children {
		m.setExpanded(c, expanded)
	}
}

func (m *browserModel) refresh() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, n := range m.rows {
		line := m.renderRow(n)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	m.vp.SetContent(b.String())
	m.scrollToCursor()
}

func (m *browserModel) scrollToCursor() {
	if m.cursor < m.vp.YOffset {
		m.vp.SetYOffset(m.cursor)
	} else if m.cursor >= m.vp.YOffset+m.vp.Height {
		m.vp.SetYOffset(m.cursor - m.vp.Height + 1)
	}
}

func (m *browserModel) renderRow(n *node) string {
	indent := strings.Repeat("  ", n.depth)

	expander := "  "
	if len(n.children) > 0 {
		if n.expanded {
			expander = "▾ "
		} else {
			expander = "▸ "
		}
	}

	label := ""
	if n.key != "" {
		label = keyStyle.Render(n.key) + ": "
	}

	if _, ok := n.value.DocumentOK(); ok {
		return fmt.Sprintf("%s%s%s%s (%d)", indent, expander, label, typeStyle.Render("document"), len(n.children))
	}
	if _, ok := n.value.ArrayOK(); ok {
		return fmt.Sprintf("%s%s%s%s (%d)", indent, expander, label, typeStyle.Render("array"), len(n.children))
	}
	return fmt.Sprintf("%s%s%s%s %s", indent, expander, label,
		typeStyle.Render(n.value.Type.String()), scalarStyle.Render(n.value.String()))
}

func (m *browserModel) View() string {
	if !m.ready {
		return "loading..."
	}
	title := titleStyle.Render("bsonpeek — " + m.filename)
	help := helpStyle.Render("↑/↓ move · enter toggle · e expand all · c collapse all · q quit")
	return title + "\n\n" + m.vp.View() + "\n" + help
}

func runInteractive(filename string, root wire.Value) error {
	p := tea.NewProgram(newBrowserModel(filename, root), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
