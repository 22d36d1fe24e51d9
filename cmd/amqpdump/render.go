package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// palette holds the styles used for tree output.
type palette struct {
	offset   lipgloss.Style
	code     lipgloss.Style
	category lipgloss.Style
	typ      lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	err      lipgloss.Style
	title    lipgloss.Style
	ok       lipgloss.Style
	help     lipgloss.Style
	selected lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	return palette{
		offset:   r.NewStyle().Foreground(lipgloss.Color("#666666")),
		code:     r.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		category: r.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		typ:      r.NewStyle().Foreground(lipgloss.Color("#98FB98")).Bold(true),
		label:    r.NewStyle().Foreground(lipgloss.Color("#BD93F9")),
		value:    r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		err:      r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1),
		ok:       r.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		help:     r.NewStyle().Foreground(lipgloss.Color("#666666")),
		selected: r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")),
	}
}

// colorMode is the --color setting.
type colorMode string

const (
	colorAuto   colorMode = "auto"
	colorAlways colorMode = "always"
	colorNever  colorMode = "never"
)

func parseColorMode(s string) (colorMode, error) {
	switch m := colorMode(s); m {
	case colorAuto, colorAlways, colorNever:
		return m, nil
	}
	return "", fmt.Errorf("--color must be auto, always or never, got %q", s)
}

// newRenderer returns a renderer for w honoring mode. isTTY reports whether
// w is a terminal.
func newRenderer(w io.Writer, mode colorMode, isTTY bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch {
	case mode == colorNever, mode == colorAuto && !isTTY:
		r.SetColorProfile(termenv.Ascii)
	case mode == colorAlways:
		r.SetColorProfile(termenv.ANSI256)
	}
	return r
}

// formatLine renders one node as "offset  code  category  type  value".
func (p palette) formatLine(n *node, depth int) string {
	var b strings.Builder
	b.WriteString(p.offset.Render(fmt.Sprintf("%08x", n.Offset)))
	b.WriteString("  ")
	b.WriteString(strings.Repeat("  ", depth))
	if n.Label != "" {
		b.WriteString(p.label.Render(n.Label + ":"))
		b.WriteString(" ")
	}
	b.WriteString(p.code.Render(n.Code))
	b.WriteString(" ")
	b.WriteString(p.category.Render(n.Category))
	b.WriteString(" ")
	b.WriteString(p.typ.Render(n.Type))
	if n.Value != "" {
		b.WriteString(" ")
		b.WriteString(p.value.Render(n.Value))
	}
	if n.Error != "" {
		b.WriteString(" ")
		b.WriteString(p.err.Render("! " + n.Error))
	}
	return b.String()
}

// renderText writes the indented tree of every root.
func renderText(w io.Writer, p palette, roots []*node) error {
	for _, r := range roots {
		var err error
		walk(r, 0, func(n *node, depth int) {
			if err == nil {
				_, err = fmt.Fprintln(w, p.formatLine(n, depth))
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
