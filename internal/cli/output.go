package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"})

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"})

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"})

	roleStyles = map[string]lipgloss.Style{
		"user":      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		"assistant": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		"system":    dimStyle,
	}

	statusStyles = map[string]lipgloss.Style{
		"completed":   successStyle,
		"in_progress": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		"pending":     dimStyle,
		"approved":    successStyle,
		"rejected":    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"suspended":   warnStyle,
	}
)

// printer renders command output. Styling is dropped when plain is set.
type printer struct {
	out   io.Writer
	plain bool
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

func (p *printer) status(status string) string {
	s, ok := statusStyles[status]
	if !ok {
		return status
	}
	return p.style(s, status)
}

func (p *printer) header(format string, args ...any) {
	fmt.Fprintln(p.out, p.style(headerStyle, fmt.Sprintf(format, args...)))
}

func (p *printer) success(format string, args ...any) {
	fmt.Fprintln(p.out, p.style(successStyle, fmt.Sprintf(format, args...)))
}

func (p *printer) println(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// table writes tab separated rows with aligned columns.
func (p *printer) table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.out, 0, 0, 3, ' ', 0)
	titled := make([]string, len(headers))
	for i, h := range headers {
		titled[i] = p.style(titleStyle, h)
	}
	fmt.Fprintln(w, strings.Join(titled, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// markdown renders assistant content for the terminal.
func (p *printer) markdown(md string) {
	if p.plain {
		fmt.Fprintln(p.out, md)
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(p.out, md)
		return
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		fmt.Fprintln(p.out, md)
		return
	}
	fmt.Fprint(p.out, rendered)
}

// code prints file content with syntax highlighting.
func (p *printer) code(content, language string) {
	if p.plain || language == "" {
		fmt.Fprint(p.out, content)
		return
	}
	if err := quick.Highlight(p.out, content, language, "terminal256", "monokai"); err != nil {
		fmt.Fprint(p.out, content)
	}
}
