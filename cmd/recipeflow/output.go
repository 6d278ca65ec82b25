package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"gopkg.in/yaml.v3"
)

// Color scheme: gray for structural/metadata text, white for values,
// green/red for outcomes.
var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const wrapWidth = 100

// wrapDiagnostic wraps long diagnostic text (stderr, error detail) to a
// fixed terminal width.
func wrapDiagnostic(s string) string {
	return wordwrap.String(s, wrapWidth)
}

// writeFormatted renders v in one of table/json/yaml, dispatching table
// rendering to renderTable (the only format-specific case; json/yaml
// are generic marshal-and-print).
func writeFormatted(w io.Writer, format string, v interface{}, renderTable func(io.Writer) error) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(data))
		return nil
	default:
		return renderTable(w)
	}
}

// row prints one "label: value" line using the label/value styles.
func row(w io.Writer, label string, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

// statusStyled renders "success"/"failed" style in green/red.
func statusStyled(success bool) string {
	if success {
		return successStyle.Render("success")
	}
	return errorStyle.Render("failed")
}

func indent(s string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
