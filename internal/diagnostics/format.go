package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/standardbeagle/purity/pkg/pathutil"
)

// Format selects an output encoding
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// ParseFormat validates a format name. The empty name means text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatSARIF:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or sarif)", name)
}

// Options configures Write
type Options struct {
	Format Format
	Color  bool
	// BaseDir makes file paths relative when set
	BaseDir string
	// ToolVersion is recorded in SARIF output
	ToolVersion string
}

// Write encodes diagnostics to w
func Write(w io.Writer, items []Diagnostic, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return WriteJSON(w, items, opts)
	case FormatSARIF:
		return WriteSARIF(w, items, opts)
	default:
		return WriteText(w, items, opts)
	}
}

func relPath(path, base string) string {
	return pathutil.ToRelative(path, base)
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	pathColor    = color.New(color.Bold)
	idColor      = color.New(color.Faint)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return errorColor
	case SevWarning:
		return warningColor
	}
	return infoColor
}

// WriteText prints one line per diagnostic:
//
//	path:line:col: severity ID: message
//
// followed by a summary line when there is anything to report.
func WriteText(w io.Writer, items []Diagnostic, opts Options) error {
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}
	for _, d := range items {
		loc := d.Location
		loc.File = relPath(loc.File, opts.BaseDir)
		_, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			paint(pathColor, loc.String()),
			paint(severityColor(d.Severity), d.Severity.String()),
			paint(idColor, string(d.ID)),
			d.Message)
		if err != nil {
			return err
		}
	}
	if len(items) == 0 {
		return nil
	}
	errs, warns := Count(items)
	_, err := fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warns)
	return err
}

type jsonLocation struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line,omitempty"`
	EndColumn int    `json:"end_column,omitempty"`
}

type jsonDiagnostic struct {
	ID       string       `json:"id"`
	Severity string       `json:"severity"`
	Message  string       `json:"message"`
	Unit     string       `json:"unit,omitempty"`
	Location jsonLocation `json:"location"`
}

type jsonOutput struct {
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
}

// WriteJSON encodes the diagnostics as one JSON document
func WriteJSON(w io.Writer, items []Diagnostic, opts Options) error {
	out := jsonOutput{Diagnostics: make([]jsonDiagnostic, 0, len(items))}
	out.Errors, out.Warnings = Count(items)
	for _, d := range items {
		out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
			ID:       string(d.ID),
			Severity: d.Severity.String(),
			Message:  d.Message,
			Unit:     d.Unit,
			Location: jsonLocation{
				File:      relPath(d.Location.File, opts.BaseDir),
				Line:      d.Location.Line,
				Column:    d.Location.Column,
				EndLine:   d.Location.EndLine,
				EndColumn: d.Location.EndColumn,
			},
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
