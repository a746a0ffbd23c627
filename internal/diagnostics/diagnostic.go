// Package diagnostics turns analysis findings into reportable diagnostics
// and formats them as text, JSON or SARIF.
package diagnostics

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/standardbeagle/purity/internal/types"
)

// ID names the rule a diagnostic belongs to
type ID string

const (
	// PurityAnalyzer reports impurities of units declared pure
	PurityAnalyzer ID = "PurityAnalyzer"
	// ReturnsNewObjectAnalyzer reports aliased returns and object usage of
	// type parameters declared NotUsedAsObject
	ReturnsNewObjectAnalyzer ID = "ReturnsNewObjectAnalyzer"
	// PureLambdaAnalyzer reports pure-lambda positions given a non-lambda
	PureLambdaAnalyzer ID = "PureLambdaAnalyzer"
	// PurityAttributeAnalyzer reports attribute names that look like
	// misspelled purity attributes
	PurityAttributeAnalyzer ID = "PurityAttributeAnalyzer"
	// PurityParser reports syntax errors in analyzed sources
	PurityParser ID = "PurityParser"
)

// Rule describes one diagnostic ID
type Rule struct {
	ID          ID
	Title       string
	Description string
	Severity    Severity
}

var rules = []Rule{
	{PurityAnalyzer, "Impurity in pure member", "A member declared pure performs an effect its purity level does not permit.", SevError},
	{ReturnsNewObjectAnalyzer, "Non-fresh object", "A member declared to return new objects may return an existing one, or a type parameter declared not used as object is used as one.", SevError},
	{PureLambdaAnalyzer, "Expected pure lambda", "An argument that must be a pure lambda is not a lambda expression.", SevError},
	{PurityAttributeAnalyzer, "Unknown purity attribute", "An attribute name looks like a misspelled purity attribute.", SevWarning},
	{PurityParser, "Syntax error", "The source could not be parsed completely; analysis continued on the recovered tree.", SevWarning},
}

// Rules lists every diagnostic ID in a stable order
func Rules() []Rule {
	return slices.Clone(rules)
}

// Severity is the importance of a diagnostic
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Diagnostic is one reportable finding
type Diagnostic struct {
	ID       ID
	Severity Severity
	Location types.Location
	Message  string
	// Unit is the qualified name of the member whose check produced the
	// diagnostic, empty for parse and attribute diagnostics.
	Unit string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.Severity, d.ID, d.Message)
}

// FromImpurity wraps an engine finding
func FromImpurity(id ID, unit string, imp types.Impurity) Diagnostic {
	return Diagnostic{ID: id, Severity: SevError, Location: imp.Location, Message: imp.Reason, Unit: unit}
}

// Reporter receives diagnostics
type Reporter interface {
	Report(d Diagnostic)
}

// Bag collects diagnostics. It is safe for concurrent Report calls.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewBag creates an empty bag
func NewBag() *Bag {
	return &Bag{}
}

// Report adds a diagnostic
func (b *Bag) Report(d Diagnostic) {
	b.mu.Lock()
	b.items = append(b.items, d)
	b.mu.Unlock()
}

// Len returns the number of diagnostics
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the diagnostics
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// HasErrors reports whether any diagnostic is an error
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return HasErrors(b.items)
}

// Finish deduplicates and sorts the diagnostics and returns them
func (b *Bag) Finish() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = Normalize(b.items)
	return slices.Clone(b.items)
}

// HasErrors reports whether any diagnostic in the list is an error
func HasErrors(items []Diagnostic) bool {
	for _, d := range items {
		if d.Severity >= SevError {
			return true
		}
	}
	return false
}

// Normalize drops exact duplicates (same ID, location and message) and
// orders by file, position, severity (errors first), ID and message.
func Normalize(items []Diagnostic) []Diagnostic {
	type key struct {
		id  ID
		loc types.Location
		msg string
	}
	seen := make(map[key]bool, len(items))
	out := items[:0:0]
	for _, d := range items {
		k := key{d.ID, d.Location, d.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	slices.SortStableFunc(out, compare)
	return out
}

func compare(a, b Diagnostic) int {
	if c := types.CompareLocations(a.Location, b.Location); c != 0 {
		return c
	}
	if a.Location.Line != b.Location.Line {
		return a.Location.Line - b.Location.Line
	}
	if a.Severity != b.Severity {
		return int(b.Severity) - int(a.Severity)
	}
	if c := strings.Compare(string(a.ID), string(b.ID)); c != 0 {
		return c
	}
	return strings.Compare(a.Message, b.Message)
}

// Count tallies diagnostics per severity
func Count(items []Diagnostic) (errors, warnings int) {
	for _, d := range items {
		switch d.Severity {
		case SevError:
			errors++
		case SevWarning:
			warnings++
		}
	}
	return errors, warnings
}
