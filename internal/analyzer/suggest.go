package analyzer

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// maxSuggestDistance is the largest Levenshtein distance between an
// unknown attribute and a purity attribute that still earns a suggestion.
const maxSuggestDistance = 2

// minSuggestLength keeps short attribute names such as [Obsolete] or [Flags]
// from matching anything.
const minSuggestLength = 5

// Suggestion returns the purity attribute an unrecognized attribute name
// most likely meant, or "" when none is close enough.
func Suggestion(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Attribute")
	if len(name) < minSuggestLength {
		return ""
	}
	best, bestDistance := "", maxSuggestDistance+1
	for _, canonical := range types.AnnotationNames() {
		d := edlib.LevenshteinDistance(name, canonical)
		if d == 0 {
			return ""
		}
		if d < bestDistance {
			best, bestDistance = canonical, d
		}
	}
	return best
}

// suggest warns about attributes on sym that look like misspelled purity
// attributes.
func suggest(r diagnostics.Reporter, sym *model.Symbol) {
	for _, attr := range sym.Attributes {
		if attr.Annotation != types.AnnotationNone {
			continue
		}
		if s := Suggestion(attr.Name); s != "" {
			r.Report(diagnostics.Diagnostic{
				ID:       diagnostics.PurityAttributeAnalyzer,
				Severity: diagnostics.SevWarning,
				Location: attr.Location,
				Message:  fmt.Sprintf("unknown attribute '%s' (did you mean '%s'?)", attr.Name, s),
			})
		}
	}
}
