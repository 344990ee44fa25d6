package evaluation

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Drift describes how the live template changed since an evaluation snapshotted it.
type Drift struct {
	Changed bool   `json:"changed"`
	Diff    string `json:"diff"` // unified diff, snapshot first
}

// TemplateDrift diffs the outline of a snapshot against the live template.
func TemplateDrift(snapshot, live Template) (Drift, error) {
	a, b := outline(snapshot), outline(live)
	if a == b {
		return Drift{}, nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "evaluation snapshot",
		ToFile:   "current template",
		Context:  2,
	})
	if err != nil {
		return Drift{}, err
	}
	return Drift{Changed: true, Diff: diff}, nil
}

// outline renders the parts of a template that affect what an evaluator sees and how it is scored.
func outline(t Template) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "title: %s\n", t.Title)
	fmt.Fprintf(&sb, "scale: %s\n", t.ScaleID)
	fmt.Fprintf(&sb, "scoring: %s\n", t.ScoringMethod)
	for _, sec := range t.Sections {
		if sec.Weight > 0 {
			fmt.Fprintf(&sb, "section %s: %s (weight %g)\n", sec.ID, sec.Title, sec.Weight)
		} else {
			fmt.Fprintf(&sb, "section %s: %s\n", sec.ID, sec.Title)
		}
		for _, item := range sec.Items {
			fmt.Fprintf(&sb, "  - %s: %s\n", item.ID, item.Text)
		}
	}
	for _, e := range t.Essays {
		fmt.Fprintf(&sb, "essay %s: %s\n", e.ID, e.Prompt)
	}
	return sb.String()
}
