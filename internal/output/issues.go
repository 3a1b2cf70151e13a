package output

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/Danoha/lexemite/pkg/engine"
)

// contextLines is how many source lines are shown around an issue.
const contextLines = 2

// IssueEntry is an issue together with the node it was reported at.
type IssueEntry struct {
	Node        string           `json:"node" toon:"node"`
	Level       string           `json:"level" toon:"level"`
	Code        string           `json:"code" toon:"code"`
	Description string           `json:"description" toon:"description"`
	Help        string           `json:"help,omitempty" toon:"help,omitempty"`
	Location    *engine.Location `json:"location,omitempty" toon:"location,omitempty"`
	Details     []string         `json:"details,omitempty" toon:"details,omitempty"`

	source []byte
}

// IssueReport is the Renderable list of issues found by a run.
type IssueReport struct {
	Issues []IssueEntry
}

// Add appends issue reported at node. source is the content of the file the
// issue location refers to, or nil.
func (r *IssueReport) Add(node string, issue engine.Issue, source []byte) {
	r.Issues = append(r.Issues, IssueEntry{
		Node:        node,
		Level:       string(issue.Level),
		Code:        issue.Code,
		Description: issue.Description,
		Help:        issue.Help,
		Location:    issue.Location,
		Details:     issue.Details,
		source:      source,
	})
}

// Len returns the number of issues.
func (r *IssueReport) Len() int {
	return len(r.Issues)
}

// HasErrors reports whether any issue has the error level.
func (r *IssueReport) HasErrors() bool {
	return slices.ContainsFunc(r.Issues, func(i IssueEntry) bool {
		return i.Level == string(engine.LevelError)
	})
}

// Sort orders warnings before errors, then by code, description and node.
func (r *IssueReport) Sort() {
	slices.SortStableFunc(r.Issues, func(a, b IssueEntry) int {
		return cmp.Or(
			cmp.Compare(levelRank(a.Level), levelRank(b.Level)),
			strings.Compare(a.Code, b.Code),
			strings.Compare(a.Description, b.Description),
			strings.Compare(a.Node, b.Node),
		)
	})
}

func levelRank(l string) int {
	if l == string(engine.LevelWarning) {
		return 0
	}
	return 1
}

// CollectIssues builds the sorted report of every issue in e. Issues with a
// location get the content of their closest file for source context.
func CollectIssues(ctx context.Context, e *engine.Engine) (*IssueReport, error) {
	report := &IssueReport{}
	for _, ni := range e.Issues() {
		var source []byte
		if ni.Issue.Location != nil {
			if file := ni.Node.Closest(engine.KindFile); file != nil {
				content, ok, err := e.ReadFile(ctx, file)
				if err != nil {
					return nil, fmt.Errorf("read %s: %w", file, err)
				}
				if ok {
					source = content
				}
			}
		}
		report.Add(e.FormatNode(ni.Node), ni.Issue, source)
	}
	report.Sort()
	return report, nil
}

func (r *IssueReport) RenderData() any {
	if r.Issues == nil {
		return []IssueEntry{}
	}
	return r.Issues
}

func (r *IssueReport) RenderText(w io.Writer, colored bool) error {
	for _, issue := range r.Issues {
		issue.renderText(w, colored)
		fmt.Fprintln(w)
	}

	noun := "issues"
	if len(r.Issues) == 1 {
		noun = "issue"
	}
	_, err := fmt.Fprintf(w, "Found %d %s\n", len(r.Issues), noun)
	return err
}

func (i *IssueEntry) renderText(w io.Writer, colored bool) {
	headline := color.FgRed
	if i.Level == string(engine.LevelWarning) {
		headline = color.FgYellow
	}
	paint(colored, headline, color.Bold, color.Underline).Fprintf(w, "[%s] %s:", i.Code, i.Level)
	fmt.Fprintf(w, " %s\n", i.Description)

	dim := paint(colored, color.Faint)
	if i.Location != nil && i.source != nil {
		fmt.Fprintln(w)
		i.renderSource(w, colored)
		dim.Fprintf(w, "  at %s\n", i.Node)
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", paint(colored, color.Bold).Sprint(i.Node))
	}

	if i.Help != "" {
		fmt.Fprintln(w)
		paint(colored, color.FgYellow, color.Faint).Fprintln(w, indent(i.Help))
	}
	if len(i.Details) > 0 {
		fmt.Fprintln(w)
		dim.Fprintln(w, indent(strings.Join(i.Details, "\n\n")))
	}
}

// renderSource prints the lines around the location start with the start
// line marked.
func (i *IssueEntry) renderSource(w io.Writer, colored bool) {
	lines := bytes.Split(i.source, []byte("\n"))
	row := int(i.Location.Start.Row)
	first := max(row-contextLines, 0)
	last := min(row+contextLines, len(lines)-1)

	dim := paint(colored, color.Faint)
	bold := paint(colored, color.Bold)
	for n := first; n <= last; n++ {
		line := string(bytes.TrimRight(lines[n], "\r"))
		prefix := "   "
		if n == row {
			prefix = "-> "
			line = bold.Sprint(line)
		}
		fmt.Fprintf(w, "%s%s %s %s\n", prefix, dim.Sprintf("%4d", n+1), dim.Sprint("|"), line)
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
