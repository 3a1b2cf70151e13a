package output

import (
	"context"
	"maps"
	"slices"
	"strconv"

	"github.com/Danoha/lexemite/pkg/engine"
)

// ReporterName is the participant name of the reporter.
const ReporterName = "issues"

// KindCount is the number of real nodes of one kind.
type KindCount struct {
	Kind  string `json:"kind" toon:"kind"`
	Count int    `json:"count" toon:"count"`
}

// NodeSummary returns a table of real nodes per kind, kinds sorted by name.
func NodeSummary(e *engine.Engine) *Table {
	counts := map[engine.Kind]int{}
	for n := range e.Root().Walk().All() {
		if n.IsReal() {
			counts[n.Kind()]++
		}
	}

	var (
		rows  [][]string
		data  []KindCount
		total int
	)
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, []string{string(kind), strconv.Itoa(counts[kind])})
		data = append(data, KindCount{Kind: string(kind), Count: counts[kind]})
		total += counts[kind]
	}
	return NewTable([]string{"Kind", "Real nodes"}, rows, []string{"Total", strconv.Itoa(total)}, data)
}

// Reporter prints the issues of a run in the done stage.
type Reporter struct {
	formatter *Formatter
	summary   bool
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithNodeSummary prints the node summary table before the issues. It only
// applies to the text format.
func WithNodeSummary() ReporterOption {
	return func(r *Reporter) {
		r.summary = true
	}
}

// NewReporter creates a reporter writing through f.
func NewReporter(f *Formatter, opts ...ReporterOption) *Reporter {
	r := &Reporter{formatter: f}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) Name() string { return ReporterName }

// Apply registers the reporter as a done participant.
func (r *Reporter) Apply(e *engine.Engine) {
	e.Hooks.Done.Tap(ReporterName, r.report)
}

func (r *Reporter) report(ctx context.Context, e *engine.Engine) error {
	issues, err := CollectIssues(ctx, e)
	if err != nil {
		return err
	}
	if r.summary && r.formatter.Format() == FormatText {
		if err := r.formatter.Output(NodeSummary(e)); err != nil {
			return err
		}
	}
	return r.formatter.Output(issues)
}
