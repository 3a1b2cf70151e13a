package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/host"
)

const source = `import a from "./a";
import b from "./b";
import missing from "missing";
const c = a + b;
export default c;
`

func unresolved() engine.Issue {
	return engine.Issue{
		Level:       engine.LevelWarning,
		Code:        "module-not-found",
		Description: `Cannot resolve module "missing"`,
		Help:        "This indicates a misconfiguration or a missing dependency.",
		Location: &engine.Location{
			Start: engine.Point{Row: 2, Column: 0},
			End:   engine.Point{Row: 2, Column: 31},
		},
		Details: []string{"resolve 'missing' in '/repo'\n  /repo/node_modules doesn't exist"},
	}
}

func TestIssueReport_RenderText(t *testing.T) {
	report := &IssueReport{}
	report.Add("src/index.ts > ts program", unresolved(), []byte(source))

	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, false))

	want := `[module-not-found] warning: Cannot resolve module "missing"

      1 | import a from "./a";
      2 | import b from "./b";
->    3 | import missing from "missing";
      4 | const c = a + b;
      5 | export default c;
  at src/index.ts > ts program

  This indicates a misconfiguration or a missing dependency.

  resolve 'missing' in '/repo'
    /repo/node_modules doesn't exist

Found 1 issue
`
	assert.Equal(t, want, buf.String())
}

func TestIssueReport_RenderTextWithoutLocation(t *testing.T) {
	report := &IssueReport{}
	report.Add("src/orphan.ts > x", engine.Issue{
		Level:       engine.LevelWarning,
		Code:        "zombie",
		Description: "This symbol is needlessly exported",
	}, nil)
	report.Add("src/lib.ts > y", engine.Issue{
		Level:       engine.LevelWarning,
		Code:        "zombie",
		Description: "This symbol is not used",
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, false))

	want := `[zombie] warning: This symbol is needlessly exported

  src/orphan.ts > x

[zombie] warning: This symbol is not used

  src/lib.ts > y

Found 2 issues
`
	assert.Equal(t, want, buf.String())
}

func TestIssueReport_ContextAtFileStart(t *testing.T) {
	issue := unresolved()
	issue.Location.Start.Row = 0
	issue.Help = ""
	issue.Details = nil

	report := &IssueReport{}
	report.Add("a.ts", issue, []byte("first\nsecond\n"))

	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, false))
	assert.Contains(t, buf.String(), "->    1 | first\n      2 | second\n      3 | \n  at a.ts\n")
}

func TestIssueReport_Sort(t *testing.T) {
	report := &IssueReport{}
	report.Add("b", engine.Issue{Level: engine.LevelError, Code: "invalid-config", Description: "x"}, nil)
	report.Add("b", engine.Issue{Level: engine.LevelWarning, Code: "zombie", Description: "This symbol is not used"}, nil)
	report.Add("a", engine.Issue{Level: engine.LevelWarning, Code: "zombie", Description: "This symbol is not used"}, nil)
	report.Add("c", engine.Issue{Level: engine.LevelWarning, Code: "module-not-found", Description: "z"}, nil)
	report.Sort()

	var order []string
	for _, i := range report.Issues {
		order = append(order, i.Code+"@"+i.Node)
	}
	assert.Equal(t, []string{"module-not-found@c", "zombie@a", "zombie@b", "invalid-config@b"}, order)
	assert.True(t, report.HasErrors())
}

func TestIssueReport_RenderData(t *testing.T) {
	report := &IssueReport{}
	report.Add("src/index.ts > ts program", unresolved(), []byte(source))

	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatJSON, &buf, false).Output(report))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "src/index.ts > ts program", got[0]["node"])
	assert.Equal(t, "warning", got[0]["level"])
	assert.Equal(t, "module-not-found", got[0]["code"])
	assert.Contains(t, got[0], "location")
	assert.NotContains(t, got[0], "source")
}

func TestIssueReport_TOON(t *testing.T) {
	report := &IssueReport{}
	report.Add("package.json > symbol:left-pad", engine.Issue{
		Level:       engine.LevelWarning,
		Code:        "zombie",
		Description: "This symbol is not used",
	}, nil)

	report.Add("src/index.ts > ts program", unresolved(), []byte(source))

	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(report))
	out := buf.String()
	assert.Contains(t, out, "zombie")
	assert.Contains(t, out, "This symbol is not used")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "module-not-found")
}

func TestNodeSummary_TOON(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)
	e.File("/repo/a.ts").SetReal()

	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(NodeSummary(e)))
	assert.Contains(t, buf.String(), "file")
	assert.Contains(t, buf.String(), "dir")
}

func TestReporter(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)
	file := e.File("/repo/src/index.ts")
	file.SetReal()
	program := file.Program("ts")
	e.AddIssue(program, unresolved())
	e.AddIssue(e.File("/repo/README.md"), engine.Issue{Level: engine.LevelError, Code: "broken", Description: "Broken"})

	e.Hooks.ReadFile.Tap("test", func(_ context.Context, n *engine.Node) ([]byte, bool, error) {
		if n == file {
			return []byte(source), true, nil
		}
		return nil, false, nil
	})

	var buf bytes.Buffer
	NewReporter(NewWriterFormatter(FormatText, &buf, false), WithNodeSummary()).Apply(e)
	require.NoError(t, e.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "->    3 | import missing from \"missing\";")
	assert.Contains(t, out, "  at /repo/src/index.ts > program:ts")
	assert.Contains(t, out, "[broken] error: Broken\n\n  /repo/README.md\n")
	assert.Contains(t, out, "Found 2 issues")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("REAL NODES")), bytes.Index(buf.Bytes(), []byte("[module-not-found]")))
}

func TestNodeSummary(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)
	e.File("/repo/a.ts").SetReal()
	e.File("/repo/b.ts").SetReal()
	e.File("/repo/c.ts").Program("ts")

	table := NodeSummary(e)
	assert.Equal(t, [][]string{{"dir", "1"}, {"file", "2"}}, table.Rows)
	assert.Equal(t, []string{"Total", "3"}, table.Footer)
	assert.Equal(t, []KindCount{{Kind: "dir", Count: 1}, {Kind: "file", Count: 2}}, table.RenderData())
}
