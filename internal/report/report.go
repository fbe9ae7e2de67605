package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mvp-joe/big-brother/internal/facts"
	"github.com/mvp-joe/big-brother/internal/laws"
	"github.com/mvp-joe/big-brother/internal/scan"
)

// VetHint tells the reader how to acknowledge a cohesive file.
const VetHint = "To vet: add '# " + facts.VettingMarker + "' to the first 10 lines of the file."

// Options controls text rendering.
type Options struct {
	Lines   bool // list L{start}-L{end} per offending definition
	Quiet   bool // omit the laws header
	NoColor bool
}

// Renderer writes scan results for humans or machines.
type Renderer struct {
	opts Options
	bold *color.Color
	red  *color.Color
	dim  *color.Color
	ok   *color.Color
}

// NewRenderer creates a text renderer.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		opts: opts,
		bold: color.New(color.Bold),
		red:  color.New(color.FgRed),
		dim:  color.New(color.FgHiBlack),
		ok:   color.New(color.FgGreen),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{r.bold, r.red, r.dim, r.ok} {
			c.DisableColor()
		}
	}
	return r
}

// Laws prints the active laws. They are stated before they are enforced.
func (r *Renderer) Laws(w io.Writer, ctx laws.Context) {
	r.bold.Fprintln(w, "Laws:")
	for i, st := range laws.Statements(ctx) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, st.Text)
	}
	fmt.Fprintln(w)
}

// Text renders res: the unvetted findings grouped by law, then the
// vetted ones. Both sections always appear when non-empty.
func (r *Renderer) Text(w io.Writer, res *scan.Result, ctx laws.Context) {
	if !r.opts.Quiet {
		r.Laws(w, ctx)
	}

	unvetted, vetted := res.Unvetted(), res.Vetted()
	if len(unvetted) == 0 && len(vetted) == 0 && len(res.Errors) == 0 {
		r.ok.Fprintln(w, "No violations found.")
		return
	}

	if len(unvetted) > 0 {
		fmt.Fprintln(w, r.unvettedTable(unvetted))
		fmt.Fprintln(w)
		r.red.Fprintf(w, "%d violation(s)\n", len(unvetted))
		r.dim.Fprintln(w, VetHint)
	}

	if len(vetted) > 0 {
		fmt.Fprintln(w)
		r.bold.Fprintf(w, "--- vetted (%d) ---\n", len(vetted))
		for _, f := range vetted {
			fmt.Fprintf(w, "  %s\n", detail(f))
			if r.opts.Lines {
				for _, d := range f.Definitions {
					fmt.Fprintf(w, "      %-30s L%d-L%d\n", d.Name, d.StartLine, d.EndLine)
				}
			}
		}
	}

	if len(res.Errors) > 0 {
		fmt.Fprintln(w)
		r.red.Fprintf(w, "--- unreadable (%d) ---\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %s\n", e.Message)
		}
	}

	if len(unvetted) == 0 {
		r.ok.Fprintln(w, "No unvetted violations.")
	}
}

func (r *Renderer) unvettedTable(findings []scan.Finding) string {
	byLaw := make(map[laws.LawID][]scan.Finding)
	for _, f := range findings {
		byLaw[f.Law] = append(byLaw[f.Law], f)
	}
	ids := make([]string, 0, len(byLaw))
	for id := range byLaw {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"Rule", "Count", "Detail"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	for _, id := range ids {
		entries := byLaw[laws.LawID(id)]
		for i, f := range entries {
			label, count := "", ""
			if i == 0 {
				label, count = id, fmt.Sprint(len(entries))
			}
			tbl.AppendRow(table.Row{label, count, detail(f)})
			if r.opts.Lines {
				for _, d := range f.Definitions {
					tbl.AppendRow(table.Row{"", "", fmt.Sprintf("    %-30s L%d-L%d", d.Name, d.StartLine, d.EndLine)})
				}
			}
		}
	}
	return tbl.Render()
}

func detail(f scan.Finding) string {
	return f.Path + ": " + f.Message
}

// JSON writes res as an indented JSON document.
func JSON(w io.Writer, res *scan.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ExitCode is 1 only in strict mode and only for unvetted findings;
// vetted findings never fail a run.
func ExitCode(res *scan.Result, strict bool) int {
	if strict && len(res.Unvetted()) > 0 {
		return 1
	}
	return 0
}

// Summary is a one-line description of res, used by watch mode.
func Summary(res *scan.Result) string {
	parts := []string{
		fmt.Sprintf("%d file(s)", res.Files),
		fmt.Sprintf("%d violation(s)", len(res.Unvetted())),
	}
	if n := len(res.Vetted()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d vetted", n))
	}
	if n := len(res.Errors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unreadable", n))
	}
	return strings.Join(parts, ", ")
}
