package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mvp-joe/big-brother/internal/splitter"
)

// SplitPlan describes a planned package: its files, the definitions each
// holds, then notes and warnings. written says whether it is on disk.
func (r *Renderer) SplitPlan(w io.Writer, pkg *splitter.Package, written bool) {
	verb := "Planned"
	if written {
		verb = "Wrote"
	}
	r.bold.Fprintf(w, "%s %d file(s) in %s/ from %s\n", verb, len(pkg.AllFiles()), pkg.Dir, pkg.Source)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"File", "Definitions"})
	for _, f := range pkg.AllFiles() {
		held := strings.Join(f.Definitions, ", ")
		if len(f.Shared) > 0 {
			held = "state: " + strings.Join(f.Shared, ", ")
		}
		tbl.AppendRow(table.Row{f.Name, held})
	}
	fmt.Fprintln(w, tbl.Render())

	if len(pkg.Notes) > 0 {
		fmt.Fprintln(w)
		r.bold.Fprintf(w, "Notes (%d):\n", len(pkg.Notes))
		for _, n := range pkg.Notes {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}

	if len(pkg.Warnings) > 0 {
		fmt.Fprintln(w)
		r.red.Fprintf(w, "Warnings (%d):\n", len(pkg.Warnings))
		for _, wr := range pkg.Warnings {
			loc := ""
			if wr.Line > 0 {
				loc = fmt.Sprintf("L%d ", wr.Line)
			}
			fmt.Fprintf(w, "  [%s] %s%s\n", wr.Kind, loc, wr.Message)
		}
		r.dim.Fprintln(w, "Review the warnings, then re-run with --force to write anyway.")
	}

	fmt.Fprintln(w)
	r.dim.Fprintln(w, "Still manual: update external imports of the original module, then delete it.")
}

// SplitContents prints every generated file, for --dry-run.
func (r *Renderer) SplitContents(w io.Writer, pkg *splitter.Package) {
	for _, f := range pkg.AllFiles() {
		fmt.Fprintln(w)
		r.bold.Fprintf(w, "==> %s <==\n", f.Name)
		fmt.Fprint(w, f.Content)
	}
}
