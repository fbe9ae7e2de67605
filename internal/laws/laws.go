package laws

import "fmt"

// Statement is the human-readable wording of one law.
type Statement struct {
	ID   LawID  `json:"id"`
	Text string `json:"text"`
}

// Statements lists the laws in evaluation order, with the active LOC
// thresholds filled in. No secret rules: renderers print this first.
func Statements(ctx Context) []Statement {
	return []Statement{
		{ID: LawMultiDef, Text: "One public function or class per .py file"},
		{ID: LawMissingAll, Text: "__init__.py with re-exports must have a literal, non-empty __all__"},
		{ID: LawEntry, Text: fmt.Sprintf("Entry files hold at most %d non-dispatch defs", MaxEntryDefs)},
		{ID: LawLOC, Text: fmt.Sprintf("Source files <= %d LOC, test files <= %d LOC", ctx.SourceMax, ctx.TestMax)},
	}
}
