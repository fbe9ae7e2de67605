package laws

// LawID identifies the rule a violation was raised under.
type LawID string

const (
	LawMultiDef        LawID = "multi-def"
	LawMissingAll      LawID = "missing-all"
	LawUnverifiableAll LawID = "unverifiable-all"
	LawEntry           LawID = "entry"
	LawLOC             LawID = "loc"
	LawUnparsable      LawID = "unparsable"
)

// DefRange is the line span of one definition named in a violation.
type DefRange struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Violation is one observation about one file. Violations never carry
// or modify file contents.
type Violation struct {
	Law     LawID  `json:"law"`
	Path    string `json:"path"`
	Message string `json:"message"`

	// StartLine/EndLine locate the violation when it has a single span; zero otherwise.
	StartLine int `json:"start_line,omitempty"`
	EndLine   int `json:"end_line,omitempty"`

	// Definitions lists the offending definitions for multi-def and entry.
	Definitions []DefRange `json:"definitions,omitempty"`
}

// Context carries the caller-side classification and thresholds for one file.
type Context struct {
	IsEntry bool
	IsTest  bool

	SourceMax int
	TestMax   int

	// DispatchNames are excluded from the entry file count.
	DispatchNames []string
}

const (
	DefaultSourceMax = 800
	DefaultTestMax   = 500
)

// DefaultContext returns thresholds 800/500 and "main" as the dispatch name.
func DefaultContext() Context {
	return Context{
		SourceMax:     DefaultSourceMax,
		TestMax:       DefaultTestMax,
		DispatchNames: []string{"main"},
	}
}

// MaxEntryDefs is the number of non-dispatch definitions an entry file may hold.
const MaxEntryDefs = 3
