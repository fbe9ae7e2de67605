package scan

import (
	"github.com/mvp-joe/big-brother/internal/laws"
)

// Finding is one violation plus the vetting state of its file. Vetting
// moves a finding to a separate section of the report; it never hides it.
type Finding struct {
	laws.Violation
	Vetted bool `json:"vetted"`
}

// FileError records a file that could not be read. Other files are
// still scanned.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
}

// Result is everything one scan observed, ordered by path.
type Result struct {
	Root     string      `json:"root"`
	Files    int         `json:"files"`
	Findings []Finding   `json:"findings"`
	Errors   []FileError `json:"errors,omitempty"`
}

// Unvetted returns the findings from files without the vetting marker.
func (r *Result) Unvetted() []Finding {
	return r.filter(false)
}

// Vetted returns the findings from files carrying the vetting marker.
func (r *Result) Vetted() []Finding {
	return r.filter(true)
}

func (r *Result) filter(vetted bool) []Finding {
	out := []Finding{}
	for _, f := range r.Findings {
		if f.Vetted == vetted {
			out = append(out, f)
		}
	}
	return out
}

// Clean reports whether the scan found nothing to act on.
func (r *Result) Clean() bool {
	return len(r.Unvetted()) == 0 && len(r.Errors) == 0
}
