package facts

import (
	"bytes"

	"github.com/spf13/afero"
)

// VettingMarker marks a file whose violations were reviewed and accepted.
const VettingMarker = "bb:vetted"

// vettingWindow is how many physical lines are searched for the marker.
const vettingWindow = 10

// SourceFile is the raw input for one extraction pass.
type SourceFile struct {
	Path   string
	Text   []byte
	LOC    int
	Vetted bool
}

// NewSourceFile computes line count and vetting status for text.
func NewSourceFile(path string, text []byte) SourceFile {
	return SourceFile{
		Path:   path,
		Text:   text,
		LOC:    countLines(text),
		Vetted: hasVettingMarker(text),
	}
}

// ReadSourceFile reads path from fs. Failures are returned as *IOError.
func ReadSourceFile(fs afero.Fs, path string) (SourceFile, error) {
	text, err := afero.ReadFile(fs, path)
	if err != nil {
		return SourceFile{}, &IOError{Op: "read", Path: path, Err: err}
	}
	return NewSourceFile(path, text), nil
}

// countLines counts physical lines; a trailing newline does not open a new one.
func countLines(text []byte) int {
	if len(text) == 0 {
		return 0
	}
	n := bytes.Count(text, []byte{'\n'})
	if text[len(text)-1] != '\n' {
		n++
	}
	return n
}

// hasVettingMarker looks for the marker in the first physical lines only.
func hasVettingMarker(text []byte) bool {
	rest := text
	for i := 0; i < vettingWindow && len(rest) > 0; i++ {
		line := rest
		if j := bytes.IndexByte(rest, '\n'); j >= 0 {
			line, rest = rest[:j], rest[j+1:]
		} else {
			rest = nil
		}
		if bytes.Contains(line, []byte(VettingMarker)) {
			return true
		}
	}
	return false
}
