package splitter

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Options controls where a package goes and how imports are re-pointed.
type Options struct {
	// Dir is the package directory to create.
	Dir string

	// RelativeShift is the number of extra leading dots relative imports
	// need. The default package sits one level below the original module,
	// so its relative imports gain one dot. Zero means relative imports
	// cannot be re-pointed and are reported.
	RelativeShift int

	Logger *zap.Logger
}

// DefaultDir is the package directory next to the source: pkg/mod.py -> pkg/mod.
func DefaultDir(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
}

// NewOptions builds Options for splitting sourcePath into outputDir
// (DefaultDir when empty).
func NewOptions(sourcePath, outputDir string) Options {
	if outputDir == "" {
		outputDir = DefaultDir(sourcePath)
	}
	opts := Options{Dir: outputDir}
	if filepath.Clean(filepath.Dir(outputDir)) == filepath.Clean(filepath.Dir(sourcePath)) {
		opts.RelativeShift = 1
	}
	return opts
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
