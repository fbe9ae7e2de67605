package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	noColor bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "big-brother",
	Short: "Structure laws for Python codebases",
	Long: `big-brother states a small set of structure laws for Python code and
reports every file that breaks them:

  1. One public function or class per .py file
  2. __init__.py files that re-export must declare a literal __all__
  3. Entry files (main.py, app.py, ...) route; they hold at most 3 defs
  4. Source files <= 800 LOC, test files <= 500 LOC

Files that are cohesive on purpose carry '# bb:vetted' in their first
10 lines. They are still reported, in a separate section, and never
fail a --strict run.

split decomposes a file that breaks law 1 into a package with one
module per definition, each carrying only the imports it uses.

Configuration: .bigbrother.yml in the scan root, overridden by BB_*
environment variables, overridden by flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// newLogger writes to stderr: debug and up with --verbose, warnings otherwise.
func newLogger() (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
