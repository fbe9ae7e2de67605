package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/big-brother/internal/facts"
	"github.com/mvp-joe/big-brother/internal/report"
	"github.com/mvp-joe/big-brother/internal/splitter"
)

var (
	outputFlag    string
	dryRunFlag    bool
	forceFlag     bool
	splitJSONFlag bool
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split FILE",
	Short: "Decompose a multi-definition file into a package",
	Long: `Split reads a .py file with two or more top-level definitions and writes a
package next to it: one module per definition, each carrying only the imports
and module constants it uses, plus __init__.py with a literal __all__.

Definitions that depend on each other in a cycle share one module.
A public main() also gets __main__.py so 'python -m pkg' keeps working.

The plan is written only when it carries no warnings (unresolved names,
module state rebound with 'global', module-level statements that cannot
be relocated). Review the warnings and use --force to write anyway.
The original file is never modified.

Examples:
  # Preview the package without writing
  big-brother split tools.py --dry-run

  # Write tools/ next to tools.py
  big-brother split tools.py

  # Choose the package directory
  big-brother split tools.py --output pkg/tools
`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Package directory (default: FILE without .py)")
	splitCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the plan and file contents without writing")
	splitCmd.Flags().BoolVar(&forceFlag, "force", false, "Write even when the plan has warnings")
	splitCmd.Flags().BoolVar(&splitJSONFlag, "json", false, "Print the plan as JSON")
}

func runSplit(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	fs := afero.NewOsFs()
	source := args[0]

	src, err := facts.ReadSourceFile(fs, source)
	if err != nil {
		return err
	}

	opts := splitter.NewOptions(source, outputFlag)
	opts.Logger = log
	pkg, err := splitter.Split(src, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderer := report.NewRenderer(report.Options{NoColor: noColor})

	write := !dryRunFlag
	if write {
		writeFn := splitter.WriteSafe
		if forceFlag {
			writeFn = splitter.Write
		}
		if err := writeFn(fs, pkg); err != nil {
			if errors.Is(err, splitter.ErrUnsafe) {
				renderer.SplitPlan(out, pkg, false)
			}
			return err
		}
	}

	if splitJSONFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(pkg); err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		return nil
	}

	renderer.SplitPlan(out, pkg, write)
	if dryRunFlag {
		renderer.SplitContents(out, pkg)
	}
	return nil
}
