package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/big-brother/internal/pyverify"
)

var (
	pythonFlag     string
	runtimeDirFlag string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify DIR",
	Short: "Import a generated package and check its __all__",
	Long: `Verify runs Python against a package directory: every module must compile,
the package must import from its parent directory, and every name in
__all__ must exist.

By default a Python runtime bundled into big-brother is used, extracted
once into the user cache directory. Use --python to run a specific
interpreter instead (for packages that import third-party modules).

Importing executes the package's module-level code.

Examples:
  big-brother verify tools
  big-brother verify tools --python .venv/bin/python
`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&pythonFlag, "python", "", "Python executable to use instead of the bundled runtime")
	verifyCmd.Flags().StringVar(&runtimeDirFlag, "runtime-dir", "", "Where to extract the bundled runtime (default: user cache dir)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var interp pyverify.Interpreter
	if pythonFlag != "" {
		interp, err = pyverify.NewSystem(pythonFlag)
	} else {
		interp, err = pyverify.NewEmbedded(runtimeDirFlag)
	}
	if err != nil {
		return err
	}

	res, err := pyverify.NewVerifier(interp, log).Verify(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.OK() {
		fmt.Fprintf(out, "%s: FAILED\n", res.Package)
		for _, p := range res.Problems() {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return &exitError{code: 1}
	}

	fmt.Fprintf(out, "%s: OK (%d names in __all__)\n", res.Package, len(res.All))
	for _, n := range res.NotCallable {
		fmt.Fprintf(out, "  note: %s is not callable\n", n)
	}
	return nil
}
