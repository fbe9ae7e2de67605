package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/big-brother/internal/config"
	"github.com/mvp-joe/big-brother/internal/report"
)

// lawsCmd represents the laws command
var lawsCmd = &cobra.Command{
	Use:   "laws [path]",
	Short: "Print the laws with the limits active for a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigFromDir(configRoot(pathArg(args)))
		if err != nil {
			return err
		}
		report.NewRenderer(report.Options{NoColor: noColor}).Laws(cmd.OutOrStdout(), cfg.LawContext(false, false))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lawsCmd)
}
