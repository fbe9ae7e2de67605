package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/big-brother/internal/config"
	"github.com/mvp-joe/big-brother/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for coding agents",
	Long: `Start a Model Context Protocol (MCP) server on stdio so coding agents can
check their own work against the structure laws.

Tools:
  bb_scan        scan a directory or file, return findings as JSON
  bb_split_plan  plan a package for a multi-definition file (writes nothing)
  bb_laws        list the active laws

Example:
  big-brother mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	server := mcp.NewServer(afero.NewOsFs(), config.LoadConfigFromDir, Version, log)
	return server.Serve(cmd.Context())
}
