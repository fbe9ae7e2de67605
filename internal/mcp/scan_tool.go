package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/big-brother/internal/laws"
	"github.com/mvp-joe/big-brother/internal/report"
	"github.com/mvp-joe/big-brother/internal/scan"
)

// ScanResponse is the bb_scan result: the active laws, every finding
// and the exit code a strict CI run would produce.
type ScanResponse struct {
	Laws []laws.Statement `json:"laws"`
	*scan.Result
	ExitCode int `json:"exit_code"`
}

// AddScanTool registers the bb_scan tool with an MCP server.
func AddScanTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"bb_scan",
		mcp.WithDescription("Check Python files against the structure laws: one public function or class per file, literal __all__ in re-exporting __init__.py, thin entry files, and line limits. Vetted files (marked '# bb:vetted' in the first 10 lines) are reported separately and never fail a strict run."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Directory or .py file to scan")),
		mcp.WithBoolean("strict",
			mcp.Description("Compute exit_code as a CI gate would (default: false)")),
		mcp.WithArray("ignore",
			mcp.Description("Extra glob patterns to skip, matched on basename and relative path"),
			mcp.WithStringItems()),
		mcp.WithNumber("source_max",
			mcp.Description("Override the LOC limit for source files")),
		mcp.WithNumber("test_max",
			mcp.Description("Override the LOC limit for test files")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createScanHandler(srv))
}

func createScanHandler(srv *Server) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args scanArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := requireString("path", args.Path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		cfg, err := srv.configFor(args.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to load config: %v", err)), nil
		}
		cfg.Ignore = append(cfg.Ignore, args.Ignore...)
		if args.SourceMax > 0 {
			cfg.SourceMax = args.SourceMax
		}
		if args.TestMax > 0 {
			cfg.TestMax = args.TestMax
		}

		res, err := scan.New(srv.fs, cfg, scan.WithLogger(srv.log)).Scan(ctx, args.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
		}

		response := ScanResponse{
			Laws:     laws.Statements(cfg.LawContext(false, false)),
			Result:   res,
			ExitCode: report.ExitCode(res, args.Strict),
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// AddLawsTool registers bb_laws, which states the active laws for a path.
func AddLawsTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"bb_laws",
		mcp.WithDescription("List the structure laws and the line limits active for a directory."),
		mcp.WithString("path",
			mcp.Description("Directory whose .bigbrother.yml applies (default: current directory)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args lawsArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.Path == "" {
			args.Path = "."
		}

		cfg, err := srv.configFor(args.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to load config: %v", err)), nil
		}

		jsonData, err := json.Marshal(laws.Statements(cfg.LawContext(false, false)))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	})
}
