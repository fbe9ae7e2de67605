package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/big-brother/internal/facts"
	"github.com/mvp-joe/big-brother/internal/splitter"
)

// SplitPlanResponse is the bb_split_plan result. Nothing is written.
type SplitPlanResponse struct {
	*splitter.Package
	Safe bool `json:"safe"`
}

// AddSplitPlanTool registers the bb_split_plan tool with an MCP server.
func AddSplitPlanTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"bb_split_plan",
		mcp.WithDescription("Plan the decomposition of a Python file with several top-level definitions into a package: one module per definition (mutually dependent definitions share one), each with only the imports it uses, plus __init__.py with a literal __all__. Returns file contents, clusters, notes and warnings; writes nothing. A plan with warnings needs review before it is applied."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Path to the .py file to split")),
		mcp.WithString("output",
			mcp.Description("Package directory to plan for (default: the file path without .py)")),
		mcp.WithBoolean("include_content",
			mcp.Description("Include generated file contents (default: true)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSplitPlanHandler(srv))
}

func createSplitPlanHandler(srv *Server) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args splitPlanArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := requireString("file", args.File); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		src, err := facts.ReadSourceFile(srv.fs, args.File)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		opts := splitter.NewOptions(args.File, args.Output)
		opts.Logger = srv.log
		pkg, err := splitter.Split(src, opts)
		switch {
		case errors.Is(err, splitter.ErrNothingToSplit), errors.Is(err, facts.ErrParse):
			return mcp.NewToolResultError(err.Error()), nil
		case err != nil:
			return nil, fmt.Errorf("split planning failed: %w", err)
		}

		if args.IncludeContent != nil && !*args.IncludeContent {
			for i := range pkg.Files {
				pkg.Files[i].Content = ""
			}
			pkg.Index.Content = ""
			if pkg.State != nil {
				pkg.State.Content = ""
			}
			if pkg.Main != nil {
				pkg.Main.Content = ""
			}
		}

		jsonData, err := json.Marshal(SplitPlanResponse{Package: pkg, Safe: pkg.Safe()})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
