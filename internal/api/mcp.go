package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"counciltrack/internal/storage"
)

// NewMCPServer creates an MCP server exposing the council file catalog to
// assistants over stdio.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"counciltrack",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("counciltrack — LA City Council legislative file tracker: agendas, council file timelines, and attachment summaries."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_council_file",
			mcp.WithDescription("Fetch the full cross-meeting record for one council file: timeline, recommendations, and summarized attachments."),
			mcp.WithString("number", mcp.Description("Council file number, e.g. 25-0600-S126"), mcp.Required()),
		),
		mcpGetCouncilFile(deps),
	)

	s.AddTool(
		mcp.NewTool("search_council_files",
			mcp.WithDescription("Search council files by number, title, or council district."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchCouncilFiles(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_meetings",
			mcp.WithDescription("List recently parsed council meetings with their item counts."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of meetings (default 10)")),
		),
		mcpRecentMeetings(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"counciltrack://index",
			"Council File Index",
			mcp.WithResourceDescription("All tracked council files ordered by most recent activity"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceIndex(deps),
	)

	return s
}

func mcpGetCouncilFile(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		number, err := req.RequireString("number")
		if err != nil {
			return mcpError("number is required"), nil
		}

		if _, err := deps.Store.GetCouncilFile(number); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return mcpError(fmt.Sprintf("council file %s not found", number)), nil
			}
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		cf, err := deps.Docs.ReadCouncilFile(number)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to read council file record: %v", err)), nil
		}

		b, err := json.Marshal(cf)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal record: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchCouncilFiles(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		records, err := deps.Store.SearchCouncilFiles(query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(records) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(records)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecentMeetings(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}

		meetings, err := deps.Store.ListMeetings()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list meetings: %v", err)), nil
		}
		if len(meetings) > limit {
			meetings = meetings[:limit]
		}
		if len(meetings) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(meetings)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal meetings: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceIndex(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		idx, err := deps.Docs.ReadIndex()
		if err != nil {
			return nil, fmt.Errorf("index not built yet: %w", err)
		}

		b, err := json.Marshal(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal index: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
