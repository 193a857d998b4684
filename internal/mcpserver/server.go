// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes memoirs tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
)

// Server wraps the MCP server with memoirs tools.
type Server struct {
	mcp      *server.MCPServer
	res      *resolver.Resolver
	defaults models.Partition
}

// New creates a new MCP server with all memoirs tools registered. Tools
// accept optional host and user arguments; missing ones come from defaults.
func New(res *resolver.Resolver, defaults models.Partition) *Server {
	s := &Server{res: res, defaults: defaults}

	s.mcp = server.NewMCPServer(
		"Memoirs",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_memo", withPartition(
		mcp.WithDescription("Fetch a memo with its rewritten content, derived frontmatter and related memo titles."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Memo ID")),
	)...), s.getMemo)

	s.mcp.AddTool(mcp.NewTool("list_memos", withPartition(
		mcp.WithDescription("List memos filtered by tag or content. "+
			"Read the markup contract via the memoirs://markup-contract resource to interpret patchedContent."),
		mcp.WithString("tag", mcp.Description("Tag without the leading #")),
		mcp.WithString("content", mcp.Description("Substring the content must contain")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
		mcp.WithString("rowStatus", mcp.Description("NORMAL or ARCHIVED"), mcp.Enum("NORMAL", "ARCHIVED")),
		mcp.WithBoolean("filterPages", mcp.Description("Drop memos marked as pages or sidenav (default true)")),
	)...), s.listMemos)

	s.mcp.AddTool(mcp.NewTool("get_menu", withPartition(
		mcp.WithDescription("Navigation menu declared by memoirs_menu memos."),
		mcp.WithBoolean("refresh", mcp.Description("Bypass the cached menu")),
	)...), s.getMenu)

	s.mcp.AddTool(mcp.NewTool("invalidate_memo", withPartition(
		mcp.WithDescription("Drop a memo from the cache so the next read refetches it."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Memo ID")),
	)...), s.invalidateMemo)

	s.mcp.AddTool(mcp.NewTool("cache_stats",
		mcp.WithDescription("Number of cached entries and distinct remote partitions."),
	), s.cacheStats)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Markup Contract",
			mcp.WithResourceDescription("How memo content is rewritten and how titles, abstracts and menus are derived."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// withPartition appends the optional host and user arguments.
func withPartition(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("host", mcp.Description("Memos server URL (defaults to the configured server)")),
		mcp.WithString("user", mcp.Description("Memos username (defaults to the configured user)")),
	)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) partition(req mcp.CallToolRequest) models.Partition {
	return models.Partition{
		Host: req.GetString("host", s.defaults.Host),
		User: req.GetString("user", s.defaults.User),
	}
}

func memoID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return int64(id), nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) getMemo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := memoID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.res.Resolve(ctx, s.partition(req), id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listMemos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := models.MemoQuery{
		Tag:         req.GetString("tag", ""),
		Content:     req.GetString("content", ""),
		RowStatus:   models.RowStatus(strings.ToUpper(req.GetString("rowStatus", ""))),
		Limit:       req.GetInt("limit", 0),
		Offset:      req.GetInt("offset", 0),
		FilterPages: req.GetBool("filterPages", true),
	}
	res, err := s.res.ResolveList(ctx, s.partition(req), q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getMenu(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.res.Menu(ctx, s.partition(req), models.RowStatusNormal, req.GetBool("refresh", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) invalidateMemo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := memoID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.res.Invalidate(s.partition(req), id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("invalidated: %d", id)), nil
}

func (s *Server) cacheStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.res.Stats()), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     MarkupContract,
		},
	}, nil
}
