package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/search"
	"github.com/rixingyike/rustpress/pkg/version"
)

const (
	serverName   = "rustpress-search"
	defaultLimit = 10
	maxLimit     = 50
)

// Engine is the part of the search engine the server uses.
type Engine interface {
	Search(ctx context.Context, query string) search.Response
	Stats() search.Stats
	Document(id string) (corpus.Document, error)
}

// Server is the MCP server over one site corpus.
type Server struct {
	mcp    *mcp.Server
	engine Engine
	info   func() CorpusInfo
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCorpusInfo supplies source and load details for corpus_status.
func WithCorpusInfo(fn func() CorpusInfo) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.info = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server.
func NewServer(engine Engine, opts ...ServerOption) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}

	s := &Server{
		engine: engine,
		info:   func() CorpusInfo { return CorpusInfo{} },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return serverName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return toolInfos
}

var toolInfos = []ToolInfo{
	{
		Name: "search",
		Description: "Search the site's posts by title, content, tags and categories. " +
			"Returns the best matches with a highlighted excerpt and the post URL. " +
			"Words that only appear inside longer words are still found by substring match.",
	},
	{
		Name:        "corpus_status",
		Description: "Report whether the site's search corpus is loaded, how many posts it holds and which index backend is in use.",
	},
}

// CallTool invokes a tool by name with the given arguments. The search tool
// returns markdown; corpus_status returns *CorpusStatusOutput.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search":
		return s.handleSearchTool(ctx, args)
	case "corpus_status":
		return s.corpusStatus(), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleSearchTool returns markdown-formatted results.
func (s *Server) handleSearchTool(ctx context.Context, args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	limit := defaultLimit
	if l, ok := args["limit"].(float64); ok {
		limit = clampLimit(int(l), defaultLimit, 1, maxLimit)
	}

	resp, err := s.runSearch(ctx, query, limit)
	if err != nil {
		return "", err
	}
	return FormatSearchResults(resp), nil
}

// runSearch evaluates query, truncates to limit and logs with a request id.
func (s *Server) runSearch(ctx context.Context, query string, limit int) (search.Response, error) {
	start := time.Now()
	requestID := uuid.NewString()

	s.logger.Info("mcp_search_started",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("limit", limit))

	resp := s.engine.Search(ctx, query)
	if resp.Status == search.StatusFailed {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", resp.Err.Error()))
		return resp, MapError(resp.Err)
	}
	if len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}

	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.String("status", resp.Status.String()),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(resp.Results)))
	return resp, nil
}

func (s *Server) corpusStatus() *CorpusStatusOutput {
	stats := s.engine.Stats()
	info := s.info()
	return &CorpusStatusOutput{
		Source:       info.Source,
		Loaded:       stats.Loaded,
		Backend:      stats.Backend,
		Documents:    stats.Documents,
		Terms:        stats.Terms,
		Generation:   stats.Generation,
		CacheEntries: stats.CacheEntries,
		LoadedAt:     info.LoadedAt,
		LoadError:    info.LoadError,
		Watching:     info.Watching,
		Queries:      info.Queries,
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolInfos[0].Name,
		Description: toolInfos[0].Description,
	}, s.mcpSearchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolInfos[1].Name,
		Description: toolInfos[1].Description,
	}, s.mcpCorpusStatusHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(toolInfos)))
}

// mcpSearchHandler is the MCP SDK handler for the search tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	resp, err := s.runSearch(ctx, input.Query, clampLimit(input.Limit, defaultLimit, 1, maxLimit))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Status:  resp.Status.String(),
		Source:  string(resp.Source),
		Results: make([]SearchResultOutput, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		output.Results = append(output.Results, ToSearchResultOutput(r))
	}
	return nil, output, nil
}

// mcpCorpusStatusHandler is the MCP SDK handler for the corpus_status tool.
func (s *Server) mcpCorpusStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ CorpusStatusInput) (
	*mcp.CallToolResult,
	CorpusStatusOutput,
	error,
) {
	return nil, *s.corpusStatus(), nil
}

// ToSearchResultOutput converts a search result to the tool output format.
func ToSearchResultOutput(r search.Result) SearchResultOutput {
	return SearchResultOutput{
		ID:         r.DocumentID,
		Title:      r.Title,
		URL:        r.URL,
		Date:       r.Date,
		Excerpt:    markdownFromMarked(r.Excerpt),
		Score:      r.Score,
		Tags:       r.Tags,
		Categories: r.Categories,
	}
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
